package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Id prefixes keep records self-describing in logs and audit trails.
const (
	IDPrefixAsset        = "AST"
	IDPrefixLiability    = "LIA"
	IDPrefixIntervention = "INT"
	IDPrefixVerification = "VER"
)

// IDFunc produces a fresh opaque id for the given prefix. It is injected into
// the graph so tests can substitute a deterministic sequence.
type IDFunc func(prefix string) string

// NewID is the default IDFunc: prefix plus an uppercase uuid-derived suffix,
// e.g. "AST-9F2C41AB".
func NewID(prefix string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return prefix + "-" + suffix
}
