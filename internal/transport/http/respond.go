package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "canopy/pkg/errors"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses so every
// handler returns the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := pkgerrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	var domainErr pkgerrors.Error
	if errors.As(err, &domainErr) {
		body["message"] = domainErr.Message
	}
	writeJSON(w, pkgerrors.ToHTTPStatus(code), body)
}

// decode parses a JSON request body, rejecting unknown fields.
func decode(r *http.Request, dest any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return pkgerrors.New(pkgerrors.CodeMalformedInput, "invalid JSON body: "+err.Error())
	}
	return nil
}
