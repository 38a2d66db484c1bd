package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	err := New(CodeNotFound, "asset \"AST-0001\" not found")
	assert.Equal(t, `not_found: asset "AST-0001" not found`, err.Error())
}

func TestNewf(t *testing.T) {
	err := Newf(CodeDuplicate, "asset %q already exists", "AST-0001")
	assert.Equal(t, CodeDuplicate, err.Code)
	assert.Equal(t, `asset "AST-0001" already exists`, err.Message)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeOrphanReference, CodeOf(New(CodeOrphanReference, "dangling parent")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("disk on fire")))
	assert.Equal(t, CodeInternal, CodeOf(nil))
}

func TestCodeOfUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("advancing verification: %w", New(CodeInvalidTransition, "pending cannot reach stamped"))
	assert.Equal(t, CodeInvalidTransition, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, CodeInvalidTransition))
	assert.False(t, IsCode(wrapped, CodeInvalidState))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeNotFound:           http.StatusNotFound,
		CodeOrphanReference:    http.StatusUnprocessableEntity,
		CodeDuplicate:          http.StatusConflict,
		CodeInvalidTransition:  http.StatusConflict,
		CodeInvalidState:       http.StatusConflict,
		CodeEscalationRequired: http.StatusLocked,
		CodeMalformedInput:     http.StatusBadRequest,
		CodeInternal:           http.StatusInternalServerError,
		Code("unmapped"):       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
