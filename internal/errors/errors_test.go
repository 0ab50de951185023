package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"retainsim/domain/core"
)

func TestGetCodeClassifiesDomainErrors(t *testing.T) {
	tests := []struct {
		err  error
		code string
		exit int
		http int
	}{
		{core.NewNotFoundError("churn predictions", "p.csv", "trainer"), CodeNotFound, 2, http.StatusNotFound},
		{core.NewMissingColumnsError("p.csv", []string{"churn_probability"}), CodeSchemaError, 3, http.StatusBadRequest},
		{core.NewInvalidListError("targets", "0.1,abc"), CodeValidationError, 1, http.StatusBadRequest},
		{fmt.Errorf("boom"), CodeInternalError, 1, http.StatusInternalServerError},
		{nil, "", 0, http.StatusOK},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, GetCode(tt.err), "%v", tt.err)
		assert.Equal(t, tt.exit, ExitCode(tt.err), "%v", tt.err)
		assert.Equal(t, tt.http, HTTPStatus(tt.err), "%v", tt.err)
	}
}

func TestWrapKeepsCodeAndCause(t *testing.T) {
	inner := core.NewMissingColumnsError("snap.csv", []string{"customer_id"})
	wrapped := Wrap(Wrap(inner, "load snapshot"), "run")

	assert.Equal(t, CodeSchemaError, GetCode(wrapped))
	assert.True(t, stderrors.Is(wrapped, core.ErrMissingColumns))
	assert.Contains(t, wrapped.Error(), "customer_id")
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestWithCodeOverrides(t *testing.T) {
	err := WithCode(CodeRateLimited, stderrors.New("slow down"))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(err))
	assert.True(t, IsAppError(err))
}

func TestNotFoundExitsWithTwo(t *testing.T) {
	err := NotFound("report template")
	assert.Equal(t, "report template not found", err.Message)
	assert.Equal(t, 2, ExitCode(err))
}
