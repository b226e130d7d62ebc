package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/autoflexeasy/autoflex-backend/pkg/supabase"
)

func TestCodeClasses(t *testing.T) {
	statuses := map[Code]int{
		CodeValidation:   http.StatusBadRequest,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeForbidden:    http.StatusForbidden,
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeIdempotency:  http.StatusConflict,
		CodeRateLimit:    http.StatusTooManyRequests,
		CodeInternal:     http.StatusInternalServerError,
		CodeDependency:   http.StatusServiceUnavailable,
		CodeUpstream:     http.StatusBadGateway,
	}
	for code, status := range statuses {
		class := code.Class()
		assert.Equal(t, status, class.Status, code)
		assert.NotEmpty(t, class.Public, code)
		assert.Equal(t, status >= 500, class.Retryable, code)
	}

	assert.Equal(t, CodeInternal.Class(), Code("SOMETHING_ELSE").Class())
}

func TestPublicMessageHidesInternalText(t *testing.T) {
	assert.Equal(t, "title is required", New(CodeValidation, "title is required").PublicMessage())
	assert.Equal(t, "internal server error", New(CodeInternal, "pq: relation missing").PublicMessage())
	assert.Equal(t, "dependency unavailable", New(CodeDependency, "redis dial tcp").PublicMessage())
	assert.Equal(t, "resource not found", New(CodeNotFound, "").PublicMessage())

	var nilErr *Error
	assert.Equal(t, "internal server error", nilErr.PublicMessage())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "save post")

	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, CodeConflict, wrapped.Code())
	assert.Equal(t, "CONFLICT: save post: boom", wrapped.Error())
	assert.Equal(t, "NOT_FOUND: post 7 not found", Newf(CodeNotFound, "post %d not found", 7).Error())

	withDetails := New(CodeValidation, "bad").WithDetails(map[string]string{"field": "title"})
	assert.Equal(t, map[string]string{"field": "title"}, withDetails.Details())
}

func TestCoerceAndStatusOf(t *testing.T) {
	inner := New(CodeUpstream, "stripe unavailable")
	outer := fmt.Errorf("overview: %w", inner)

	assert.Same(t, inner, As(outer))
	assert.True(t, HasCode(outer, CodeUpstream))
	assert.False(t, HasCode(outer, CodeInternal))
	assert.Nil(t, As(nil))
	assert.Equal(t, http.StatusBadGateway, StatusOf(outer))

	plain := Coerce(stdErrors.New("plain"))
	assert.Equal(t, CodeInternal, plain.Code())
	assert.Equal(t, http.StatusInternalServerError, StatusOf(nil))
}

func TestDiagnoseCollectsChain(t *testing.T) {
	d := Diagnose(Wrap(CodeDependency, stdErrors.New("redis down"), "rate limit lookup"))

	assert.Equal(t, CodeDependency, d.Code)
	assert.Len(t, d.Chain, 2)
	assert.NotContains(t, d.Fields(), "pg_code")
	assert.Empty(t, Diagnose(nil).Chain)
}

func TestDiagnoseProviderErrors(t *testing.T) {
	stripeErr := &stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeCardDeclined, RequestID: "req_123"}
	d := Diagnose(Wrap(CodeUpstream, stripeErr, "load balance"))
	assert.Equal(t, string(stripe.ErrorCodeCardDeclined), d.StripeCode)
	assert.Equal(t, "req_123", d.StripeRequestID)

	d = Diagnose(fmt.Errorf("list users: %w", &supabase.APIError{Status: 503, Message: "unavailable"}))
	require.Equal(t, 503, d.ProviderStatus)
	assert.Equal(t, 503, d.Fields()["provider_status"])
}
