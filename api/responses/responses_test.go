package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/autoflexeasy/autoflex-backend/pkg/errors"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func TestWriteSuccessWrapsData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessStatus(rec, http.StatusCreated, map[string]string{"id": "p1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"id":"p1"}}`, rec.Body.String())
}

func TestWriteJSONSkipsEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusBadRequest, map[string]any{"ok": false, "error": "email is required"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"email is required"}`, rec.Body.String())
}

func TestWriteErrorEnvelope(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		status      int
		code        string
		message     string
		wantDetails bool
	}{
		{
			name:        "validation keeps message and details",
			err:         pkgerrors.New(pkgerrors.CodeValidation, "bad input").WithDetails(map[string]string{"field": "title"}),
			status:      http.StatusBadRequest,
			code:        "VALIDATION_ERROR",
			message:     "bad input",
			wantDetails: true,
		},
		{
			name:    "upstream keeps message",
			err:     pkgerrors.New(pkgerrors.CodeUpstream, "payments provider unavailable"),
			status:  http.StatusBadGateway,
			code:    "UPSTREAM_ERROR",
			message: "payments provider unavailable",
		},
		{
			name:    "forbidden drops details",
			err:     pkgerrors.New(pkgerrors.CodeForbidden, "admins only").WithDetails("role=viewer"),
			status:  http.StatusForbidden,
			code:    "FORBIDDEN",
			message: "admins only",
		},
		{
			name:    "untyped becomes internal",
			err:     errors.New("pq: connection reset"),
			status:  http.StatusInternalServerError,
			code:    "INTERNAL_ERROR",
			message: "internal server error",
		},
		{
			name:    "wrapped typed error is found",
			err:     errors.Join(errors.New("ctx"), pkgerrors.New(pkgerrors.CodeRateLimit, "slow down")),
			status:  http.StatusTooManyRequests,
			code:    "RATE_LIMIT_EXCEEDED",
			message: "slow down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), nil, rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			got := decodeError(t, rec)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.message, got.Message)
			assert.Equal(t, tt.wantDetails, got.Details != nil)
		})
	}
}

func TestWriteErrorLogsByStatus(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf, Format: logger.FormatJSON})

	WriteError(context.Background(), logg, httptest.NewRecorder(), pkgerrors.New(pkgerrors.CodeNotFound, "post not found"))
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"error_code":"NOT_FOUND"`)

	buf.Reset()
	WriteError(context.Background(), logg, httptest.NewRecorder(), errors.New("boom"))
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "request.error")
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "post not found", PublicMessage(pkgerrors.New(pkgerrors.CodeNotFound, "post not found")))
	assert.Equal(t, "dependency unavailable", PublicMessage(pkgerrors.New(pkgerrors.CodeDependency, "redis timeout")))
	assert.Equal(t, "internal server error", PublicMessage(nil))
}
