package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/autoflexeasy/autoflex-backend/pkg/errors"
)

type createBody struct {
	Title string `json:"title" validate:"required,notblank,max=10"`
	Email string `json:"email" validate:"omitempty,email"`
	Count int    `json:"count" validate:"min=0,max=5"`
}

func jsonRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func details(t *testing.T, err error) []FieldError {
	t.Helper()
	var typed *pkgerrors.Error
	require.ErrorAs(t, err, &typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	out, ok := typed.Details().([]FieldError)
	require.True(t, ok, "details should be field errors, got %T", typed.Details())
	return out
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	var body createBody
	require.NoError(t, DecodeJSONBody(jsonRequest(`{"title":"hello","count":2}`), &body))
	assert.Equal(t, "hello", body.Title)
	assert.Equal(t, 2, body.Count)
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	var body createBody
	err := DecodeJSONBody(jsonRequest(`{"title":"   ","email":"nope","count":9}`), &body)

	got := details(t, err)
	assert.Equal(t, []FieldError{
		{Field: "count", Message: "must be at most 5"},
		{Field: "email", Message: "must be a valid email"},
		{Field: "title", Message: "is required"},
	}, got)
}

func TestDecodeJSONBodyRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name    string
		req     *http.Request
		message string
	}{
		{"empty", httptest.NewRequest(http.MethodPost, "/", http.NoBody), "request body is required"},
		{"syntax", jsonRequest(`{"title":`), "request body is not valid JSON"},
		{"trailing", jsonRequest(`{"title":"a"}{"title":"b"}`), "single JSON object"},
		{"unknown field", jsonRequest(`{"title":"a","admin":true}`), "invalid request body"},
		{"wrong type", jsonRequest(`{"title":"a","count":"two"}`), "invalid request body"},
		{"too large", jsonRequest(`{"title":"` + strings.Repeat("x", MaxBodyBytes) + `"}`), "exceeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body createBody
			err := DecodeJSONBody(tt.req, &body)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestDecodeJSONBodyLimitUsesCallerCap(t *testing.T) {
	var body createBody
	err := DecodeJSONBodyLimit(jsonRequest(`{"title":"`+strings.Repeat("x", 64)+`"}`), &body, 32)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "request body exceeds 32 bytes")

	require.NoError(t, DecodeJSONBodyLimit(jsonRequest(`{"title":"ok"}`), &body, 32))
	assert.Equal(t, "ok", body.Title)
}

func TestDecodeJSONBodyNamesUnknownField(t *testing.T) {
	var body createBody
	got := details(t, DecodeJSONBody(jsonRequest(`{"title":"a","admin":true}`), &body))
	assert.Equal(t, []FieldError{{Field: "admin", Message: "is not allowed"}}, got)
}

func TestQueryInt(t *testing.T) {
	bounds := IntRange{Default: 50, Min: 1, Max: 100}

	value, err := QueryInt(httptest.NewRequest(http.MethodGet, "/", nil), "limit", bounds)
	require.NoError(t, err)
	assert.Equal(t, 50, value)

	value, err = QueryInt(httptest.NewRequest(http.MethodGet, "/?limit=7", nil), "limit", bounds)
	require.NoError(t, err)
	assert.Equal(t, 7, value)

	_, err = QueryInt(httptest.NewRequest(http.MethodGet, "/?limit=abc", nil), "limit", bounds)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = QueryInt(httptest.NewRequest(http.MethodGet, "/?limit=500", nil), "limit", bounds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 1 and 100")
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "hello", CleanText("  hello \n", 0))
	assert.Equal(t, "abc", CleanText("a\x00b\x07c", 0))
	assert.Equal(t, "héll", CleanText("héllo", 4))
	assert.Equal(t, "日本", CleanText("日本語", 2))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "owner@autoflexeasy.com", NormalizeEmail("  Owner@AutoFlexEasy.com "))
}
