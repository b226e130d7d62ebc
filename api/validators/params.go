package validators

import (
	"net/http"
	"strconv"
	"strings"
	"unicode"

	pkgerrors "github.com/autoflexeasy/autoflex-backend/pkg/errors"
)

// IntRange describes an optional bounded integer query parameter.
type IntRange struct {
	Default int
	Min     int
	Max     int
}

// QueryInt reads key from the query string, falling back to the default
// when absent and rejecting values outside [Min, Max].
func QueryInt(r *http.Request, key string, bounds IntRange) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return bounds.Default, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be an integer").
			WithDetails([]FieldError{{Field: key, Message: "must be an integer"}})
	}
	if value < bounds.Min || value > bounds.Max {
		msg := "must be between " + strconv.Itoa(bounds.Min) + " and " + strconv.Itoa(bounds.Max)
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" "+msg).
			WithDetails([]FieldError{{Field: key, Message: msg}})
	}
	return value, nil
}

// CleanText trims surrounding space, drops control characters and cuts the
// result to at most maxRunes runes.
func CleanText(input string, maxRunes int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(input))
	if maxRunes <= 0 {
		return cleaned
	}
	runes := []rune(cleaned)
	if len(runes) <= maxRunes {
		return cleaned
	}
	return strings.TrimSpace(string(runes[:maxRunes]))
}

// NormalizeEmail lowercases and cleans an address for lookups.
func NormalizeEmail(input string) string {
	return strings.ToLower(CleanText(input, 254))
}
