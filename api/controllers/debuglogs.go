package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/autoflexeasy/autoflex-backend/api/responses"
	"github.com/autoflexeasy/autoflex-backend/api/validators"
	"github.com/autoflexeasy/autoflex-backend/internal/debuglog"
	"github.com/autoflexeasy/autoflex-backend/pkg/errors"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
)

const maxDebugLogBody = 16 << 10

type debugLogsResponse struct {
	Logs []debuglog.Entry `json:"logs"`
}

// DebugLogAppend stores one arbitrary JSON document.
func DebugLogAppend(sink debuglog.Sink, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxDebugLogBody+1))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeValidation, err, "read request body"))
			return
		}
		if len(raw) > maxDebugLogBody {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeValidation, "log entry too large"))
			return
		}
		if !json.Valid(raw) {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeValidation, "log entry must be valid JSON"))
			return
		}

		entry := debuglog.Entry{ReceivedAt: time.Now().UTC(), Data: json.RawMessage(raw)}
		if err := sink.Append(r.Context(), entry); err != nil {
			responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeInternal, err, "store log entry"))
			return
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}

// DebugLogList returns retained entries oldest-first.
func DebugLogList(sink debuglog.Sink, capacity int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.QueryInt(r, "limit", validators.IntRange{Default: capacity, Min: 1, Max: capacity})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := sink.Recent(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeDependency, err, "read log entries"))
			return
		}
		if entries == nil {
			entries = []debuglog.Entry{}
		}
		responses.WriteSuccess(w, debugLogsResponse{Logs: entries})
	}
}
