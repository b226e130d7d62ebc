package controllers

import (
	"net/http"

	"github.com/autoflexeasy/autoflex-backend/api/responses"
	"github.com/autoflexeasy/autoflex-backend/api/validators"
	"github.com/autoflexeasy/autoflex-backend/internal/authactions"
	"github.com/autoflexeasy/autoflex-backend/pkg/enums"
	"github.com/autoflexeasy/autoflex-backend/pkg/errors"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
)

const maxActionBody = 1 << 12

// AdminAuthAction runs one generate_link flavour and answers with the {ok, error?} envelope.
func AdminAuthAction(svc *authactions.Service, kind enums.LinkType, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithField(ctx, "link_type", kind.String())
		}

		var req authactions.Request
		if err := validators.DecodeJSONBodyLimit(r, &req, maxActionBody); err != nil {
			writeActionError(w, err)
			return
		}

		result, err := svc.Run(ctx, kind, req)
		if err != nil {
			if logg != nil && !errors.HasCode(err, errors.CodeValidation) {
				logg.Error(ctx, "auth_action.failed", err)
			}
			writeActionError(w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, result)
	}
}

func writeActionError(w http.ResponseWriter, err error) {
	typed := errors.Coerce(err)
	responses.WriteJSON(w, errors.StatusOf(typed), authactions.Result{OK: false, Error: typed.PublicMessage()})
}
