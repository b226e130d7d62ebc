package controllers

import (
	"net/http"

	"github.com/autoflexeasy/autoflex-backend/api/responses"
	"github.com/autoflexeasy/autoflex-backend/internal/payments"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
)

// StripeDashboard serves the payments overview read straight from the provider.
func StripeDashboard(svc *payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overview, err := svc.Overview(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, overview)
	}
}
