package controllers

import (
	"net/http"

	"github.com/autoflexeasy/autoflex-backend/api/responses"
	"github.com/autoflexeasy/autoflex-backend/internal/admin"
)

// AdminDashboard never fails: each source degrades to empty on its own.
func AdminDashboard(svc *admin.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Dashboard(r.Context()))
	}
}

func AdminUsers(svc *admin.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.RecentUsers(r.Context()))
	}
}

func AdminSubscriptions(svc *admin.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.SubscriptionTable(r.Context()))
	}
}
