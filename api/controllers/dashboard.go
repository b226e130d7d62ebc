package controllers

import (
	"net/http"

	"github.com/autoflexeasy/autoflex-backend/api/middleware"
	"github.com/autoflexeasy/autoflex-backend/api/responses"
	"github.com/autoflexeasy/autoflex-backend/internal/marketing"
	"github.com/autoflexeasy/autoflex-backend/internal/robot"
)

type accountView struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

type dashboardView struct {
	Account accountView         `json:"account"`
	Nav     []marketing.NavItem `json:"nav"`
}

func currentAccount(r *http.Request) accountView {
	view := accountView{Role: middleware.RoleFromContext(r.Context())}
	if identity := middleware.IdentityFromContext(r.Context()); identity != nil {
		view.ID = identity.ID
		view.Email = identity.Email
	}
	return view
}

// DashboardHome is the user panel landing view.
func DashboardHome(content *marketing.Content) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, dashboardView{Account: currentAccount(r), Nav: content.Nav()})
	}
}

func DashboardAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, currentAccount(r))
	}
}

// anonymousDevice backs the robot panel when the dashboard bypass admits a request without identity.
const anonymousDevice = "anonymous"

func deviceKey(r *http.Request) string {
	if userID := middleware.UserIDFromContext(r.Context()); userID != "" {
		return userID
	}
	return anonymousDevice
}

// RobotTelemetry returns the caller's simulated device readings.
func RobotTelemetry(sim *robot.Simulator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, sim.Read(deviceKey(r)))
	}
}

func RobotToggle(sim *robot.Simulator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, sim.Toggle(deviceKey(r)))
	}
}
