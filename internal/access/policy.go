package access

import (
	"github.com/autoflexeasy/autoflex-backend/pkg/config"
	"github.com/autoflexeasy/autoflex-backend/pkg/enums"
)

const (
	AreaAdmin     = "admin"
	AreaDashboard = "dashboard"
)

// Area is a protected part of the product with its own allow-list.
// An empty AllowedRoles means any present identity may enter.
type Area struct {
	Name         string
	AllowedRoles []enums.Role
	SignInPath   string
	DeniedPath   string
	// AllowAnonymous lets requests without identity through (demo mode only).
	AllowAnonymous bool
}

// Areas is the set of guarded areas wired from config.
type Areas struct {
	Admin     Area
	Dashboard Area
}

// AreasFromConfig builds the admin and dashboard areas.
func AreasFromConfig(cfg config.AccessConfig, app config.AppConfig) Areas {
	adminRoles := cfg.AdminRoleSet()
	if len(adminRoles) == 0 {
		adminRoles = []enums.Role{enums.RoleAdmin}
	}
	return Areas{
		Admin: Area{
			Name:         AreaAdmin,
			AllowedRoles: adminRoles,
			SignInPath:   cfg.AdminLoginPath,
			DeniedPath:   cfg.AdminLoginPath,
		},
		Dashboard: Area{
			Name:           AreaDashboard,
			SignInPath:     cfg.SignInPath,
			DeniedPath:     cfg.SignInPath,
			AllowAnonymous: cfg.DashboardBypass && !app.IsProd(),
		},
	}
}

// Permits reports whether role may enter the area once an identity is present.
func (a Area) Permits(role enums.Role) bool {
	if len(a.AllowedRoles) == 0 {
		return true
	}
	for _, allowed := range a.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}
