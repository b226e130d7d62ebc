package access

import (
	"context"
	"errors"
	"time"

	"github.com/autoflexeasy/autoflex-backend/pkg/auth"
	"github.com/autoflexeasy/autoflex-backend/pkg/enums"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
	"github.com/autoflexeasy/autoflex-backend/pkg/metrics"
)

const defaultLookupTimeout = 3 * time.Second

// RoleSource looks up the stored role attribute for an identity.
// A missing row is reported as ("", nil).
type RoleSource interface {
	RoleFor(ctx context.Context, identityID string) (string, error)
}

// Decision is the outcome of a guard check.
type Decision struct {
	Allowed  bool
	Redirect string
	Role     enums.Role
	Reason   string
}

const (
	ReasonNoIdentity = "no_identity"
	ReasonAnonymous  = "anonymous_allowed"
	ReasonRole       = "role_allowed"
	ReasonDenied     = "role_denied"
)

type ResolverParams struct {
	Roles         RoleSource
	Areas         Areas
	AdminHome     string
	UserHome      string
	LookupTimeout time.Duration
	Logger        *logger.Logger
	Metrics       *metrics.AccessMetrics
}

// Resolver decides whether a request may enter a guarded area.
// It never writes and never returns role lookup errors.
type Resolver struct {
	roles         RoleSource
	areas         Areas
	adminHome     string
	userHome      string
	lookupTimeout time.Duration
	logg          *logger.Logger
	metrics       *metrics.AccessMetrics
}

func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Roles == nil {
		return nil, errors.New("role source is required")
	}
	if params.AdminHome == "" || params.UserHome == "" {
		return nil, errors.New("admin and user home paths are required")
	}
	if params.Areas.Admin.SignInPath == "" || params.Areas.Dashboard.SignInPath == "" {
		return nil, errors.New("area sign-in paths are required")
	}
	timeout := params.LookupTimeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &Resolver{
		roles:         params.Roles,
		areas:         params.Areas,
		adminHome:     params.AdminHome,
		userHome:      params.UserHome,
		lookupTimeout: timeout,
		logg:          params.Logger,
		metrics:       params.Metrics,
	}, nil
}

func (r *Resolver) Areas() Areas {
	return r.areas
}

// Resolve applies the area's allow-list to the identity's role.
func (r *Resolver) Resolve(ctx context.Context, identity *auth.Identity, area Area) Decision {
	decision := r.decide(ctx, identity, area)
	r.metrics.ObserveDecision(area.Name, decision.Allowed)
	if r.logg != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"area":    area.Name,
			"allowed": decision.Allowed,
			"reason":  decision.Reason,
			"role":    decision.Role.String(),
		})
		r.logg.Debug(logCtx, "access.decision")
	}
	return decision
}

func (r *Resolver) decide(ctx context.Context, identity *auth.Identity, area Area) Decision {
	if identity == nil || identity.ID == "" {
		if area.AllowAnonymous {
			return Decision{Allowed: true, Role: enums.RoleUser, Reason: ReasonAnonymous}
		}
		return Decision{Redirect: area.SignInPath, Reason: ReasonNoIdentity}
	}

	role := r.RoleOf(ctx, identity)
	if area.Permits(role) {
		return Decision{Allowed: true, Role: role, Reason: ReasonRole}
	}
	return Decision{Redirect: area.DeniedPath, Role: role, Reason: ReasonDenied}
}

// RoleOf returns the stored role, falling back to user on any failure.
func (r *Resolver) RoleOf(ctx context.Context, identity *auth.Identity) enums.Role {
	if identity == nil || identity.ID == "" {
		return enums.RoleUser
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()

	raw, err := r.roles.RoleFor(lookupCtx, identity.ID)
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(lookupCtx.Err(), context.DeadlineExceeded) {
			reason = "timeout"
		}
		r.metrics.IncLookupFailure(reason)
		if r.logg != nil {
			r.logg.Warn(r.logg.WithFields(ctx, map[string]any{
				"user_id": identity.ID,
				"reason":  reason,
				"error":   err.Error(),
			}), "access.role_lookup_failed")
		}
		return enums.RoleUser
	}
	return enums.NormalizeRole(raw)
}

// CallbackDestination is where a freshly authenticated identity lands.
func (r *Resolver) CallbackDestination(ctx context.Context, identity *auth.Identity) string {
	if identity == nil || identity.ID == "" {
		return r.areas.Dashboard.SignInPath
	}
	if r.areas.Admin.Permits(r.RoleOf(ctx, identity)) {
		return r.adminHome
	}
	return r.userHome
}
