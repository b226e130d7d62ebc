package admin

import (
	"context"
	"errors"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/autoflexeasy/autoflex-backend/internal/billing"
	"github.com/autoflexeasy/autoflex-backend/pkg/db/models"
	"github.com/autoflexeasy/autoflex-backend/pkg/enums"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
	appmetrics "github.com/autoflexeasy/autoflex-backend/pkg/metrics"
	"github.com/autoflexeasy/autoflex-backend/pkg/supabase"
)

const (
	emailDirectoryPageSize = 100
	recentUsersPageSize    = 25
)

// Directory lists identities from the auth provider.
type Directory interface {
	ListUsers(ctx context.Context, page, perPage int) ([]supabase.User, error)
}

// UserStore reads the local role mirror.
type UserStore interface {
	Count(ctx context.Context) (int64, error)
	RolesFor(ctx context.Context, ids []string) (map[string]string, error)
	Recent(ctx context.Context, limit int) ([]models.User, error)
}

// BillingSource loads the subscription mirror.
type BillingSource interface {
	Snapshot(ctx context.Context) billing.Snapshot
	Options(emails map[string]string) billing.RowOptions
}

type ServiceParams struct {
	Directory Directory
	Users     UserStore
	Billing   BillingSource
	Logger    *logger.Logger
	Metrics   *appmetrics.SourceMetrics
}

// Service composes the admin back-office views.
type Service struct {
	directory Directory
	users     UserStore
	billing   BillingSource
	logg      *logger.Logger
	metrics   *appmetrics.SourceMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Directory == nil {
		return nil, errors.New("directory is required")
	}
	if params.Users == nil {
		return nil, errors.New("user store is required")
	}
	if params.Billing == nil {
		return nil, errors.New("billing source is required")
	}
	return &Service{
		directory: params.Directory,
		users:     params.Users,
		billing:   params.Billing,
		logg:      params.Logger,
		metrics:   params.Metrics,
	}, nil
}

// UserRow is one entry of the recent users list.
type UserRow struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Role         enums.Role `json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastSignInAt *time.Time `json:"lastSignInAt,omitempty"`
}

// Dashboard is the admin landing view.
type Dashboard struct {
	Metrics       billing.Metrics `json:"metrics"`
	Subscriptions []billing.Row   `json:"subscriptions"`
	RecentUsers   []UserRow       `json:"recentUsers"`
}

// Dashboard loads every source concurrently. Each one degrades to empty on failure.
func (s *Service) Dashboard(ctx context.Context) Dashboard {
	var (
		count  int64
		snap   billing.Snapshot
		emails map[string]string
		recent []supabase.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.users.Count(gctx)
		if err != nil {
			s.degrade(ctx, "users_count", err)
			return nil
		}
		count = n
		return nil
	})
	g.Go(func() error {
		snap = s.billing.Snapshot(gctx)
		return nil
	})
	g.Go(func() error {
		emails = s.emailDirectory(gctx)
		return nil
	})
	g.Go(func() error {
		recent = s.listRecent(gctx)
		return nil
	})
	_ = g.Wait()

	summary := billing.Aggregate(snap, s.billing.Options(emails))
	summary.Metrics.UserCount = count
	return Dashboard{
		Metrics:       summary.Metrics,
		Subscriptions: summary.Rows,
		RecentUsers:   s.withRoles(ctx, recent),
	}
}

// SubscriptionTable returns the subscription rows with owner emails resolved.
func (s *Service) SubscriptionTable(ctx context.Context) billing.Summary {
	var (
		snap   billing.Snapshot
		emails map[string]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap = s.billing.Snapshot(gctx)
		return nil
	})
	g.Go(func() error {
		emails = s.emailDirectory(gctx)
		return nil
	})
	_ = g.Wait()
	return billing.Aggregate(snap, s.billing.Options(emails))
}

// RecentUsers returns the newest identities with their stored roles.
func (s *Service) RecentUsers(ctx context.Context) []UserRow {
	return s.withRoles(ctx, s.listRecent(ctx))
}

func (s *Service) emailDirectory(ctx context.Context) map[string]string {
	users, err := s.directory.ListUsers(ctx, 1, emailDirectoryPageSize)
	if err != nil {
		s.degrade(ctx, "auth_directory", err)
		return map[string]string{}
	}
	out := make(map[string]string, len(users))
	for _, u := range users {
		if u.Email != "" {
			out[u.ID] = u.Email
		}
	}
	return out
}

func (s *Service) listRecent(ctx context.Context) []supabase.User {
	users, err := s.directory.ListUsers(ctx, 1, recentUsersPageSize)
	if err != nil {
		s.degrade(ctx, "auth_recent_users", err)
		return s.mirroredRecent(ctx)
	}
	slices.SortStableFunc(users, func(a, b supabase.User) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return users
}

// mirroredRecent lists the newest role-mirror rows when the auth directory is
// unreachable. Emails are unknown there and stay empty.
func (s *Service) mirroredRecent(ctx context.Context) []supabase.User {
	rows, err := s.users.Recent(ctx, recentUsersPageSize)
	if err != nil {
		s.degrade(ctx, "users_recent", err)
		return nil
	}
	out := make([]supabase.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, supabase.User{ID: row.ID, CreatedAt: row.CreatedAt})
	}
	return out
}

func (s *Service) withRoles(ctx context.Context, users []supabase.User) []UserRow {
	rows := make([]UserRow, 0, len(users))
	if len(users) == 0 {
		return rows
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	roles, err := s.users.RolesFor(ctx, ids)
	if err != nil {
		s.degrade(ctx, "users_roles", err)
		roles = nil
	}
	for _, u := range users {
		rows = append(rows, UserRow{
			ID:           u.ID,
			Email:        u.Email,
			Role:         enums.NormalizeRole(roles[u.ID]),
			CreatedAt:    u.CreatedAt,
			LastSignInAt: u.LastSignInAt,
		})
	}
	return rows
}

func (s *Service) degrade(ctx context.Context, source string, err error) {
	s.metrics.IncFailure(source)
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"source": source,
		"error":  err.Error(),
	}), "admin.source_failed")
}
