package authactions

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/autoflexeasy/autoflex-backend/pkg/enums"
	pkgerrors "github.com/autoflexeasy/autoflex-backend/pkg/errors"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
	"github.com/autoflexeasy/autoflex-backend/pkg/mailer"
	"github.com/autoflexeasy/autoflex-backend/pkg/supabase"
)

const (
	msgEmailRequired = "email is required"
	msgEmailInvalid  = "email is invalid"
)

// LinkGenerator is the admin generate_link endpoint of the auth provider.
type LinkGenerator interface {
	GenerateLink(ctx context.Context, params supabase.GenerateLinkParams) (*supabase.GeneratedLink, error)
}

type ServiceParams struct {
	Links           LinkGenerator
	Mailer          mailer.Sender
	DefaultRedirect string
	Logger          *logger.Logger
}

// Service triggers invite, magic-link and recovery flows for an email address.
type Service struct {
	links           LinkGenerator
	mailer          mailer.Sender
	defaultRedirect string
	logg            *logger.Logger
	validate        *validator.Validate
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Links == nil {
		return nil, errors.New("link generator is required")
	}
	if params.DefaultRedirect == "" {
		return nil, errors.New("default redirect is required")
	}
	return &Service{
		links:           params.Links,
		mailer:          params.Mailer,
		defaultRedirect: params.DefaultRedirect,
		logg:            params.Logger,
		validate:        validator.New(),
	}, nil
}

// Request is the input shared by every action.
type Request struct {
	Email      string `json:"email"`
	RedirectTo string `json:"redirectTo"`
}

// Result is the {ok, error?} envelope returned to callers.
type Result struct {
	OK     bool   `json:"ok"`
	UserID string `json:"userId,omitempty"`
	Link   string `json:"link,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Invite creates the identity if needed and returns its id.
func (s *Service) Invite(ctx context.Context, req Request) (Result, error) {
	link, err := s.generate(ctx, enums.LinkTypeInvite, req, true)
	if err != nil {
		return Result{}, err
	}
	return Result{OK: true, UserID: link.UserID}, nil
}

// MagicLink returns a one-time sign-in link.
func (s *Service) MagicLink(ctx context.Context, req Request) (Result, error) {
	link, err := s.generate(ctx, enums.LinkTypeMagicLink, req, false)
	if err != nil {
		return Result{}, err
	}
	return Result{OK: true, Link: link.ActionLink}, nil
}

// Recovery returns a password recovery link.
func (s *Service) Recovery(ctx context.Context, req Request) (Result, error) {
	link, err := s.generate(ctx, enums.LinkTypeRecovery, req, true)
	if err != nil {
		return Result{}, err
	}
	return Result{OK: true, Link: link.ActionLink}, nil
}

// Run dispatches by link type.
func (s *Service) Run(ctx context.Context, kind enums.LinkType, req Request) (Result, error) {
	switch kind {
	case enums.LinkTypeInvite:
		return s.Invite(ctx, req)
	case enums.LinkTypeMagicLink:
		return s.MagicLink(ctx, req)
	case enums.LinkTypeRecovery:
		return s.Recovery(ctx, req)
	}
	return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown link type")
}

// generate validates input, calls the provider and optionally emails the link.
// rejectAsInput marks provider 4xx answers as caller errors instead of upstream failures.
func (s *Service) generate(ctx context.Context, kind enums.LinkType, req Request, rejectAsInput bool) (*supabase.GeneratedLink, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgEmailRequired)
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgEmailInvalid)
	}
	redirect, err := s.redirectFor(req.RedirectTo)
	if err != nil {
		return nil, err
	}

	link, err := s.links.GenerateLink(ctx, supabase.GenerateLinkParams{
		Type:       kind.String(),
		Email:      email,
		RedirectTo: redirect,
	})
	if err != nil {
		if apiErr, ok := supabase.AsAPIError(err); ok && apiErr.IsClientError() {
			if rejectAsInput {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, apiErr.Message)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, apiErr.Message)
		}
		if _, ok := supabase.AsAPIError(err); ok {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "auth provider unavailable")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to generate link")
	}

	s.deliver(ctx, kind, email, link)
	return link, nil
}

func (s *Service) redirectFor(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.defaultRedirect, nil
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || (u.Scheme != "https" && u.Scheme != "http") {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "redirectTo must be an absolute http(s) url")
	}
	return raw, nil
}

func (s *Service) deliver(ctx context.Context, kind enums.LinkType, email string, link *supabase.GeneratedLink) {
	if s.mailer == nil || link.ActionLink == "" {
		return
	}
	err := s.mailer.SendAuthLink(ctx, mailer.AuthLink{To: email, Type: kind, URL: link.ActionLink})
	if err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithField(ctx, "link_type", kind.String()), "authactions.delivery_failed", err)
	}
}
