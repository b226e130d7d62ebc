// Package mailer delivers auth links over Postmark.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/mrz1836/postmark"

	"github.com/autoflexeasy/autoflex-backend/pkg/config"
	"github.com/autoflexeasy/autoflex-backend/pkg/enums"
)

var ErrSendFailed = errors.New("mailer: send failed")

// AuthLink is one generated link addressed to a recipient.
type AuthLink struct {
	To   string
	Type enums.LinkType
	URL  string
}

// Sender delivers auth links.
type Sender interface {
	SendAuthLink(ctx context.Context, link AuthLink) error
}

type postmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// Postmark sends auth links through the Postmark transactional API.
type Postmark struct {
	api      postmarkAPI
	from     string
	replyTo  string
	siteName string
}

// NewPostmark returns nil when Postmark is not configured.
func NewPostmark(cfg config.PostmarkConfig, siteName string) (*Postmark, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("postmark sender address is required")
	}
	return &Postmark{
		api:      postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		from:     cfg.From,
		replyTo:  cfg.ReplyTo,
		siteName: siteName,
	}, nil
}

func (p *Postmark) SendAuthLink(ctx context.Context, link AuthLink) error {
	if link.To == "" || link.URL == "" {
		return fmt.Errorf("%w: recipient and url are required", ErrSendFailed)
	}
	subject, action := copyFor(link.Type, p.siteName)

	resp, err := p.api.SendEmail(ctx, postmark.Email{
		From:       p.from,
		ReplyTo:    p.replyTo,
		To:         link.To,
		Subject:    subject,
		Tag:        "auth-" + link.Type.String(),
		HTMLBody:   renderHTML(action, link.URL),
		TextBody:   action + ": " + link.URL,
		TrackOpens: false,
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrSendFailed, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

func copyFor(kind enums.LinkType, site string) (subject, action string) {
	switch kind {
	case enums.LinkTypeInvite:
		return "You have been invited to " + site, "Accept your invitation"
	case enums.LinkTypeRecovery:
		return "Reset your " + site + " password", "Reset your password"
	default:
		return "Your " + site + " sign-in link", "Sign in"
	}
}

func renderHTML(action, url string) string {
	return fmt.Sprintf(`<p><a href="%s">%s</a></p><p>If you did not request this email you can ignore it.</p>`,
		html.EscapeString(url), html.EscapeString(action))
}
