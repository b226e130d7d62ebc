package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/autoflexeasy/autoflex-backend/internal/access"
	"github.com/autoflexeasy/autoflex-backend/internal/admin"
	"github.com/autoflexeasy/autoflex-backend/internal/authactions"
	"github.com/autoflexeasy/autoflex-backend/internal/mirror"
	"github.com/autoflexeasy/autoflex-backend/pkg/auth"
	"github.com/autoflexeasy/autoflex-backend/pkg/enums"
)

// BillingOverview produces the admin dashboard numbers and subscription table.
type BillingOverview interface {
	Dashboard(ctx context.Context) admin.Dashboard
}

// AccessChecker evaluates guard decisions for an identity.
type AccessChecker interface {
	Areas() access.Areas
	Resolve(ctx context.Context, identity *auth.Identity, area access.Area) access.Decision
	RoleOf(ctx context.Context, identity *auth.Identity) enums.Role
}

// LinkRunner triggers invite, magic-link and recovery flows.
type LinkRunner interface {
	Run(ctx context.Context, kind enums.LinkType, req authactions.Request) (authactions.Result, error)
}

// MirrorSyncer refreshes the local billing mirror.
type MirrorSyncer interface {
	SyncAll(ctx context.Context) (mirror.Result, error)
}

// Deps are the services a command may need. Nil members are reported as
// unavailable when a command asks for them.
type Deps struct {
	Billing BillingOverview
	Access  AccessChecker
	Links   LinkRunner
	Mirror  MirrorSyncer
}

// Loader builds Deps on demand and returns a cleanup func.
type Loader func(ctx context.Context) (*Deps, func(), error)

type app struct {
	load Loader
	out  io.Writer
}

// NewRootCommand assembles the flexctl command tree.
func NewRootCommand(load Loader, out io.Writer) *cobra.Command {
	if out == nil {
		out = os.Stdout
	}
	a := &app{load: load, out: out}

	root := &cobra.Command{
		Use:           "flexctl",
		Short:         "AutoFlex Easy operator tool",
		Long:          `flexctl inspects billing, checks access decisions, sends auth links and refreshes the Stripe mirror.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.AddCommand(a.billingCmd(), a.accessCmd(), a.linksCmd(), a.mirrorCmd())
	return root
}

func (a *app) withDeps(cmd *cobra.Command, fn func(ctx context.Context, deps *Deps) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.load == nil {
		return errors.New("no dependency loader configured")
	}
	deps, cleanup, err := a.load(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}
	return fn(ctx, deps)
}

func (a *app) billingCmd() *cobra.Command {
	billingCmd := &cobra.Command{
		Use:   "billing",
		Short: "Inspect the subscription mirror",
	}
	billingCmd.AddCommand(&cobra.Command{
		Use:   "summary",
		Short: "Print user count, active subscriptions, MRR and the subscription table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDeps(cmd, func(ctx context.Context, deps *Deps) error {
				if deps.Billing == nil {
					return errors.New("billing service unavailable")
				}
				renderSummary(a.out, deps.Billing.Dashboard(ctx))
				return nil
			})
		},
	})
	return billingCmd
}

func renderSummary(w io.Writer, summary admin.Dashboard) {
	printTitle(w, "Billing summary")
	printField(w, "Users", strconv.FormatInt(summary.Metrics.UserCount, 10))
	printField(w, "Active subscriptions", strconv.FormatInt(summary.Metrics.ActiveCount, 10))
	printField(w, "Monthly recurring", summary.Metrics.MonthlyRecurring.String())
	fmt.Fprintln(w)

	if len(summary.Subscriptions) == 0 {
		printWarn(w, "no subscriptions mirrored yet")
		return
	}
	rows := make([][]string, 0, len(summary.Subscriptions))
	for _, row := range summary.Subscriptions {
		rows = append(rows, []string{row.Email, row.Plan, row.Status, row.RenewsOn, row.Amount.String()})
	}
	printTable(w, []string{"EMAIL", "PLAN", "STATUS", "RENEWS", "AMOUNT"}, rows)
}

func (a *app) accessCmd() *cobra.Command {
	var area string
	var email string

	accessCmd := &cobra.Command{
		Use:   "access",
		Short: "Evaluate guard decisions",
	}
	checkCmd := &cobra.Command{
		Use:   "check <user-id>",
		Short: "Show the role and guard decision for an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDeps(cmd, func(ctx context.Context, deps *Deps) error {
				if deps.Access == nil {
					return errors.New("access resolver unavailable")
				}
				target, err := pickArea(deps.Access.Areas(), area)
				if err != nil {
					return err
				}
				identity := &auth.Identity{ID: args[0], Email: email}
				role := deps.Access.RoleOf(ctx, identity)
				renderDecision(a.out, target, role, deps.Access.Resolve(ctx, identity, target))
				return nil
			})
		},
	}
	checkCmd.Flags().StringVar(&area, "area", access.AreaAdmin, "guarded area: admin or dashboard")
	checkCmd.Flags().StringVar(&email, "email", "", "optional email for log context")
	accessCmd.AddCommand(checkCmd)
	return accessCmd
}

func pickArea(areas access.Areas, name string) (access.Area, error) {
	switch name {
	case access.AreaAdmin:
		return areas.Admin, nil
	case access.AreaDashboard:
		return areas.Dashboard, nil
	default:
		return access.Area{}, fmt.Errorf("unknown area %q", name)
	}
}

func renderDecision(w io.Writer, area access.Area, role enums.Role, decision access.Decision) {
	printTitle(w, "Access check: "+area.Name)
	roleLabel := string(role)
	if roleLabel == "" {
		roleLabel = "(none)"
	}
	printField(w, "Role", roleLabel)
	printField(w, "Reason", decision.Reason)
	if decision.Allowed {
		printOK(w, "allowed")
		return
	}
	printFail(w, "denied, redirect to %s", decision.Redirect)
}

func (a *app) linksCmd() *cobra.Command {
	var redirect string

	linksCmd := &cobra.Command{
		Use:   "links",
		Short: "Send auth links to an email address",
	}
	linksCmd.PersistentFlags().StringVar(&redirect, "redirect", "", "override the redirect URL")

	for _, entry := range []struct {
		use  string
		kind enums.LinkType
	}{
		{"invite", enums.LinkTypeInvite},
		{"magic", enums.LinkTypeMagicLink},
		{"recovery", enums.LinkTypeRecovery},
	} {
		kind := entry.kind
		linksCmd.AddCommand(&cobra.Command{
			Use:   entry.use + " <email>",
			Short: "Generate a " + kind.String() + " link",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withDeps(cmd, func(ctx context.Context, deps *Deps) error {
					if deps.Links == nil {
						return errors.New("auth link service unavailable")
					}
					res, err := deps.Links.Run(ctx, kind, authactions.Request{Email: args[0], RedirectTo: redirect})
					if err != nil {
						printFail(a.out, "%s failed: %v", kind, err)
						return err
					}
					renderLink(a.out, kind, res)
					return nil
				})
			},
		})
	}
	return linksCmd
}

func renderLink(w io.Writer, kind enums.LinkType, res authactions.Result) {
	printOK(w, "%s link generated", kind)
	if res.UserID != "" {
		printField(w, "User", res.UserID)
	}
	if res.Link != "" {
		printField(w, "Link", res.Link)
	}
}

func (a *app) mirrorCmd() *cobra.Command {
	mirrorCmd := &cobra.Command{
		Use:   "mirror",
		Short: "Manage the Stripe mirror tables",
	}
	mirrorCmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Copy every price and subscription from Stripe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDeps(cmd, func(ctx context.Context, deps *Deps) error {
				if deps.Mirror == nil {
					return errors.New("mirror syncer unavailable")
				}
				res, err := deps.Mirror.SyncAll(ctx)
				printField(a.out, "Prices", strconv.Itoa(res.Prices))
				printField(a.out, "Subscriptions", strconv.Itoa(res.Subscriptions))
				if err != nil {
					printWarn(a.out, "sync finished with errors: %v", err)
					return err
				}
				printOK(a.out, "mirror up to date")
				return nil
			})
		},
	})
	return mirrorCmd
}
