// Package cli implements eodctl, the operator command line for a shop's
// business day and end-of-day reconciliation.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	apptill "github.com/shoppos/backend/internal/application/till"
	"github.com/shoppos/backend/internal/domain/staff"
	"github.com/shoppos/backend/internal/infrastructure/auth"
	"github.com/spf13/cobra"
)

// Services are the application services the day commands drive. Links is
// nil when object storage is disabled.
type Services struct {
	Days  *apptill.BusinessDayService
	Recon *apptill.ReconciliationService
	Links DownloadLinker
}

// DownloadLinker presigns links to exported objects
type DownloadLinker interface {
	DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// Deps opens what the commands need. Open is called once per command that
// touches the ledger; close releases it.
type Deps struct {
	Open   func(ctx context.Context) (svc *Services, close func(), err error)
	Tokens func() (*auth.JWTService, error)
}

type options struct {
	shop   string
	user   string
	asJSON bool
}

// NewRootCommand creates eodctl with every subcommand registered
func NewRootCommand(deps Deps, version string) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:     "eodctl",
		Short:   "Operate a shop's business day and end-of-day reconciliation",
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.shop, "shop", "", "shop ID (required)")
	root.PersistentFlags().StringVar(&opts.user, "user", "", "operator user ID recorded on changes")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of text")

	root.AddCommand(
		newStatusCommand(deps, opts),
		newOpenCommand(deps, opts),
		newCloseCommand(deps, opts),
		newStartCommand(deps, opts),
		newCompleteCommand(deps, opts),
		newArchivesCommand(deps, opts),
		newReportCommand(deps, opts),
		newTokenCommand(deps, opts),
	)
	return root
}

func (o *options) shopID() (uuid.UUID, error) {
	if o.shop == "" {
		return uuid.Nil, fmt.Errorf("--shop is required")
	}
	id, err := uuid.Parse(o.shop)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --shop %q: %w", o.shop, err)
	}
	return id, nil
}

// actor is the operator acting as owner. Changes need --user so the
// ledger records who made them.
func (o *options) actor() (apptill.Actor, error) {
	if o.user == "" {
		return apptill.Actor{}, fmt.Errorf("--user is required for this command")
	}
	id, err := uuid.Parse(o.user)
	if err != nil {
		return apptill.Actor{}, fmt.Errorf("invalid --user %q: %w", o.user, err)
	}
	return apptill.Actor{UserID: id, Role: staff.RoleOwner}, nil
}

// withServices opens the services for the duration of fn
func withServices(cmd *cobra.Command, deps Deps, fn func(svc *Services) error) error {
	svc, closeFn, err := deps.Open(cmd.Context())
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer closeFn()
	return fn(svc)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
