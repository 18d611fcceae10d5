package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	apptill "github.com/shoppos/backend/internal/application/till"
	"github.com/spf13/cobra"
)

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return &d, nil
}

func newStatusCommand(deps Deps, opts *options) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the business day and its reconciliation session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shopID, err := opts.shopID()
			if err != nil {
				return err
			}
			on, err := parseDate(date)
			if err != nil {
				return err
			}
			return withServices(cmd, deps, func(svc *Services) error {
				ctx := cmd.Context()
				var day *apptill.BusinessDayResponse
				if on == nil {
					day, err = svc.Days.CurrentFor(ctx, shopID)
				} else {
					day, err = svc.Days.Get(ctx, shopID, *on)
				}
				if err != nil {
					return err
				}
				session, err := svc.Recon.Get(ctx, shopID, on)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"day": day, "session": session})
				}
				printStatus(cmd.OutOrStdout(), day, session)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "business date (YYYY-MM-DD), default today")
	return cmd
}

func newOpenCommand(deps Deps, opts *options) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open today's business day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shopID, err := opts.shopID()
			if err != nil {
				return err
			}
			actor, err := opts.actor()
			if err != nil {
				return err
			}
			return withServices(cmd, deps, func(svc *Services) error {
				day, err := svc.Days.Open(cmd.Context(), apptill.OpenDayRequest{ShopID: shopID, By: actor.UserID, Notes: notes})
				if err != nil {
					return err
				}
				return printDay(cmd, opts, day)
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "opening notes")
	return cmd
}

func newCloseCommand(deps Deps, opts *options) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "close",
		Short: "Close today's business day without reconciling",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shopID, err := opts.shopID()
			if err != nil {
				return err
			}
			actor, err := opts.actor()
			if err != nil {
				return err
			}
			return withServices(cmd, deps, func(svc *Services) error {
				day, err := svc.Days.Close(cmd.Context(), apptill.CloseDayRequest{ShopID: shopID, By: actor.UserID, Notes: notes})
				if err != nil {
					return err
				}
				return printDay(cmd, opts, day)
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "closing notes")
	return cmd
}

func newStartCommand(deps Deps, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start today's end-of-day reconciliation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shopID, err := opts.shopID()
			if err != nil {
				return err
			}
			actor, err := opts.actor()
			if err != nil {
				return err
			}
			return withServices(cmd, deps, func(svc *Services) error {
				session, err := svc.Recon.Start(cmd.Context(), shopID, actor)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return writeJSON(cmd.OutOrStdout(), session)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", session.BusinessDate, session.Status)
				return nil
			})
		},
	}
}

func newCompleteCommand(deps Deps, opts *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Complete a started end of day: archive every count sheet and close the day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shopID, err := opts.shopID()
			if err != nil {
				return err
			}
			actor, err := opts.actor()
			if err != nil {
				return err
			}
			return withServices(cmd, deps, func(svc *Services) error {
				resp, err := svc.Recon.Complete(cmd.Context(), apptill.CompleteReconciliationRequest{
					ShopID: shopID,
					Actor:  actor,
					Force:  force,
				})
				if err != nil {
					return err
				}
				if opts.asJSON {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				out := cmd.OutOrStdout()
				printStatus(out, &resp.Day, &resp.Session)
				fmt.Fprintln(out)
				printArchives(out, resp.Archives)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "complete even when count sheets are still pending")
	return cmd
}

func newArchivesCommand(deps Deps, opts *options) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "archives",
		Short: "List the archived count sheets of a business day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shopID, err := opts.shopID()
			if err != nil {
				return err
			}
			on, err := parseDate(date)
			if err != nil {
				return err
			}
			return withServices(cmd, deps, func(svc *Services) error {
				day := svc.Days.Today()
				if on != nil {
					day = *on
				}
				archives, err := svc.Recon.ArchivesForDay(cmd.Context(), shopID, day)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return writeJSON(cmd.OutOrStdout(), archives)
				}
				printArchives(cmd.OutOrStdout(), archives)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "business date (YYYY-MM-DD), default today")
	return cmd
}

func newReportCommand(deps Deps, opts *options) *cobra.Command {
	var (
		date string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print download links for a day's exported Z-report and archive snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shopID, err := opts.shopID()
			if err != nil {
				return err
			}
			on, err := parseDate(date)
			if err != nil {
				return err
			}
			return withServices(cmd, deps, func(svc *Services) error {
				if svc.Links == nil {
					return fmt.Errorf("object storage is not enabled")
				}
				day := svc.Days.Today()
				if on != nil {
					day = *on
				}
				prefix := apptill.ExportKeyPrefix(shopID, day)
				type link struct {
					Key       string    `json:"key"`
					URL       string    `json:"url"`
					ExpiresAt time.Time `json:"expires_at"`
				}
				var links []link
				for _, name := range []string{"z-report.pdf", "archive.json"} {
					url, expiresAt, err := svc.Links.DownloadURL(cmd.Context(), prefix+name, ttl)
					if err != nil {
						return err
					}
					links = append(links, link{Key: prefix + name, URL: url, ExpiresAt: expiresAt})
				}
				if opts.asJSON {
					return writeJSON(cmd.OutOrStdout(), links)
				}
				for _, l := range links {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\n  %s\n", l.Key, l.URL)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "business date (YYYY-MM-DD), default today")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "link lifetime, default from storage.presign_expiration")
	return cmd
}

func printDay(cmd *cobra.Command, opts *options, day *apptill.BusinessDayResponse) error {
	if opts.asJSON {
		return writeJSON(cmd.OutOrStdout(), day)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", day.Date, day.Status)
	return nil
}

func printStatus(w io.Writer, day *apptill.BusinessDayResponse, session *apptill.SessionResponse) {
	fmt.Fprintf(w, "Day        %s %s", day.Date, day.Status)
	if day.CarriedForward {
		fmt.Fprint(w, " (carried forward)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Session    %s", session.Status)
	if session.Forced {
		fmt.Fprint(w, " (forced)")
	}
	fmt.Fprintf(w, ", %d sheets, %d archived\n", session.SheetCount, session.ArchivedCount)
	if len(session.Totals) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Currency\tExpected\tCounted\tVariance\t")
	for _, t := range session.Totals {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", t.Currency, t.Expected.StringFixed(2), t.Counted.StringFixed(2), t.Variance.StringFixed(2))
	}
	_ = tw.Flush()
}

func printArchives(w io.Writer, archives []apptill.ArchiveResponse) {
	if len(archives) == 0 {
		fmt.Fprintln(w, "No archives")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CASHIER\tSHEET\tSTATUS\tCURRENCY\tEXPECTED\tCOUNTED\tVARIANCE")
	for _, a := range archives {
		for _, l := range a.Lines {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				a.CashierID, a.SheetStatus, l.Status, l.Currency,
				l.Expected.StringFixed(2), l.Counted.StringFixed(2), l.Variance.StringFixed(2))
		}
	}
	_ = tw.Flush()
}
