package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/ical"
)

func (a *App) importCmd() *cobra.Command {
	var (
		dryRun  bool
		maxOccs int
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "import <calendar.ics>",
		Short: "Import bookings from an iCalendar file",
		Long: `Import the events of an iCalendar file that fall in the timeline year.

Events are placed on the member named by X-ROTA-OWNER, or on the shared track
when the property is missing. Recurring events are expanded, up to --max
occurrences each. Events that were already imported are skipped, so the same
file can be imported again after it changed. Owners whose lanes are all busy
get a new lane.`,
		Example: `  rota import team.ics
  rota import holidays.ics --dry-run
  rota import --year 2026 standups.ics --max 100`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolvePath(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening calendar: %w", err)
			}
			defer func() { _ = f.Close() }()

			if err := a.ensureStore(); err != nil {
				return err
			}
			ctx := cmd.Context()
			opts := ical.ImportOptions{
				Year:           a.config.TimelineYear(),
				MaxOccurrences: maxOccs,
				DryRun:         dryRun,
			}
			report, err := ical.Import(ctx, a.store, f, opts)
			if err != nil {
				return fmt.Errorf("importing %s: %w", filepath.Base(path), err)
			}
			a.log.Debug(ctx, "calendar imported", "path", path, "created", len(report.Created),
				"skipped", len(report.Skipped), "dry_run", dryRun)

			members, err := a.store.ListMembers(ctx)
			if err != nil {
				return err
			}
			names := map[string]string{"": "Shared"}
			for _, m := range members {
				names[m.ID] = m.Name
			}
			printImportReport(cmd.OutOrStdout(), report, names, dryRun, verbose)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would be imported without writing")
	cmd.Flags().IntVar(&maxOccs, "max", ical.DefaultMaxOccurrences, "Maximum occurrences per recurring event")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every imported booking")

	return cmd
}

func printImportReport(w io.Writer, r ical.Report, names map[string]string, dryRun, verbose bool) {
	verb := "Imported"
	if dryRun {
		verb = "Would import"
	}
	fmt.Fprintf(w, "%s %s", formatOK(verb), plural(len(r.Created), "booking"))
	if first, end, ok := r.Window(); ok {
		fmt.Fprintf(w, " (%s)", formatRange(first, end))
	}
	fmt.Fprintln(w)

	if verbose || dryRun {
		for _, b := range r.Created {
			PrintBookingRow(w, b, names[b.OwnerID])
		}
	}
	for owner, n := range r.Lanes {
		fmt.Fprintf(w, "  %s now has %s\n", names[owner], plural(n, "lane"))
	}
	for _, uid := range r.Truncated {
		fmt.Fprintf(w, "%s %s has more occurrences than the limit\n", formatWarn("Truncated"), uid)
	}
	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "%s %s\n", formatWarn("Skipped"), plural(len(r.Skipped), "event"))
		for _, s := range r.Skipped {
			fmt.Fprintf(w, "  %s\n", formatMuted(s.String()))
		}
	}
}

func (a *App) exportCmd() *cobra.Command {
	var (
		owner  string
		shared bool
	)

	cmd := &cobra.Command{
		Use:   "export [file.ics]",
		Short: "Export bookings as an iCalendar file",
		Long: `Export the bookings of the timeline year as all-day events. The owner,
lane and kind of each booking are kept in X-ROTA-* properties so the file
can be imported again. Without a file, or with "-", the calendar is written
to standard output.`,
		Example: `  rota export team.ics
  rota export --owner alice | mail -s "My bookings" alice@example.com
  rota export --shared releases.ics`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}
			ctx := cmd.Context()
			snap, err := a.store.LoadSnapshot(ctx, a.config.TimelineYear())
			if err != nil {
				return fmt.Errorf("loading timeline: %w", err)
			}

			opts := ical.ExportOptions{SharedOnly: shared}
			if owner != "" {
				if opts.Owner, err = snapshotOwner(snap, owner); err != nil {
					return err
				}
			}

			var file *os.File
			out := cmd.OutOrStdout()
			if len(args) == 1 && args[0] != "-" {
				path, err := resolvePath(args[0])
				if err != nil {
					return err
				}
				if file, err = os.Create(path); err != nil {
					return fmt.Errorf("creating calendar: %w", err)
				}
				defer func() { _ = file.Close() }()
				out = file
			}

			n, err := ical.Export(out, snap, opts)
			if err != nil {
				return fmt.Errorf("exporting calendar: %w", err)
			}
			if n == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s no bookings in %s\n", formatWarn("Note:"), yearRange(snap.Year))
			}
			if file == nil {
				return nil
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("writing calendar: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s to %s\n", formatOK("Exported"), plural(n, "booking"), file.Name())
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Only bookings of this member")
	cmd.Flags().BoolVar(&shared, "shared", false, "Only bookings of the shared track")
	cmd.MarkFlagsMutuallyExclusive("owner", "shared")

	return cmd
}

// snapshotOwner resolves a member name or ID against a snapshot.
func snapshotOwner(snap booking.Snapshot, ref string) (string, error) {
	for _, m := range snap.Members {
		if m.ID == ref || strings.EqualFold(m.Name, strings.TrimSpace(ref)) {
			return m.ID, nil
		}
	}
	return "", fmt.Errorf("%q: %w", ref, booking.ErrMemberNotFound)
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	return absPath, nil
}

// yearRange is the window of the timeline year, used to describe empty exports.
func yearRange(year int) string {
	return formatRange(dateutil.YearStart(year), dateutil.YearStart(year+1))
}
