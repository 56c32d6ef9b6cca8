package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/engine"
)

func (a *App) bookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "book",
		Aliases: []string{"b"},
		Short:   "Create and change bookings",
	}
	cmd.AddCommand(a.bookAddCmd())
	cmd.AddCommand(a.bookListCmd())
	cmd.AddCommand(a.bookShowCmd())
	cmd.AddCommand(a.bookEditCmd())
	cmd.AddCommand(a.bookMoveCmd())
	cmd.AddCommand(a.bookResizeCmd())
	cmd.AddCommand(a.bookTransferCmd())
	cmd.AddCommand(a.bookDeleteCmd())
	return cmd
}

func (a *App) bookAddCmd() *cobra.Command {
	var (
		owner   string
		start   string
		end     string
		days    int
		lane    int
		color   string
		link    string
		comment string
		leave   bool
	)

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a booking",
		Long: `Add a booking to a member or to the shared track.

--end is the last day of the booking. Without --lane the booking takes the
lowest free lane, and the owner gets a new lane when every lane is busy.
With --leave the title and color default to the leave preset.`,
		Example: `  rota book add "Design review" --owner alice --start 2025-03-03 --end 2025-03-05
  rota book add "Release" --start 2025-06-02 --days 1
  rota book add --leave --owner bob --start 2025-08-04 --days 10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			ownerID, err := s.owner(owner)
			if err != nil {
				return err
			}

			first, err := dateutil.ParseDate(start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			stop, err := endDate(first, end, days)
			if err != nil {
				return err
			}

			nb := engine.NewBooking{
				OwnerID: ownerID,
				Start:   first,
				End:     stop,
				Color:   color,
				Link:    link,
				Comment: comment,
				Kind:    booking.KindRegular,
			}
			if len(args) == 1 {
				nb.Title = args[0]
			}
			if leave {
				nb.Kind = booking.KindLeave
				if nb.Title == "" {
					nb.Title = a.config.Leave.Title
				}
				if nb.Color == "" {
					nb.Color = a.config.Leave.Color
				}
			}
			if nb.Title == "" {
				return booking.ErrEmptyTitle
			}

			if lane >= 0 {
				nb.Lane = lane
			} else if nb.Lane, err = a.pickLane(cmd, s, nb); err != nil {
				return err
			}

			var created booking.Booking
			if err := s.do(func() error {
				var err error
				created, err = s.engine.Create(nb)
				return err
			}); err != nil {
				return fmt.Errorf("creating booking: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s booking %s\n", formatOK("Created"), formatMuted(shortID(created.ID)))
			PrintBookingRow(cmd.OutOrStdout(), created, s.ownerName(created.OwnerID))
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Member name or ID (default: shared track)")
	cmd.Flags().StringVar(&start, "start", "", "First day (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVar(&end, "end", "", "Last day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&days, "days", 0, "Length in days, instead of --end")
	cmd.Flags().IntVar(&lane, "lane", -1, "Lane index (default: lowest free lane)")
	cmd.Flags().StringVar(&color, "color", "", "Color as #rrggbb")
	cmd.Flags().StringVar(&link, "link", "", "Link to attach")
	cmd.Flags().StringVar(&comment, "comment", "", "Free text comment")
	cmd.Flags().BoolVar(&leave, "leave", false, "Create leave using the configured preset")
	cmd.MarkFlagsMutuallyExclusive("end", "days")

	return cmd
}

// pickLane finds room for nb, adding a lane to the owner when all are busy.
func (a *App) pickLane(cmd *cobra.Command, s *session, nb engine.NewBooking) (int, error) {
	probe := booking.Booking{OwnerID: nb.OwnerID, Start: nb.Start, End: nb.End}
	if lane, ok := s.freeLane(probe); ok {
		return lane, nil
	}
	if err := s.do(func() error { return s.engine.AddLane(nb.OwnerID) }); err != nil {
		return 0, fmt.Errorf("adding lane: %w", err)
	}
	n := s.engine.LaneCount(nb.OwnerID)
	fmt.Fprintf(cmd.OutOrStdout(), "Every lane of %s is busy, added lane %d\n", s.ownerName(nb.OwnerID), n-1)
	return n - 1, nil
}

// endDate returns the exclusive end for a booking starting on first, given
// either the last day or a length in days.
func endDate(first time.Time, last string, days int) (time.Time, error) {
	switch {
	case days < 0:
		return time.Time{}, fmt.Errorf("--days must be positive, got %d", days)
	case days > 0:
		return dateutil.AddDays(first, days), nil
	case last == "":
		return dateutil.AddDays(first, 1), nil
	}
	t, err := dateutil.ParseDate(last)
	if err != nil {
		return time.Time{}, fmt.Errorf("--end: %w", err)
	}
	if t.Before(first) {
		return time.Time{}, fmt.Errorf("--end %s is before --start %s: %w",
			dateutil.Format(t), dateutil.Format(first), booking.ErrEndBeforeStart)
	}
	return dateutil.AddDays(t, 1), nil
}

func (a *App) bookListCmd() *cobra.Command {
	var (
		owner string
		from  string
		to    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookings",
		Long: `List the bookings of the timeline year, ordered by owner and date.

--from and --to limit the list to bookings touching that range (inclusive).`,
		Example: `  rota book list
  rota book list --owner alice
  rota book list --from 2025-03-01 --to 2025-03-31`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}

			filter := func(booking.Booking) bool { return true }
			if owner != "" {
				id, err := s.owner(owner)
				if err != nil {
					return err
				}
				filter = func(b booking.Booking) bool { return b.OwnerID == id }
			}
			window, err := listWindow(s.engine.Year(), from, to)
			if err != nil {
				return err
			}

			var list []booking.Booking
			for _, b := range s.engine.Bookings() {
				if filter(b) && b.Range().Overlaps(window) {
					list = append(list, b)
				}
			}
			a.printBookings(cmd, s, list)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Only bookings of this member (\"shared\" for the shared track)")
	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day (YYYY-MM-DD)")

	return cmd
}

// listWindow turns optional inclusive bounds into a range within year.
func listWindow(year int, from, to string) (booking.Range, error) {
	window := booking.Range{Start: dateutil.YearStart(year), End: dateutil.YearStart(year + 1)}
	if from != "" {
		t, err := dateutil.ParseDate(from)
		if err != nil {
			return window, fmt.Errorf("--from: %w", err)
		}
		window.Start = t
	}
	if to != "" {
		t, err := dateutil.ParseDate(to)
		if err != nil {
			return window, fmt.Errorf("--to: %w", err)
		}
		window.End = dateutil.AddDays(t, 1)
	}
	if !window.Start.Before(window.End) {
		return window, fmt.Errorf("empty range %s..%s", dateutil.Format(window.Start), dateutil.Format(window.End))
	}
	return window, nil
}

// printBookings prints bookings grouped by owner in directory order.
func (a *App) printBookings(cmd *cobra.Command, s *session, list []booking.Booking) {
	w := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(w, "No bookings found.")
		return
	}

	order := map[string]int{"": -1}
	for i, m := range s.engine.Members() {
		order[m.ID] = i
	}
	slices.SortStableFunc(list, func(x, y booking.Booking) int {
		if d := order[x.OwnerID] - order[y.OwnerID]; d != 0 {
			return d
		}
		if c := x.Start.Compare(y.Start); c != 0 {
			return c
		}
		return x.Lane - y.Lane
	})

	current := "\x00"
	for _, b := range list {
		if b.OwnerID != current {
			if current != "\x00" {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "=== %s ===\n", formatHeader(s.ownerName(b.OwnerID)))
			current = b.OwnerID
		}
		PrintBookingRow(w, b, s.ownerName(b.OwnerID))
	}
}

func (a *App) bookShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <booking>",
		Short: "Show a booking",
		Long:  `Show every field of a booking. The booking is given by ID, ID prefix or title.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			b, err := s.booking(args[0])
			if err != nil {
				return err
			}
			PrintBookingDetail(cmd.OutOrStdout(), b, s.ownerName(b.OwnerID))
			return nil
		},
	}
}

func (a *App) bookEditCmd() *cobra.Command {
	var (
		title   string
		start   string
		end     string
		lane    int
		color   string
		link    string
		comment string
	)

	cmd := &cobra.Command{
		Use:   "edit <booking>",
		Short: "Change the fields of a booking",
		Long: `Change the title, dates, lane, color, link or comment of a booking.
Only the flags given are changed. Use "book transfer" to change the owner.`,
		Example: `  rota book edit "Design review" --title "Design review v2"
  rota book edit 3f2a --end 2025-03-07 --link https://example.com/doc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			b, err := s.booking(args[0])
			if err != nil {
				return err
			}

			f := b.Fields()
			flags := cmd.Flags()
			if flags.Changed("title") {
				f.Title = title
			}
			if flags.Changed("start") {
				if f.Start, err = dateutil.ParseDate(start); err != nil {
					return fmt.Errorf("--start: %w", err)
				}
			}
			if flags.Changed("end") {
				last, err := dateutil.ParseDate(end)
				if err != nil {
					return fmt.Errorf("--end: %w", err)
				}
				f.End = dateutil.AddDays(last, 1)
			}
			if flags.Changed("lane") {
				f.Lane = lane
			}
			if flags.Changed("color") {
				f.Color = color
			}
			if flags.Changed("link") {
				f.Link = link
			}
			if flags.Changed("comment") {
				f.Comment = comment
			}

			if err := s.do(func() error { return s.engine.Update(b.ID, f) }); err != nil {
				return fmt.Errorf("updating booking: %w", err)
			}
			updated, _ := s.engine.Booking(b.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "%s booking %s\n", formatOK("Updated"), formatMuted(shortID(b.ID)))
			PrintBookingRow(cmd.OutOrStdout(), updated, s.ownerName(updated.OwnerID))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&start, "start", "", "New first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "New last day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&lane, "lane", 0, "New lane index")
	cmd.Flags().StringVar(&color, "color", "", "New color as #rrggbb, empty to clear")
	cmd.Flags().StringVar(&link, "link", "", "New link, empty to clear")
	cmd.Flags().StringVar(&comment, "comment", "", "New comment, empty to clear")

	return cmd
}

func (a *App) bookMoveCmd() *cobra.Command {
	var (
		days  int
		lanes int
	)

	cmd := &cobra.Command{
		Use:   "move <booking>",
		Short: "Shift a booking by days or lanes",
		Example: `  rota book move "Design review" --days 7
  rota book move 3f2a --days -2 --lanes 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if days == 0 && lanes == 0 {
				return fmt.Errorf("nothing to do: give --days or --lanes")
			}
			return a.changeBooking(cmd, args[0], "Moved", func(s *session, b booking.Booking) error {
				return s.engine.Move(b.ID, days, lanes)
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Days to shift, negative moves earlier")
	cmd.Flags().IntVar(&lanes, "lanes", 0, "Lanes to shift, negative moves up")

	return cmd
}

func (a *App) bookResizeCmd() *cobra.Command {
	var (
		start int
		end   int
	)

	cmd := &cobra.Command{
		Use:   "resize <booking>",
		Short: "Move the first or last day of a booking",
		Long: `Move the first day (--start) or the last day (--end) of a booking by a
number of days. A booking always keeps at least one day.`,
		Example: `  rota book resize "Design review" --end 2
  rota book resize 3f2a --start -1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			edge, delta := engine.EdgeRight, end
			switch {
			case start != 0 && end != 0:
				return fmt.Errorf("give either --start or --end")
			case start != 0:
				edge, delta = engine.EdgeLeft, start
			case end == 0:
				return fmt.Errorf("nothing to do: give --start or --end")
			}
			return a.changeBooking(cmd, args[0], "Resized", func(s *session, b booking.Booking) error {
				return s.engine.Resize(b.ID, edge, delta)
			})
		},
	}

	cmd.Flags().IntVar(&start, "start", 0, "Days to move the first day")
	cmd.Flags().IntVar(&end, "end", 0, "Days to move the last day")

	return cmd
}

func (a *App) bookTransferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <booking> <member>",
		Short: "Give a booking to another member",
		Long: `Give a booking to another member, or to the shared track with "shared".
The booking keeps its dates and lands on the first free lane of the new
owner, which gets an extra lane when every lane is busy.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.changeBooking(cmd, args[0], "Transferred", func(s *session, b booking.Booking) error {
				target, err := s.owner(args[1])
				if err != nil {
					return err
				}
				return s.engine.Transfer(b.ID, target)
			})
		},
	}
}

func (a *App) bookDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <booking>",
		Aliases: []string{"rm"},
		Short:   "Delete a booking",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			b, err := s.booking(args[0])
			if err != nil {
				return err
			}
			if err := s.do(func() error { return s.engine.Delete(b.ID) }); err != nil {
				return fmt.Errorf("deleting booking: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", formatOK("Deleted"), b.Title, formatMuted(shortID(b.ID)))
			return nil
		},
	}
}

// changeBooking resolves ref, applies change and prints the result.
func (a *App) changeBooking(cmd *cobra.Command, ref, verb string, change func(*session, booking.Booking) error) error {
	s, err := a.openSession(cmd.Context())
	if err != nil {
		return err
	}
	b, err := s.booking(ref)
	if err != nil {
		return err
	}
	if err := s.do(func() error { return change(s, b) }); err != nil {
		return fmt.Errorf("%s booking: %w", strings.ToLower(verb), err)
	}
	updated, _ := s.engine.Booking(b.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "%s booking %s\n", formatOK(verb), formatMuted(shortID(b.ID)))
	PrintBookingRow(cmd.OutOrStdout(), updated, s.ownerName(updated.OwnerID))
	return nil
}
