package ui

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) lanesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lanes",
		Short: "Show and change lane counts",
		Long: `Every member, and the shared track, has one or more lanes. Bookings on
different lanes of the same owner may overlap.

Run without a subcommand to list lane counts.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listLanes(cmd)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List lane counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listLanes(cmd)
		},
	})
	cmd.AddCommand(a.laneChangeCmd("add", "Add a lane to a member", "Added"))
	cmd.AddCommand(a.laneChangeCmd("remove", "Remove the highest lane of a member when it is empty", "Removed"))
	return cmd
}

func (a *App) listLanes(cmd *cobra.Command) error {
	s, err := a.openSession(cmd.Context())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "  %-20s %d\n", "Shared", s.engine.LaneCount(""))
	for _, m := range s.engine.Members() {
		fmt.Fprintf(w, "  %-20s %d\n", truncate(m.Name, 20), s.engine.LaneCount(m.ID))
	}
	return nil
}

func (a *App) laneChangeCmd(use, short, verb string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [member]",
		Short: short,
		Long:  short + `. Without a member the shared track is changed.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			var ref string
			if len(args) == 1 {
				ref = args[0]
			}
			owner, err := s.owner(ref)
			if err != nil {
				return err
			}

			change := s.engine.AddLane
			if use == "remove" {
				change = s.engine.RemoveLane
			}
			if err := s.do(func() error { return change(owner) }); err != nil {
				return fmt.Errorf("%s lane: %w", use, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s lane, %s now has %s\n",
				formatOK(verb), s.ownerName(owner), plural(s.engine.LaneCount(owner), "lane"))
			return nil
		},
	}
}
