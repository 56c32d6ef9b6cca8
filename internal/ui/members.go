package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/db"
)

func (a *App) membersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "members",
		Aliases: []string{"m"},
		Short:   "Manage the member directory",
		Long: `Manage the people that own rows on the timeline.

Run without a subcommand to list members.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listMembers(cmd)
		},
	}
	cmd.AddCommand(a.membersListCmd())
	cmd.AddCommand(a.membersAddCmd())
	cmd.AddCommand(a.membersRemoveCmd())
	cmd.AddCommand(a.membersImportCmd())
	return cmd
}

func (a *App) membersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List members in timeline order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listMembers(cmd)
		},
	}
}

func (a *App) listMembers(cmd *cobra.Command) error {
	s, err := a.openSession(cmd.Context())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	members := s.engine.Members()
	if len(members) == 0 {
		fmt.Fprintln(w, "No members yet. Add one with: rota members add NAME")
		return nil
	}

	count := make(map[string]int)
	for _, b := range s.engine.Bookings() {
		count[b.OwnerID]++
	}

	fmt.Fprintln(w, formatHeader(fmt.Sprintf("Members (%d)", s.engine.Year())))
	for _, m := range members {
		fmt.Fprintf(w, "  %s %-20s %s, %s\n",
			paint("■", m.Color, colorMuted),
			truncate(m.Name, 20),
			plural(s.engine.LaneCount(m.ID), "lane"),
			plural(count[m.ID], "booking"),
		)
	}
	fmt.Fprintf(w, "  %s %-20s %s, %s\n",
		colorShared.Sprint("■"),
		"Shared",
		plural(s.engine.LaneCount(""), "lane"),
		plural(count[""], "booking"),
	)
	return nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func (a *App) membersAddCmd() *cobra.Command {
	var (
		color string
		lanes int
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a member at the bottom of the timeline",
		Example: `  rota members add Alice
  rota members add "Bob Smith" --color "#89b4fa" --lanes 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}
			m := &booking.Member{Name: args[0], Color: color, LaneCount: lanes}
			if err := a.store.CreateMember(cmd.Context(), m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s member %s (%s)\n", formatOK("Added"), m.Name, plural(m.LaneCount, "lane"))
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "Row color as #rrggbb")
	cmd.Flags().IntVar(&lanes, "lanes", 1, "Initial number of lanes")

	return cmd
}

func (a *App) membersRemoveCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a member and all of their bookings",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}
			ctx := cmd.Context()
			m, err := a.store.MemberByName(ctx, args[0])
			if err != nil {
				return err
			}

			if !yes {
				question := fmt.Sprintf("Remove %s and all of their bookings?", m.Name)
				if !promptYesNo(bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout(), question) {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}

			removed, err := a.store.DeleteMember(ctx, m.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s member %s (%s removed)\n",
				formatOK("Removed"), m.Name, plural(removed, "booking"))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

// memberFile is the YAML layout accepted by "members import".
type memberFile struct {
	Members []struct {
		Name  string `yaml:"name"`
		Color string `yaml:"color"`
		Lanes int    `yaml:"lanes"`
	} `yaml:"members"`
}

func (a *App) membersImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Add members from a YAML file",
		Long: `Add members listed in a YAML file, in file order. Members that already
exist, matched by name, keep their place and get the color from the file.

  members:
    - name: Alice
      color: "#f38ba8"
    - name: Bob
      lanes: 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolvePath(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening member file: %w", err)
			}
			defer func() { _ = f.Close() }()

			members, err := decodeMembers(f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if err := a.ensureStore(); err != nil {
				return err
			}
			created, err := a.store.ImportMembers(cmd.Context(), members)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s, %d updated\n",
				formatOK("Imported"), plural(created, "member"), len(members)-created)
			return nil
		},
	}
}

func decodeMembers(r io.Reader) ([]booking.Member, error) {
	var file memberFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no members listed")
		}
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if len(file.Members) == 0 {
		return nil, errors.New("no members listed")
	}
	members := make([]booking.Member, 0, len(file.Members))
	for i, m := range file.Members {
		if strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("member %d: %w", i+1, db.ErrEmptyName)
		}
		members = append(members, booking.Member{Name: m.Name, Color: m.Color, LaneCount: m.Lanes})
	}
	return members, nil
}
