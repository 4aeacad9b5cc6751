package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "Show the configured persona roster",
	Long: `Show every persona on the roster. Inactive personas stay listed but
never speak; edit the roster file to change the cast.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Roster from %s\n\n", cfg.RosterPath)

		for _, p := range roster.All() {
			name := p.Name
			if p.Color != "" {
				name = lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Bold(true).Render(name)
			}

			state := "active"
			if !p.Active {
				state = "inactive"
			}

			fmt.Printf("%s (%s, %s)\n", name, p.ID, state)
			fmt.Printf("    %s\n\n", p.Directive)
		}
		return nil
	},
}
