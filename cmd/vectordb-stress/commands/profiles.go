package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/calque-ai/calque-stress/pkg/scenario"
)

// NewProfilesCmd creates the command listing built-in load profiles.
func NewProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List built-in load profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tREQUESTS\tCONCURRENCY\tRATE\tRESILIENT\tDESCRIPTION")
			for _, p := range scenario.Profiles() {
				rate := "unpaced"
				if p.Rate > 0 {
					rate = fmt.Sprintf("%g/s", p.Rate)
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%t\t%s\n",
					p.Name, p.Requests, p.Concurrency, rate, p.Resilient, p.Description)
			}
			return w.Flush()
		},
	}
}
