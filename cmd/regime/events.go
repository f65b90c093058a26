package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List the event catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tID\tCATEGORY\tGROUP\tLABEL")
		for _, e := range cfg.Events {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", e.Key, e.ID, e.Category, e.Group, e.Label)
		}
		return w.Flush()
	},
}
