package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ppiankov/flagaudit/internal/validate"
)

// rulesCmd lists the flag tags flagaudit knows how to check
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the flag tags and the rule behind each",
	Long: `List every flag tag slug in dispatch order with a one-line description
of what resolves it. Allow-lists come from the rules section of the config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		registry := validate.NewRegistry(cfg.Rules, logger)

		tw := table.NewWriter()
		tw.SetOutputMirror(cmd.OutOrStdout())
		tw.AppendHeader(table.Row{"#", "Flag tag", "Rule"})
		for i, slug := range registry.Slugs() {
			tw.AppendRow(table.Row{i + 1, string(slug), registry.Describe(slug)})
		}
		tw.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
