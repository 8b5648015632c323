package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/contract-auditor/internal/redact"
)

var redactCmd = &cobra.Command{
	Use:   "redact <file|->",
	Short: "Replace PII in plain text with placeholder tokens",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		res := redact.New().Redact(string(data))
		fmt.Fprint(cmd.OutOrStdout(), res.Text)

		kinds := make([]string, 0, len(res.Counts))
		for k := range res.Counts {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			logger.Info("redact.count", "kind", k, "count", res.Counts[redact.Kind(k)])
		}
		return nil
	},
}
