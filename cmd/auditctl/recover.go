package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/contract-auditor/internal/llm"
)

var recoverCmd = &cobra.Command{
	Use:   "recover <file|->",
	Short: "Recover a contract report from saved model output",
	Long: `Runs the tiered JSON recovery on raw model output and prints the
validated report. On failure the error kind is printed and the exit code is 1.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		res, err := llm.RecoverString(string(data))
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			logger.Warn("recover.repaired", "tier", res.Tier, "warning", w)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res.Report)
	},
}
