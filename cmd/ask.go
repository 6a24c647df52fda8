/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/docqa/apperror"
	"github.com/tieubaoca/docqa/types"
	"github.com/tieubaoca/docqa/utils"
)

// askCmd answers questions about one document and prints the result as JSON
var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask questions about a document once and print the answers",
	Example: `  docqa ask --url https://example.com/policy.pdf -q "What is the grace period?"
  docqa ask -u https://example.com/mail.eml -q "Who sent it?" -q "When?"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		documentURL, _ := cmd.Flags().GetString("url")
		questions, _ := cmd.Flags().GetStringArray("question")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := utils.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
		ctx := utils.WithLogger(cmd.Context(), logger)

		pipeline, closer, err := newPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		resp, err := pipeline.Run(ctx, types.QARequest{
			Documents: documentURL,
			Questions: questions,
		})
		if err != nil {
			return fmt.Errorf("%s (%s)", apperror.Detail(err), apperror.KindOf(err))
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(resp)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringP("url", "u", "", "URL of the document (pdf, docx, eml or txt)")
	askCmd.Flags().StringArrayP("question", "q", nil, "question to ask; repeat for several")
	askCmd.MarkFlagRequired("url")
}
