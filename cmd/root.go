/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/docqa/config"
	"github.com/tieubaoca/docqa/service"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Answer questions about a document fetched from a URL",
	Long: `docqa downloads a PDF, DOCX, EML or TXT document, extracts its text
and answers questions about it with a chat completion model.

Run "docqa start" to serve the HTTP API or "docqa ask" for a one-off query.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml); environment variables override it")
	rootCmd.PersistentFlags().String("provider", "", "chat provider: openai, gemini or ollama")
	rootCmd.PersistentFlags().String("model", "", "model name for the chat provider")
}

// loadConfig reads configuration from file, environment and the command's
// flags, in increasing order of precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.New()
	for key, flag := range map[string]string{
		"llm.provider": "provider",
		"llm.model":    "model",
		"server.port":  "port",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}
	return config.Load(v, cfgFile)
}

// newPipeline builds the services behind one QA request. The returned
// closer releases the chat model's resources.
func newPipeline(ctx context.Context, cfg *config.Config) (*service.DocumentPipeline, io.Closer, error) {
	model, err := service.NewChatModel(ctx, cfg.LLM)
	if err != nil {
		return nil, nil, err
	}

	pipeline := service.NewDocumentPipeline(
		service.NewFetchService(cfg.Fetch),
		service.NewExtractorService(),
		service.NewQAService(model, cfg.LLM, cfg.QA),
	)

	closer := io.Closer(nopCloser{})
	if c, ok := model.(io.Closer); ok {
		closer = c
	}
	return pipeline, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
