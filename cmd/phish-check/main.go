package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/adapters/presenter"
	"github.com/mikey/phish-interrogator/internal/core"
	"github.com/mikey/phish-interrogator/internal/di"
)

var (
	flags      = &di.CLIFlags{}
	jsonResult bool
)

var rootCmd = &cobra.Command{
	Use:   "phish-check",
	Short: "phish-check - Interrogate the reader of a suspicious message",
	Long: `phish-check classifies a saved webmail page or mail message and, when it
looks like phishing, walks the reader through a short set of questions
about the sender, the recipients and the linked domain before summarising
the risks it found.`,
	SilenceUsage: true,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Classify a message and interrogate the reader when it is flagged",
	RunE:  runInspect,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	pf.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	pf.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	f := inspectCmd.Flags()
	f.StringVarP(&flags.InputFile, "file", "f", "", "Saved page (.html) or mail message (.eml) to inspect")
	f.StringVar(&flags.Provider, "provider", "http", "Classifier provider (http, bedrock, gemini, openai)")
	f.StringVar(&flags.Endpoint, "endpoint", "", "Prediction endpoint for the http provider")
	f.DurationVar(&flags.Timeout, "timeout", 10*time.Second, "Classification timeout")
	f.IntVar(&flags.MaxBodySize, "max-body-size", 8192, "Maximum message body size sent to the classifier")
	f.Float64Var(&flags.Threshold, "threshold", 0.83, "Score at which an LLM provider flags a message")
	f.IntVar(&flags.MaxTokens, "max-tokens", 1000, "Maximum tokens for LLM response")
	f.Float64Var(&flags.Temperature, "temperature", 0.1, "Temperature for LLM generation")
	f.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for LLM generation")
	f.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	f.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")
	f.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	f.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-pro", "Gemini model name")
	f.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	f.StringVar(&flags.OpenAIBaseURL, "openai-base-url", "", "Base URL of an OpenAI compatible API")
	f.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4", "OpenAI model name")
	f.StringSliceVar(&flags.TrustedDomains, "trust", nil, "Sender domains that are never interrogated")
	f.BoolVar(&jsonResult, "json", false, "Print the outcome as JSON once the interrogation ends")
	_ = inspectCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInspect(cmd *cobra.Command, _ []string) error {
	container, err := di.BuildCLIContainer(flags, os.Stdin, cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}

	return container.Invoke(func(logger *zap.Logger, p *presenter.TerminalPresenter, classifier core.Classifier) error {
		defer logger.Sync()
		defer func() {
			if closer, ok := classifier.(interface{ Close() error }); ok {
				if err := closer.Close(); err != nil {
					logger.Error("Failed to close classifier", zap.Error(err))
				}
			}
		}()

		if !presenter.IsInteractive() {
			logger.Warn("Standard input is not a terminal, answers will be read from the pipe")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		outcome, err := p.InspectFile(ctx, flags.InputFile)
		if errors.Is(err, presenter.ErrInputClosed) {
			logger.Warn("Interrogation abandoned", zap.Error(err))
		} else if err != nil {
			return err
		}

		if jsonResult && outcome != nil {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(outcome)
		}
		return nil
	})
}
