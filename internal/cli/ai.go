package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/aiproxy"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/usage"
)

var aiCmd = &cobra.Command{
	Use:   "ai",
	Short: "Run AI completions and inspect usage",
}

var (
	aiProvider string
	aiModel    string
	aiSystem   string
)

var aiCompleteCmd = &cobra.Command{
	Use:   "complete <prompt>",
	Short: "Run a one-shot completion against a configured provider",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyring := newKeyring()
		recorder := usage.NewRecorder(cfg.UsageFile(), logger)
		proxy := aiproxy.NewProxy(keyring, recorder, logger)

		completion, err := proxy.Complete(cmd.Context(), aiproxy.Request{
			Provider:     aiProvider,
			Model:        aiModel,
			SystemPrompt: aiSystem,
			MaxTokens:    cfg.AI.MaxTokens,
			Temperature:  &cfg.AI.Temperature,
			Messages: []aiproxy.Message{
				{Role: "user", Content: strings.Join(args, " ")},
			},
		})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), completion.Content)
		fmt.Fprintln(cmd.OutOrStdout(), styles.Subtle.Render(
			fmt.Sprintf("tokens: %d in, %d out", completion.InputTokens, completion.OutputTokens)))
		return nil
	},
}

var aiUsageReset bool

var aiUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show or reset accumulated AI usage statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		recorder := usage.NewRecorder(cfg.UsageFile(), logger)

		if aiUsageReset {
			if err := recorder.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render("usage statistics reset"))
			return nil
		}

		stats, err := recorder.Get()
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), styles.Title.Render("AI usage"))
		fmt.Fprintf(cmd.OutOrStdout(), "  requests: %d\n", stats.TotalRequests)
		fmt.Fprintf(cmd.OutOrStdout(), "  tokens:   %d in, %d out, %d total\n",
			stats.InputTokens, stats.OutputTokens, stats.TotalTokens)
		for provider, ps := range stats.ProviderStats {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d requests, %d tokens\n",
				styles.Bold.Render(provider), ps.TotalRequests, ps.TotalTokens)
		}
		return nil
	},
}

func init() {
	aiCompleteCmd.Flags().StringVar(&aiProvider, "provider", "openai", "AI provider (openai, anthropic, gemini, deepseek, groq, openrouter, ollama)")
	aiCompleteCmd.Flags().StringVar(&aiModel, "model", "", "model name")
	aiCompleteCmd.Flags().StringVar(&aiSystem, "system", "", "system prompt")
	_ = aiCompleteCmd.MarkFlagRequired("model")

	aiUsageCmd.Flags().BoolVar(&aiUsageReset, "reset", false, "reset accumulated statistics")

	aiCmd.AddCommand(aiCompleteCmd)
	aiCmd.AddCommand(aiUsageCmd)
}
