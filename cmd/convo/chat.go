package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ent0n29/convo/internal/app"
	"github.com/ent0n29/convo/internal/chat"
	"github.com/ent0n29/convo/internal/enrich"
	"github.com/ent0n29/convo/internal/nlu"
)

func chatCmd() *cobra.Command {
	var prefs enrich.Preferences
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := app.NewClient(cfg, logger)
			var p *enrich.Preferences
			if prefs != (enrich.Preferences{}) {
				p = &prefs
			}
			return runREPL(cmd, client, p)
		},
	}
	cmd.Flags().StringVar(&prefs.Industry, "industry", "", "industry to mention in every message")
	cmd.Flags().StringVar(&prefs.Budget, "budget", "", "budget to mention in every message")
	cmd.Flags().StringVar(&prefs.Timeline, "timeline", "", "timeline to mention in every message")
	cmd.Flags().StringVar(&prefs.Service, "service", "", "service of interest to mention in every message")
	return cmd
}

func runREPL(cmd *cobra.Command, client *chat.Client, prefs *enrich.Preferences) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session %s (type /quit to exit)\n", client.SessionID())

	var history []enrich.Turn
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/quit" || text == "/exit" {
			break
		}

		result, err := client.ProcessTurn(cmd.Context(), chat.TurnRequest{
			Text:        text,
			History:     history,
			Preferences: prefs,
		})
		if err != nil {
			return err
		}
		printTurn(out, result)

		history = append(history, enrich.Turn{Text: text, Sender: "user"})
		for _, r := range result.Responses {
			history = append(history, enrich.Turn{Text: r.Text, Sender: "bot"})
		}
		if len(history) > enrich.HistoryWindow {
			history = history[len(history)-enrich.HistoryWindow:]
		}
	}
	return scanner.Err()
}

func printTurn(w io.Writer, r chat.TurnResult) {
	for _, resp := range r.Responses {
		if resp.Text != "" {
			fmt.Fprintf(w, "bot: %s\n", resp.Text)
		}
		if resp.Image != "" {
			fmt.Fprintf(w, "bot: [image] %s\n", resp.Image)
		}
		for _, b := range resp.Buttons {
			fmt.Fprintf(w, "  [%s] %s\n", b.Title, b.Payload)
		}
	}
	fmt.Fprintf(w, "  intent=%s confidence=%.2f sentiment=%s\n", r.Intent.Name, r.Intent.Confidence, r.Sentiment)
	if len(r.Suggestions) > 0 {
		fmt.Fprintf(w, "  try: %s\n", strings.Join(r.Suggestions, " | "))
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the NLU server has a model loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := app.NewClient(cfg, logger)
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"nlu_base_url": cfg.NLUBaseURL,
				"model_loaded": client.ModelStatus(cmd.Context()),
			})
		},
	}
}

func trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Ask the NLU server to train a model from the configured manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := app.NewClient(cfg, logger)
			accepted := client.TrainModel(cmd.Context())
			if err := writeJSON(cmd.OutOrStdout(), map[string]any{
				"accepted": accepted,
				"training": cfg.Training,
			}); err != nil {
				return err
			}
			if !accepted {
				return fmt.Errorf("train request was not accepted by %s", cfg.NLUBaseURL)
			}
			return nil
		},
	}
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [text]",
		Short: "Show the intent and entities the NLU server extracts from text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := app.NewClient(cfg, logger)
			text := strings.Join(args, " ")
			return writeJSON(cmd.OutOrStdout(), struct {
				Intent   nlu.Intent   `json:"intent"`
				Entities []nlu.Entity `json:"entities"`
			}{
				Intent:   client.IntentConfidence(cmd.Context(), text),
				Entities: client.Entities(cmd.Context(), text),
			})
		},
	}
}

func intentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "intent [text]",
		Short: "Classify text and list suggested follow-ups",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := app.NewClient(cfg, logger)
			intent := client.IntentConfidence(cmd.Context(), strings.Join(args, " "))
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"intent":      intent,
				"suggestions": client.SuggestedResponses(intent.Name, intent.Confidence),
			})
		},
	}
}

func sentimentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sentiment [text]",
		Short: "Score the sentiment of text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"sentiment": chat.AnalyzeSentiment(strings.Join(args, " ")),
			})
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
