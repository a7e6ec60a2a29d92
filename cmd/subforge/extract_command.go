package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"subforge/internal/archive"
	"subforge/internal/llmjson"
	"subforge/internal/services"
)

const defaultExtractSystemPrompt = "Respond with a single JSON value and nothing else."

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var mode string
	var explain bool
	var allowTrailing bool
	var prompt string
	var systemPrompt string
	var archiveType string
	var title string

	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Recover a JSON value from model output (file, stdin, or a live prompt)",
		Long: `Recover the first JSON value from free-form model output.

Input is read from the named file, or stdin when no file (or "-") is given.
With --prompt the text is sent to the configured model first and its reply
is extracted instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(prompt) != "" && len(args) > 0 {
				return errors.New("use either an input file or --prompt, not both")
			}
			var saveType archive.Type
			if strings.TrimSpace(archiveType) != "" {
				parsed, err := archive.ParseType(archiveType)
				if err != nil {
					return err
				}
				if strings.TrimSpace(title) == "" {
					return errors.New("--title is required with --archive")
				}
				saveType = parsed
			}

			extractor, err := ctx.extractor(mode, allowTrailing)
			if err != nil {
				return err
			}

			var text string
			if strings.TrimSpace(prompt) != "" {
				client, err := ctx.llmClient()
				if err != nil {
					return err
				}
				runCtx := services.WithOperation(cmd.Context(), "extract")
				text, err = client.CompleteText(runCtx, systemPrompt, prompt)
				if err != nil {
					return fmt.Errorf("model request: %w", err)
				}
			} else {
				var path string
				if len(args) > 0 {
					path = args[0]
				}
				text, err = readInput(cmd, path)
				if err != nil {
					return err
				}
			}

			raw, strategy, ok := extractor.ExtractRaw(text)
			if !ok {
				return llmjson.ErrNoJSON
			}
			if explain {
				fmt.Fprintf(cmd.ErrOrStderr(), "strategy: %s\n", strategy)
			}

			if saveType != "" {
				err := ctx.withArchive(cmd.Context(), func(store *archive.Store) error {
					entry, err := store.Save(cmd.Context(), archive.SaveRequest{
						Type:    saveType,
						Title:   title,
						Content: raw,
						ToolID:  "extract",
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "archived as %s (v%d)\n", entry.FileID, entry.Version)
					return nil
				})
				if err != nil {
					return err
				}
			}

			return writeJSON(cmd, raw)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Bracket strategy: greedy or balanced (default from config)")
	cmd.Flags().BoolVar(&explain, "explain", false, "Report which extraction strategy succeeded on stderr")
	cmd.Flags().BoolVar(&allowTrailing, "allow-trailing", false, "Accept the first complete value even when broken text follows it")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Send this prompt to the configured model and extract from the reply")
	cmd.Flags().StringVar(&systemPrompt, "system", defaultExtractSystemPrompt, "System prompt used with --prompt")
	cmd.Flags().StringVar(&archiveType, "archive", "", "Also save the extracted value to the archive under this type")
	cmd.Flags().StringVar(&title, "title", "", "Archive title (required with --archive)")
	return cmd
}
