package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"subforge/internal/archive"
	"subforge/internal/fileutil"
	"subforge/internal/services"
	"subforge/internal/subtitles"
	"subforge/internal/textutil"
	"subforge/internal/translation"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var target string
	var toneFlag string
	var chunkSize int
	var outPath string
	var speakers bool
	var asJSON bool
	var saveArchive bool

	cmd := &cobra.Command{
		Use:   "translate <file>",
		Short: "Translate an SRT (or transcription JSON) file with the configured model",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("provide the subtitle file to translate. Example: subforge translate episode.srt --to fr")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			if strings.TrimSpace(target) == "" {
				target = cfg.Translation.DefaultLanguage
			}
			if strings.TrimSpace(toneFlag) == "" {
				toneFlag = cfg.Translation.DefaultTone
			}
			tone, err := translation.ParseTone(toneFlag)
			if err != nil {
				return err
			}
			if chunkSize <= 0 {
				chunkSize = cfg.Translation.ChunkSize
			}
			if cfg.GetLLM().APIKey == "" {
				return services.Wrap(services.ErrConfiguration, "translate", "llm", "no API key configured; set llm.api_key or OPENROUTER_API_KEY", nil)
			}

			source := args[0]
			segments, err := loadSegments(ctx, cmd, source)
			if err != nil {
				return err
			}
			if len(segments) == 0 {
				return services.Wrap(services.ErrValidation, "translate", "load", fmt.Sprintf("no subtitle segments found in %s", source), nil)
			}

			client, err := ctx.llmClient()
			if err != nil {
				return err
			}
			extractor, err := ctx.extractor("", false)
			if err != nil {
				return err
			}
			orchestrator := translation.NewOrchestrator(
				translation.NewLLMTranslator(client, extractor, logger),
				translation.Options{ChunkSize: chunkSize, Logger: logger},
			)

			runCtx := services.WithOperation(cmd.Context(), "translate")
			progress := newProgressPrinter(cmd.ErrOrStderr())
			translated, err := orchestrator.Translate(runCtx, segments, target, tone, progress.update)
			progress.finish()
			if err != nil {
				return err
			}

			tag, _, ok := textutil.NormalizeLanguage(target)
			if !ok {
				tag = strings.TrimSpace(target)
			}
			result := subtitles.Result{Language: tag, Segments: translated}
			result.Normalize()

			if saveArchive {
				err := ctx.withArchive(runCtx, func(store *archive.Store) error {
					content, err := json.Marshal(result)
					if err != nil {
						return fmt.Errorf("encode translation: %w", err)
					}
					entry, err := store.Save(runCtx, archive.SaveRequest{
						Type:     archive.TypeLocalization,
						Title:    strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)),
						Content:  content,
						Language: tag,
						ToolID:   "translate",
						Metadata: map[string]any{
							"tone":     string(tone),
							"segments": len(translated),
							"model":    client.Model(),
						},
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

			if strings.TrimSpace(outPath) != "" {
				outPath = resolveTranslationOutput(outPath, source, tag, asJSON)
				if asJSON {
					var buf strings.Builder
					if err := encodeJSON(&buf, result); err != nil {
						return err
					}
					if err := writeOutputFile(outPath, buf.String()); err != nil {
						return err
					}
				} else if err := subtitles.WriteFile(outPath, result.Segments, speakers); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d segment(s) to %s\n", len(result.Segments), outPath)
				return nil
			}
			if asJSON {
				return writeJSON(cmd, result)
			}
			fmt.Fprint(cmd.OutOrStdout(), subtitles.Format(result.Segments, speakers))
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "to", "t", "", "Target language tag or name (default translation.default_language)")
	cmd.Flags().StringVar(&toneFlag, "tone", "", "Tone: neutral, formal, casual, cinematic, playful (default translation.default_tone)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Segments per model request (default translation.chunk_size)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the result to this path instead of stdout")
	cmd.Flags().BoolVar(&speakers, "speakers", false, "Prefix SRT cues with speaker labels")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit transcription JSON instead of SRT")
	cmd.Flags().BoolVar(&saveArchive, "archive", false, "Save the translation to the archive as a localization entry")
	return cmd
}

// resolveTranslationOutput places the result inside out when it names an
// existing directory, as <source base>.<tag>.srt (or .json).
func resolveTranslationOutput(out, source, tag string, asJSON bool) string {
	if !fileutil.IsDir(out) {
		return out
	}
	ext := ".srt"
	if asJSON {
		ext = ".json"
	}
	return filepath.Join(out, textutil.TranslatedFileName(source, tag, ext))
}

// loadSegments reads SRT, or JSON when the file looks like it.
func loadSegments(ctx *commandContext, cmd *cobra.Command, path string) ([]subtitles.Segment, error) {
	content, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "```") {
		extractor, err := ctx.extractor("", false)
		if err != nil {
			return nil, err
		}
		return decodeSegments(extractor, content)
	}
	return subtitles.Parse(content), nil
}

// progressPrinter redraws a bar in place on terminals and prints one line per
// chunk otherwise.
type progressPrinter struct {
	w        io.Writer
	terminal bool
	drawn    bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, terminal: isTerminal(w)}
}

func (p *progressPrinter) update(pr translation.Progress) {
	if p.terminal {
		fmt.Fprintf(p.w, "\r%s %3d%%  chunk %d/%d  (%d/%d segments)", renderProgressBar(pr.Percent, 30), pr.Percent, pr.ChunksDone, pr.ChunksTotal, pr.SegmentsDone, pr.SegmentsTotal)
		p.drawn = true
		return
	}
	fmt.Fprintf(p.w, "translated chunk %d/%d (%d%%)\n", pr.ChunksDone, pr.ChunksTotal, pr.Percent)
}

func (p *progressPrinter) finish() {
	if p.drawn {
		fmt.Fprintln(p.w)
	}
}
