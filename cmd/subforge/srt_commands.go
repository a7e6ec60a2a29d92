package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"subforge/internal/llmjson"
	"subforge/internal/services"
	"subforge/internal/subtitles"
)

func newSRTCommand(ctx *commandContext) *cobra.Command {
	srtCmd := &cobra.Command{
		Use:   "srt",
		Short: "Parse, render, and validate SRT subtitle files",
	}

	srtCmd.AddCommand(newSRTParseCommand(ctx))
	srtCmd.AddCommand(newSRTRenderCommand(ctx))
	srtCmd.AddCommand(newSRTValidateCommand(ctx))

	return srtCmd
}

func newSRTParseCommand(ctx *commandContext) *cobra.Command {
	var language string
	var clean bool

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Convert SRT into transcription JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, firstArg(args))
			if err != nil {
				return err
			}
			segments := subtitles.Parse(content)
			if clean {
				var stats subtitles.CleanStats
				segments, stats = subtitles.Clean(segments)
				if stats.RemovedCues > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "removed %d advertisement cue(s)\n", stats.RemovedCues)
				}
			}
			result := subtitles.Result{Language: language, Segments: segments}
			result.Normalize()
			return writeJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "Language tag recorded in the output")
	cmd.Flags().BoolVar(&clean, "clean", false, "Drop advertisement and credit cues")
	return cmd
}

func newSRTRenderCommand(ctx *commandContext) *cobra.Command {
	var speakers bool
	var outPath string

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Convert transcription JSON (or raw model output) into SRT",
		Long: `Render segments as SRT.

The input may be a JSON array of segments, a transcription object with a
"segments" field, or model output wrapping either one in prose or fences.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, firstArg(args))
			if err != nil {
				return err
			}
			extractor, err := ctx.extractor("", false)
			if err != nil {
				return err
			}
			segments, err := decodeSegments(extractor, content)
			if err != nil {
				return err
			}
			if strings.TrimSpace(outPath) != "" {
				if err := subtitles.WriteFile(outPath, segments, speakers); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d segment(s) to %s\n", len(segments), outPath)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), subtitles.Format(segments, speakers))
			return nil
		},
	}

	cmd.Flags().BoolVar(&speakers, "speakers", false, "Prefix each cue with its speaker label")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write SRT to this path instead of stdout")
	return cmd
}

func newSRTValidateCommand(ctx *commandContext) *cobra.Command {
	var clean bool

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check SRT timing and content",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, firstArg(args))
			if err != nil {
				return err
			}
			segments := subtitles.Parse(content)
			out := cmd.OutOrStdout()
			if clean {
				var stats subtitles.CleanStats
				segments, stats = subtitles.Clean(segments)
				fmt.Fprintf(out, "Advertisement cues: %d\n", stats.RemovedCues)
			}
			fmt.Fprintf(out, "Segments: %d\n", len(segments))
			if first, last, ok := subtitles.Bounds(segments); ok {
				fmt.Fprintf(out, "Span: %s - %s\n", subtitles.FormatTimestamp(first), subtitles.FormatTimestamp(last))
			}
			issues := subtitles.Validate(segments)
			if len(issues) == 0 {
				fmt.Fprintln(out, "Subtitles valid")
				return nil
			}
			for _, issue := range issues {
				fmt.Fprintf(out, "  - %s\n", issue)
			}
			return fmt.Errorf("%d issue(s) found", len(issues))
		},
	}

	cmd.Flags().BoolVar(&clean, "clean", false, "Drop advertisement cues before validating")
	return cmd
}

// decodeSegments accepts a segment array or a transcription object, either
// bare or wrapped in model prose.
func decodeSegments(extractor *llmjson.Extractor, content string) ([]subtitles.Segment, error) {
	raw, _, ok := extractor.ExtractRaw(content)
	if !ok {
		return nil, llmjson.ErrNoJSON
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var segments []subtitles.Segment
		if err := json.Unmarshal(raw, &segments); err != nil {
			return nil, services.Wrap(services.ErrValidation, "srt", "render", "segment array has unexpected shape", err)
		}
		result := subtitles.Result{Segments: segments}
		result.Normalize()
		return result.Segments, nil
	}
	var result subtitles.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, services.Wrap(services.ErrValidation, "srt", "render", "transcription object has unexpected shape", err)
	}
	if result.Segments == nil {
		return nil, services.Wrap(services.ErrValidation, "srt", "render", "no segments field in input", nil)
	}
	result.Normalize()
	return result.Segments, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
