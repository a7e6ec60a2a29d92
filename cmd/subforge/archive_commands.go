package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subforge/internal/archive"
	"subforge/internal/fileutil"
	"subforge/internal/textutil"
)

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect and manage saved work products",
	}

	archiveCmd.AddCommand(newArchiveListCommand(ctx))
	archiveCmd.AddCommand(newArchiveShowCommand(ctx))
	archiveCmd.AddCommand(newArchiveSaveCommand(ctx))
	archiveCmd.AddCommand(newArchiveDeleteCommand(ctx))
	archiveCmd.AddCommand(newArchiveClearCommand(ctx))
	archiveCmd.AddCommand(newArchiveHistoryCommand(ctx))
	archiveCmd.AddCommand(newArchiveExportCommand(ctx))

	return archiveCmd
}

func newArchiveListCommand(ctx *commandContext) *cobra.Command {
	var typeFlag string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archive entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseTypeFilter(typeFlag)
			if err != nil {
				return err
			}
			return ctx.withArchive(cmd.Context(), func(store *archive.Store) error {
				entries := filterEntries(store.List(cmd.Context()), filter)
				if limit > 0 && len(entries) > limit {
					entries = entries[:limit]
				}
				if asJSON {
					return writeJSON(cmd, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Archive is empty")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"File ID", "Type", "Title", "Lang", "Version", "Saved"},
					buildArchiveRows(entries),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "", "Only show entries of this type (name or prefix)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newArchiveShowCommand(ctx *commandContext) *cobra.Command {
	var format string
	var contentOnly bool

	cmd := &cobra.Command{
		Use:   "show <id|file-id>",
		Short: "Show one archive entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withArchive(cmd.Context(), func(store *archive.Store) error {
				entry, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if contentOnly {
					return encodeFormatted(cmd.OutOrStdout(), format, entry.Content)
				}
				return encodeFormatted(cmd.OutOrStdout(), format, entry)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "Output format: json or yaml")
	cmd.Flags().BoolVar(&contentOnly, "content", false, "Print only the entry content")
	return cmd
}

func newArchiveSaveCommand(ctx *commandContext) *cobra.Command {
	var typeFlag string
	var title string
	var language string
	var toolID string
	var asText bool

	cmd := &cobra.Command{
		Use:   "save [file]",
		Short: "Save JSON (or model output containing JSON) to the archive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entryType, err := archive.ParseType(typeFlag)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, firstArg(args))
			if err != nil {
				return err
			}

			var content json.RawMessage
			if asText {
				content, err = json.Marshal(strings.TrimSpace(text))
				if err != nil {
					return fmt.Errorf("encode text: %w", err)
				}
			} else {
				extractor, err := ctx.extractor("", false)
				if err != nil {
					return err
				}
				if err := extractor.Decode(text, &content); err != nil {
					return err
				}
			}

			return ctx.withArchive(cmd.Context(), func(store *archive.Store) error {
				entry, err := store.Save(cmd.Context(), archive.SaveRequest{
					Type:     entryType,
					Title:    title,
					Content:  content,
					Language: language,
					ToolID:   toolID,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s %q as %s (version %d)\n", entry.Type, entry.Title, entry.FileID, entry.Version)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "", "Entry type (story, recap, transcript, localization, voice, thumbnail, clip, content)")
	cmd.Flags().StringVar(&title, "title", "", "Entry title")
	cmd.Flags().StringVar(&language, "language", "", "Language tag")
	cmd.Flags().StringVar(&toolID, "tool", "cli", "Tool identifier recorded with the entry")
	cmd.Flags().BoolVar(&asText, "text", false, "Store the input as a JSON string instead of extracting JSON")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newArchiveDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|file-id>",
		Short: "Delete one archive entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withArchive(cmd.Context(), func(store *archive.Store) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newArchiveClearCommand(ctx *commandContext) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every archive entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to clear the archive without --yes")
			}
			return ctx.withArchive(cmd.Context(), func(store *archive.Store) error {
				count := store.Count(cmd.Context())
				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entr%s\n", count, pluralSuffix(count, "y", "ies"))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Confirm removal of every entry")
	return cmd
}

func newArchiveHistoryCommand(ctx *commandContext) *cobra.Command {
	var typeFlag string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history <title>",
		Short: "Show retained versions of a title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entryType, err := archive.ParseType(typeFlag)
			if err != nil {
				return err
			}
			return ctx.withArchive(cmd.Context(), func(store *archive.Store) error {
				versions := store.History(cmd.Context(), args[0], entryType)
				if asJSON {
					if versions == nil {
						versions = []archive.Entry{}
					}
					return writeJSON(cmd, versions)
				}
				if len(versions) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No %s entries titled %q\n", entryType, args[0])
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"File ID", "Type", "Title", "Lang", "Version", "Saved"},
					buildArchiveRows(versions),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "", "Entry type (name or prefix)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newArchiveExportCommand(ctx *commandContext) *cobra.Command {
	var typeFlag string
	var format string
	var outDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export archive entries as JSON or YAML",
		Long: `Export archive entries.

Without --out-dir every matching entry is written to stdout as one document.
With --out-dir each entry is written to its own file named after its file ID
and title.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseTypeFilter(typeFlag)
			if err != nil {
				return err
			}
			ext, err := formatExtension(format)
			if err != nil {
				return err
			}
			return ctx.withArchive(cmd.Context(), func(store *archive.Store) error {
				entries := filterEntries(store.List(cmd.Context()), filter)
				if strings.TrimSpace(outDir) == "" {
					return encodeFormatted(cmd.OutOrStdout(), format, entries)
				}
				for _, entry := range entries {
					var buf strings.Builder
					if err := encodeFormatted(&buf, format, entry); err != nil {
						return err
					}
					path := filepath.Join(outDir, textutil.ArchiveFileName(entry.FileID, entry.Title, ext))
					if err := fileutil.WriteFileAtomic(path, []byte(buf.String()), 0o644); err != nil {
						return fmt.Errorf("export %s: %w", entry.FileID, err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entr%s to %s\n", len(entries), pluralSuffix(len(entries), "y", "ies"), outDir)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "", "Only export entries of this type (name or prefix)")
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "Output format: json or yaml")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Write one file per entry into this directory")
	return cmd
}

func parseTypeFilter(value string) (archive.Type, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return archive.ParseType(value)
}

func filterEntries(entries []archive.Entry, filter archive.Type) []archive.Entry {
	if filter == "" {
		return entries
	}
	filtered := make([]archive.Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.Type == filter {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

func buildArchiveRows(entries []archive.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		lang := entry.Language
		if lang == "" {
			lang = "-"
		}
		rows = append(rows, []string{
			entry.FileID,
			string(entry.Type),
			entry.Title,
			lang,
			strconv.Itoa(entry.Version),
			entry.Timestamp.Local().Format(time.DateTime),
		})
	}
	return rows
}

func formatExtension(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", formatJSON:
		return ".json", nil
	case formatYAML:
		return ".yaml", nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected json or yaml)", format)
	}
}

func pluralSuffix(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
