package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	appdist "clip-editor/application/distribution"
	"clip-editor/domain/editing"
	"clip-editor/domain/filter"
	"clip-editor/domain/video"
	"clip-editor/infrastructure/picker"

	"github.com/spf13/cobra"
)

var (
	exportSourcePath string
	exportFilter     string
	exportStartTime  string
	exportEndTime    string
	exportUpload     bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a trimmed, filtered clip without the interactive editor",
	Long: `Run one edit session non-interactively: import the source clip, apply an
optional filter and trim range, and export it to the configured export directory.

Timestamps are HH:MM:SS[.mmm] or plain seconds. Omitted bounds default to the
start and end of the clip. The output is named <clip>_<filter|original>_<id>.<container>.

Example:
  clip-editor export --source beach.mov --filter sepia --start 2 --end 8
  clip-editor export --source "/clips/2026-10-01 party.mp4" --start 00:01:30 --upload`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportSourcePath, "source", "", "Path to source video file (required)")
	exportCmd.Flags().StringVar(&exportFilter, "filter", "", "Filter to apply (see 'clip-editor filters')")
	exportCmd.Flags().StringVar(&exportStartTime, "start", "", "Trim start, HH:MM:SS[.mmm] or seconds")
	exportCmd.Flags().StringVar(&exportEndTime, "end", "", "Trim end, HH:MM:SS[.mmm] or seconds")
	exportCmd.Flags().BoolVar(&exportUpload, "upload", false, "Publish the export to the configured Google Drive folder")
	exportCmd.MarkFlagRequired("source")
}

func runExport(cmd *cobra.Command, args []string) error {
	c, err := configOrDefault()
	if err != nil {
		return err
	}
	logger := newLogger(c)
	ctx := cmd.Context()

	deps, err := productionDeps(c, picker.Static(exportSourcePath), logger)
	if err != nil {
		return err
	}
	if err := verifyEngine(ctx, deps.Engine); err != nil {
		return err
	}

	var publisher Publisher
	if exportUpload {
		client, err := newDriveClient(ctx, c)
		if err != nil {
			return fmt.Errorf("failed to create Google Drive client: %w", err)
		}
		publisher = appdist.NewUploadService(client, c.Google.ExportsFolderID, os.Stdout)
	}

	_, err = RunExportWithDependencies(ctx, deps, ExportInput{
		Filter:    exportFilter,
		StartTime: exportStartTime,
		EndTime:   exportEndTime,
	}, publisher, os.Stdout)
	return err
}

// ExportInput holds the edits applied before exporting
type ExportInput struct {
	Filter    string
	StartTime string
	EndTime   string
}

// RunExportWithDependencies runs one session end to end with injected
// dependencies (for testing) and returns the export path. deps.Source supplies
// the clip. A nil publisher skips publishing.
func RunExportWithDependencies(
	ctx context.Context,
	deps SessionDeps,
	input ExportInput,
	publisher Publisher,
	output io.Writer,
) (string, error) {
	ctrl, err := deps.NewController()
	if err != nil {
		return "", err
	}
	defer ctrl.Close()

	if err := ctrl.ImportClip(ctx); err != nil {
		if errors.Is(err, editing.ErrImportCancelled) {
			return "", fmt.Errorf("no source clip given")
		}
		return "", err
	}
	session := ctrl.Snapshot()
	fmt.Fprintf(output, "Imported %s (%s)\n", session.Source.Path, video.Timestamp(session.Source.Duration))

	if input.StartTime != "" || input.EndTime != "" {
		start, end, err := parseRange(input.StartTime, input.EndTime, session.Source.Duration)
		if err != nil {
			return "", err
		}
		if err := ctrl.SetTrimRange(start, end); err != nil {
			return "", err
		}
	}

	if input.Filter != "" {
		fmt.Fprintf(output, "Checking filter %s...\n", input.Filter)
		pending, err := ctrl.SelectFilter(filter.ID(input.Filter))
		if err != nil {
			return "", err
		}
		outcome, err := pending.Wait(ctx)
		if err != nil {
			return "", err
		}
		if outcome.Kind != editing.OutcomeCompleted {
			return "", outcome.Err
		}
	}

	session = ctrl.Snapshot()
	fmt.Fprintf(output, "Exporting %s...\n", session.Trim)

	pending, err := ctrl.ExportCurrent()
	if err != nil {
		return "", err
	}
	outcome, err := pending.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("export interrupted: %w", err)
	}
	if outcome.Kind != editing.OutcomeCompleted {
		return "", outcome.Err
	}
	fmt.Fprintf(output, "Successfully created: %s\n", outcome.Output)

	if publisher != nil {
		fmt.Fprintln(output, "Publishing to Google Drive...")
		result, err := publisher.PublishExport(ctx, outcome.Output)
		if err != nil {
			return outcome.Output, fmt.Errorf("export succeeded but publishing failed: %w", err)
		}
		fmt.Fprintf(output, "  Shareable URL: %s\n", result.ShareableURL)
	}

	return outcome.Output, nil
}

// parseRange turns optional timestamp flags into seconds, defaulting to the
// start and end of the clip
func parseRange(startTime, endTime string, duration float64) (float64, float64, error) {
	start, end := 0.0, duration

	if startTime != "" {
		ts, err := video.ParseTimestamp(startTime)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid start time: %w", err)
		}
		start = ts.Seconds()
	}
	if endTime != "" {
		ts, err := video.ParseTimestamp(endTime)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid end time: %w", err)
		}
		end = ts.Seconds()
	}

	return start, end, nil
}
