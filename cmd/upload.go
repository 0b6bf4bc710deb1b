package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	appdist "clip-editor/application/distribution"
	"clip-editor/domain/distribution"
	"clip-editor/domain/video"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Publish an exported clip to Google Drive with public sharing",
	Long: `Upload an exported clip to the configured Google Drive folder and make it
readable by anyone with the link. A file with the same name already in the
folder is replaced.

Without an argument the most recent export in the export directory is used.

Example:
  clip-editor upload
  clip-editor upload /path/to/beach_sepia_1a2b3c4d.mov`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}

	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		path, err = findLatestExport(c.Paths.ExportDirectory)
		if err != nil {
			return fmt.Errorf("no file specified and could not find latest export: %w", err)
		}
	}

	ctx := cmd.Context()
	client, err := newDriveClient(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to create Google Drive client: %w", err)
	}

	return RunUploadWithDependencies(ctx, client, c.Google.ExportsFolderID, path, os.Stdout)
}

// findLatestExport finds the most recently modified video file in dir
func findLatestExport(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory: %w", err)
	}

	var latestPath string
	var latestTime time.Time

	for _, entry := range entries {
		if entry.IsDir() || !video.IsVideoFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestPath = filepath.Join(dir, entry.Name())
		}
	}

	if latestPath == "" {
		return "", fmt.Errorf("no video files found in %s", dir)
	}

	return latestPath, nil
}

// RunUploadWithDependencies runs the upload command with injected dependencies (for testing)
func RunUploadWithDependencies(
	ctx context.Context,
	driveClient distribution.DriveClient,
	folderID string,
	path string,
	output io.Writer,
) error {
	service := appdist.NewUploadService(driveClient, folderID, output)

	fmt.Fprintf(output, "Publishing %s...\n", filepath.Base(path))
	result, err := service.PublishExport(ctx, path)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Fprintf(output, "Clip uploaded successfully!\n")
	fmt.Fprintf(output, "  File ID: %s\n", result.FileID)
	fmt.Fprintf(output, "  Size: %.2f MB\n", float64(result.Size)/1024/1024)
	fmt.Fprintf(output, "  Shareable URL: %s\n", result.ShareableURL)
	return nil
}
