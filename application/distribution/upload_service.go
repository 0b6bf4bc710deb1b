package distribution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"clip-editor/domain/distribution"
)

// ErrNoFolder is returned when publishing without a Drive folder configured
var ErrNoFolder = errors.New("google drive exports folder is not configured")

// UploadService publishes exported clips to a Google Drive folder
type UploadService struct {
	driveClient distribution.DriveClient
	folderID    string
	output      io.Writer
}

// NewUploadService creates a new upload service
func NewUploadService(client distribution.DriveClient, folderID string, output io.Writer) *UploadService {
	if output == nil {
		output = io.Discard
	}
	return &UploadService{
		driveClient: client,
		folderID:    folderID,
		output:      output,
	}
}

// PublishExport uploads an exported clip and makes it readable by anyone with
// the link. A file with the same name already in the folder is replaced.
func (s *UploadService) PublishExport(ctx context.Context, path string) (*distribution.UploadResult, error) {
	if s.folderID == "" {
		return nil, ErrNoFolder
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("export does not exist: %s", path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("export is a directory: %s", path)
	}

	fileName := filepath.Base(path)

	existing, err := s.driveClient.FindFileByName(ctx, s.folderID, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing file: %w", err)
	}
	if existing != nil {
		fmt.Fprintf(s.output, "      Replacing existing %s (%.1f MB)\n", existing.Name, float64(existing.Size)/1024/1024)
		if err := s.driveClient.DeletePermanently(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to delete existing file %s: %w", existing.Name, err)
		}
	}

	req := distribution.UploadRequest{
		LocalPath: path,
		FileName:  fileName,
		FolderID:  s.folderID,
		MimeType:  distribution.MimeTypeFor(path),
	}

	fmt.Fprintf(s.output, "      Uploading %s (%.1f MB)...\n", fileName, float64(info.Size())/1024/1024)
	result, err := s.driveClient.UploadAndShare(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload and share %s: %w", fileName, err)
	}

	return result, nil
}
