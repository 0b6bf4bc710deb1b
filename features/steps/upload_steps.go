//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clip-editor/cmd"
	"clip-editor/infrastructure/drive"

	googledrive "google.golang.org/api/drive/v3"

	"github.com/cucumber/godog"
)

// uploadMockDriveService is a mock Drive API for upload testing
type uploadMockDriveService struct {
	files          []*googledrive.File
	uploadedFiles  []*googledrive.File
	uploadedMime   map[string]string
	sharedIDs      []string
	deletedFileIDs []string
	uploadError    error
	shareError     error
	nextFileID     int
}

func newUploadMockDriveService() *uploadMockDriveService {
	return &uploadMockDriveService{
		uploadedMime: make(map[string]string),
		nextFileID:   1,
	}
}

func (m *uploadMockDriveService) ListFiles(ctx context.Context, query string, fields string, orderBy string) ([]*googledrive.File, error) {
	// Filter files by name if query contains "name = " (for FindFileByName support)
	start := strings.Index(query, "name = '")
	if start < 0 {
		return m.files, nil
	}
	start += len("name = '")
	end := strings.Index(query[start:], "'")
	if end < 0 {
		return m.files, nil
	}
	target := query[start : start+end]

	var result []*googledrive.File
	for _, f := range m.files {
		if f.Name == target {
			result = append(result, f)
		}
	}
	return result, nil
}

func (m *uploadMockDriveService) DeleteFile(ctx context.Context, fileID string) error {
	m.deletedFileIDs = append(m.deletedFileIDs, fileID)
	kept := m.files[:0]
	for _, f := range m.files {
		if f.Id != fileID {
			kept = append(kept, f)
		}
	}
	m.files = kept
	return nil
}

func (m *uploadMockDriveService) UploadFile(ctx context.Context, fileName, mimeType, folderID, localPath string) (*googledrive.File, error) {
	if m.uploadError != nil {
		return nil, m.uploadError
	}
	info, err := os.Stat(localPath)
	if err != nil {
		return nil, err
	}
	f := &googledrive.File{
		Id:      fmt.Sprintf("uploaded-%d", m.nextFileID),
		Name:    fileName,
		Size:    info.Size(),
		Parents: []string{folderID},
	}
	m.nextFileID++
	m.uploadedFiles = append(m.uploadedFiles, f)
	m.uploadedMime[fileName] = mimeType
	m.files = append(m.files, f)
	return f, nil
}

func (m *uploadMockDriveService) ShareWithAnyone(ctx context.Context, fileID string) error {
	if m.shareError != nil {
		return m.shareError
	}
	m.sharedIDs = append(m.sharedIDs, fileID)
	return nil
}

type uploadContext struct {
	tempDir  string
	folderID string
	service  *uploadMockDriveService
	path     string
	output   *bytes.Buffer
	err      error
}

var SharedUploadContext = &uploadContext{}

func InitializeUploadScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedUploadContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "upload-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.folderID = "exports-folder"
		testCtx.service = newUploadMockDriveService()
		testCtx.path = ""
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^an exported clip "([^"]*)" of (\d+) bytes$`, testCtx.anExportedClipOfBytes)
	ctx.Step(`^the Drive folder already contains "([^"]*)"$`, testCtx.theDriveFolderAlreadyContains)
	ctx.Step(`^no Drive folder is configured$`, testCtx.noDriveFolderIsConfigured)
	ctx.Step(`^Drive rejects uploads with "([^"]*)"$`, testCtx.driveRejectsUploadsWith)
	ctx.Step(`^I upload "([^"]*)"$`, testCtx.iUpload)
	ctx.Step(`^the upload should succeed$`, testCtx.theUploadShouldSucceed)
	ctx.Step(`^the upload output should contain "([^"]*)"$`, testCtx.theUploadOutputShouldContain)
	ctx.Step(`^"([^"]*)" should have been uploaded as "([^"]*)"$`, testCtx.shouldHaveBeenUploadedAs)
	ctx.Step(`^the uploaded file should be shared publicly$`, testCtx.theUploadedFileShouldBeSharedPublicly)
	ctx.Step(`^the previous copy should have been deleted$`, testCtx.thePreviousCopyShouldHaveBeenDeleted)
	ctx.Step(`^the upload should fail with "([^"]*)"$`, testCtx.theUploadShouldFailWith)
}

func (u *uploadContext) anExportedClipOfBytes(name string, size int) error {
	return os.WriteFile(filepath.Join(u.tempDir, name), bytes.Repeat([]byte{0}, size), 0644)
}

func (u *uploadContext) theDriveFolderAlreadyContains(name string) error {
	u.service.files = append(u.service.files, &googledrive.File{
		Id:      "existing-1",
		Name:    name,
		Size:    1024,
		Parents: []string{u.folderID},
	})
	return nil
}

func (u *uploadContext) noDriveFolderIsConfigured() error {
	u.folderID = ""
	return nil
}

func (u *uploadContext) driveRejectsUploadsWith(reason string) error {
	u.service.uploadError = fmt.Errorf("%s", reason)
	return nil
}

func (u *uploadContext) iUpload(name string) error {
	client, err := drive.NewClient(context.Background(), "", drive.WithDriveService(u.service))
	if err != nil {
		return err
	}
	u.path = filepath.Join(u.tempDir, name)
	u.err = cmd.RunUploadWithDependencies(context.Background(), client, u.folderID, u.path, u.output)
	return nil
}

func (u *uploadContext) theUploadShouldSucceed() error {
	if u.err != nil {
		return fmt.Errorf("unexpected error: %v", u.err)
	}
	if !strings.Contains(u.output.String(), "Clip uploaded successfully!") {
		return fmt.Errorf("expected success message, got:\n%s", u.output.String())
	}
	return nil
}

func (u *uploadContext) theUploadOutputShouldContain(expected string) error {
	if !strings.Contains(u.output.String(), expected) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", expected, u.output.String())
	}
	return nil
}

func (u *uploadContext) shouldHaveBeenUploadedAs(name, mimeType string) error {
	got, ok := u.service.uploadedMime[name]
	if !ok {
		return fmt.Errorf("%s was not uploaded", name)
	}
	if got != mimeType {
		return fmt.Errorf("expected %s to be uploaded as %s, got %s", name, mimeType, got)
	}
	return nil
}

func (u *uploadContext) theUploadedFileShouldBeSharedPublicly() error {
	if len(u.service.uploadedFiles) == 0 {
		return fmt.Errorf("nothing was uploaded")
	}
	last := u.service.uploadedFiles[len(u.service.uploadedFiles)-1]
	for _, id := range u.service.sharedIDs {
		if id == last.Id {
			return nil
		}
	}
	return fmt.Errorf("expected %s to be shared, shared: %v", last.Id, u.service.sharedIDs)
}

func (u *uploadContext) thePreviousCopyShouldHaveBeenDeleted() error {
	for _, id := range u.service.deletedFileIDs {
		if id == "existing-1" {
			return nil
		}
	}
	return fmt.Errorf("expected existing-1 to be deleted, deleted: %v", u.service.deletedFileIDs)
}

func (u *uploadContext) theUploadShouldFailWith(expected string) error {
	if u.err == nil {
		return fmt.Errorf("expected upload to fail with %q", expected)
	}
	if !strings.Contains(u.err.Error(), expected) {
		return fmt.Errorf("expected error containing %q, got: %v", expected, u.err)
	}
	return nil
}
