//go:build integration

package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	appediting "clip-editor/application/editing"
	"clip-editor/cmd"
	"clip-editor/domain/distribution"
	"clip-editor/domain/editing"
	"clip-editor/domain/filter"
	"clip-editor/domain/video"
	"clip-editor/infrastructure/picker"

	"github.com/cucumber/godog"
	"github.com/hashicorp/go-hclog"
)

// mockEngine records export requests and hands out graphs that stream nothing
type mockEngine struct {
	mu          sync.Mutex
	exports     []exportCall
	failFilters map[filter.ID]string
	exportError string
}

type exportCall struct {
	req        video.ExportRequest
	outputPath string
}

func (m *mockEngine) BuildPreviewGraph(ctx context.Context, clip video.ClipLocation, f filter.Filter, bounds editing.Bounds) (editing.PreviewGraph, error) {
	if reason, ok := m.failFilters[f.ID]; ok {
		return nil, errors.New(reason)
	}
	return &mockGraph{filter: f.ID, frames: make(chan editing.Frame)}, nil
}

func (m *mockEngine) Export(ctx context.Context, req *video.ExportRequest, outputPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exports = append(m.exports, exportCall{req: *req, outputPath: outputPath})
	if m.exportError != "" {
		return errors.New(m.exportError)
	}
	return nil
}

type mockGraph struct {
	filter filter.ID
	frames chan editing.Frame
	once   sync.Once
}

func (g *mockGraph) Filter() filter.ID { return g.filter }
func (g *mockGraph) Frames() <-chan editing.Frame { return g.frames }

func (g *mockGraph) Stop() error {
	g.once.Do(func() { close(g.frames) })
	return nil
}

// mockProber reports durations for known clips
type mockProber struct {
	durations map[string]float64
}

func (m *mockProber) Duration(ctx context.Context, path string) (float64, error) {
	d, ok := m.durations[path]
	if !ok {
		return 0, fmt.Errorf("%s: Invalid data found when processing input", path)
	}
	return d, nil
}

// mockFileChecker simulates file existence and records removals
type mockFileChecker struct {
	mu            sync.Mutex
	existingFiles map[string]bool
	removed       []string
}

func (m *mockFileChecker) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.existingFiles[path]
}

func (m *mockFileChecker) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, path)
	return nil
}

// mockSurface records what is shown
type mockSurface struct {
	mu      sync.Mutex
	content editing.Content
}

func (m *mockSurface) Attach(bounds editing.Bounds) error { return nil }
func (m *mockSurface) Play() error { return nil }
func (m *mockSurface) Close() error { return nil }

func (m *mockSurface) SetContent(content editing.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = content
	return nil
}

// mockPublisher records published exports
type mockPublisher struct {
	published []string
}

func (m *mockPublisher) PublishExport(ctx context.Context, path string) (*distribution.UploadResult, error) {
	m.published = append(m.published, path)
	return &distribution.UploadResult{
		FileID:       "drive-1",
		ShareableURL: "https://drive.google.com/file/d/drive-1/view?usp=sharing",
	}, nil
}

// sessionContext holds test state for edit session scenarios
type sessionContext struct {
	exportDir string
	source    string
	engine    *mockEngine
	prober    *mockProber
	files     *mockFileChecker
	surface   *mockSurface
	publisher *mockPublisher
	output    *bytes.Buffer
	result    string
	err       error
}

// SharedSessionContext is reset before each scenario via Before hook
var SharedSessionContext *sessionContext

func getSessionContext() *sessionContext {
	return SharedSessionContext
}

func InitializeSessionScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		SharedSessionContext = &sessionContext{
			exportDir: "/exports",
			engine:    &mockEngine{failFilters: make(map[filter.ID]string)},
			prober:    &mockProber{durations: make(map[string]float64)},
			files:     &mockFileChecker{existingFiles: make(map[string]bool)},
			surface:   &mockSurface{},
			output:    &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		SharedSessionContext = nil
		return c, nil
	})

	ctx.Step(`^the export directory is "([^"]*)"$`, theExportDirectoryIs)
	ctx.Step(`^a (\d+) second clip at "([^"]*)"$`, aSecondClipAt)
	ctx.Step(`^no clip exists at "([^"]*)"$`, noClipExistsAt)
	ctx.Step(`^the filter "([^"]*)" cannot be previewed$`, theFilterCannotBePreviewed)
	ctx.Step(`^the encoder fails with "([^"]*)"$`, theEncoderFailsWith)
	ctx.Step(`^publishing to Google Drive is enabled$`, publishingIsEnabled)
	ctx.Step(`^I export the clip with filter "([^"]*)" from "([^"]*)" to "([^"]*)"$`, iExportTheClipWithFilterFromTo)
	ctx.Step(`^I export the clip from "([^"]*)" to "([^"]*)"$`, iExportTheClipFromTo)
	ctx.Step(`^I export the clip with filter "([^"]*)"$`, iExportTheClipWithFilter)
	ctx.Step(`^I export the clip without edits$`, iExportTheClipWithoutEdits)
	ctx.Step(`^the export should succeed with output "([^"]*)"$`, theExportShouldSucceedWithOutput)
	ctx.Step(`^the encoder should have received range "([^"]*)" and filter "([^"]*)"$`, theEncoderShouldHaveReceivedRangeAndFilter)
	ctx.Step(`^the encoder should have received the whole clip without a filter$`, theEncoderShouldHaveReceivedTheWholeClip)
	ctx.Step(`^the export should have been published$`, theExportShouldHaveBeenPublished)
	ctx.Step(`^I should receive an error about an invalid trim range$`, iShouldReceiveAnErrorAboutAnInvalidTrimRange)
	ctx.Step(`^I should receive an error about the filter preview$`, iShouldReceiveAnErrorAboutTheFilterPreview)
	ctx.Step(`^I should receive an error about an unknown filter$`, iShouldReceiveAnErrorAboutAnUnknownFilter)
	ctx.Step(`^I should receive an error containing "([^"]*)"$`, iShouldReceiveAnErrorContaining)
	ctx.Step(`^no export should have run$`, noExportShouldHaveRun)
	ctx.Step(`^the partial output "([^"]*)" should have been removed$`, thePartialOutputShouldHaveBeenRemoved)
}

func theExportDirectoryIs(dir string) error {
	getSessionContext().exportDir = dir
	return nil
}

func aSecondClipAt(seconds, path string) error {
	s := getSessionContext()
	d, err := strconv.ParseFloat(seconds, 64)
	if err != nil {
		return err
	}
	s.source = path
	s.files.existingFiles[path] = true
	s.prober.durations[path] = d
	return nil
}

func noClipExistsAt(path string) error {
	getSessionContext().source = path
	return nil
}

func theFilterCannotBePreviewed(id string) error {
	getSessionContext().engine.failFilters[filter.ID(id)] = "No such filter: '" + id + "'"
	return nil
}

func theEncoderFailsWith(reason string) error {
	getSessionContext().engine.exportError = reason
	return nil
}

func publishingIsEnabled() error {
	getSessionContext().publisher = &mockPublisher{}
	return nil
}

func (s *sessionContext) runExport(input cmd.ExportInput) {
	deps := cmd.SessionDeps{
		Source:  picker.Static(s.source),
		Files:   s.files,
		Prober:  s.prober,
		Surface: s.surface,
		Engine:  s.engine,
		Catalog: filter.DefaultCatalog(),
		Remover: s.files,
		Options: appediting.Options{
			ExportDir: s.exportDir,
			Logger:    hclog.NewNullLogger(),
			NewID:     func() string { return "1a2b3c4d" },
		},
	}

	var publisher cmd.Publisher
	if s.publisher != nil {
		publisher = s.publisher
	}
	s.result, s.err = cmd.RunExportWithDependencies(context.Background(), deps, input, publisher, s.output)
}

func iExportTheClipWithFilterFromTo(id, start, end string) error {
	getSessionContext().runExport(cmd.ExportInput{Filter: id, StartTime: start, EndTime: end})
	return nil
}

func iExportTheClipFromTo(start, end string) error {
	getSessionContext().runExport(cmd.ExportInput{StartTime: start, EndTime: end})
	return nil
}

func iExportTheClipWithFilter(id string) error {
	getSessionContext().runExport(cmd.ExportInput{Filter: id})
	return nil
}

func iExportTheClipWithoutEdits() error {
	getSessionContext().runExport(cmd.ExportInput{})
	return nil
}

func theExportShouldSucceedWithOutput(expected string) error {
	s := getSessionContext()
	if s.err != nil {
		return fmt.Errorf("unexpected error: %v", s.err)
	}
	if s.result != expected {
		return fmt.Errorf("expected output %q, got %q", expected, s.result)
	}
	if !strings.Contains(s.output.String(), "Successfully created: "+expected) {
		return fmt.Errorf("expected success message, got:\n%s", s.output.String())
	}
	return nil
}

func (s *sessionContext) lastExport() (exportCall, error) {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	if len(s.engine.exports) == 0 {
		return exportCall{}, fmt.Errorf("no export was run")
	}
	return s.engine.exports[len(s.engine.exports)-1], nil
}

func theEncoderShouldHaveReceivedRangeAndFilter(expectedRange, expectedFilter string) error {
	call, err := getSessionContext().lastExport()
	if err != nil {
		return err
	}
	if got := call.req.Range.String(); got != expectedRange {
		return fmt.Errorf("expected range %s, got %s", expectedRange, got)
	}
	if got := string(call.req.Filter.ID); got != expectedFilter {
		return fmt.Errorf("expected filter %q, got %q", expectedFilter, got)
	}
	return nil
}

func theEncoderShouldHaveReceivedTheWholeClip() error {
	call, err := getSessionContext().lastExport()
	if err != nil {
		return err
	}
	if !call.req.Range.IsFull(call.req.Source.Duration) {
		return fmt.Errorf("expected the whole clip, got %s", call.req.Range)
	}
	if call.req.HasFilter() {
		return fmt.Errorf("expected no filter, got %q", call.req.Filter.ID)
	}
	return nil
}

func theExportShouldHaveBeenPublished() error {
	s := getSessionContext()
	if s.err != nil {
		return fmt.Errorf("unexpected error: %v", s.err)
	}
	if len(s.publisher.published) != 1 || s.publisher.published[0] != s.result {
		return fmt.Errorf("expected %s to be published, got %v", s.result, s.publisher.published)
	}
	if !strings.Contains(s.output.String(), "Shareable URL:") {
		return fmt.Errorf("expected shareable URL in output, got:\n%s", s.output.String())
	}
	return nil
}

func iShouldReceiveAnErrorAboutAnInvalidTrimRange() error {
	s := getSessionContext()
	if !errors.Is(s.err, editing.ErrInvalidTrimRange) {
		return fmt.Errorf("expected invalid trim range error, got: %v", s.err)
	}
	return nil
}

func iShouldReceiveAnErrorAboutTheFilterPreview() error {
	s := getSessionContext()
	var buildErr *editing.FilterBuildError
	if !errors.As(s.err, &buildErr) {
		return fmt.Errorf("expected filter preview error, got: %v", s.err)
	}
	return nil
}

func iShouldReceiveAnErrorAboutAnUnknownFilter() error {
	s := getSessionContext()
	if !errors.Is(s.err, editing.ErrUnknownFilter) {
		return fmt.Errorf("expected unknown filter error, got: %v", s.err)
	}
	return nil
}

func iShouldReceiveAnErrorContaining(expected string) error {
	s := getSessionContext()
	if s.err == nil {
		return fmt.Errorf("expected error containing %q, got nil", expected)
	}
	if !strings.Contains(s.err.Error(), expected) {
		return fmt.Errorf("expected error containing %q, got: %v", expected, s.err)
	}
	return nil
}

func noExportShouldHaveRun() error {
	s := getSessionContext()
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	if len(s.engine.exports) != 0 {
		return fmt.Errorf("expected no export, got %d", len(s.engine.exports))
	}
	return nil
}

func thePartialOutputShouldHaveBeenRemoved(path string) error {
	s := getSessionContext()
	s.files.mu.Lock()
	defer s.files.mu.Unlock()
	for _, removed := range s.files.removed {
		if removed == path {
			return nil
		}
	}
	return fmt.Errorf("expected %s to be removed, removed: %v", path, s.files.removed)
}
