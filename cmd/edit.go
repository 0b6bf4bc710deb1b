package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	appdist "clip-editor/application/distribution"
	appediting "clip-editor/application/editing"
	"clip-editor/domain/editing"
	"clip-editor/domain/filter"
	"clip-editor/domain/video"
	"clip-editor/infrastructure/picker"
	"clip-editor/infrastructure/prompt"

	"github.com/spf13/cobra"
)

// Edit menu entries
const (
	actionImport      = "Import clip"
	actionFilter      = "Select filter"
	actionClearFilter = "Clear filter"
	actionTrim        = "Set trim range"
	actionExport      = "Export"
	actionPublish     = "Publish last export to Google Drive"
	actionStatus      = "Show status"
	actionQuit        = "Quit"
)

var editWatch bool

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open an interactive editing session",
	Long: `Open an editing session with a live preview window.

Pick a clip from the configured import directory, preview it through a color
filter, set a trim range and export it. Exports run in the background; the menu
stays usable and reports when they finish. Quitting cancels a running export
and removes its partial output.

With --watch the import step waits for a new video file to be written into the
import directory instead of listing the files already there.

Example:
  clip-editor edit
  clip-editor edit --watch`,
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().BoolVar(&editWatch, "watch", false, "Import the next clip written into the import directory")
}

func runEdit(cmd *cobra.Command, args []string) error {
	c, err := configOrDefault()
	if err != nil {
		return err
	}
	logger := newLogger(c)
	ctx := cmd.Context()

	var source editing.MediaSource = picker.NewPrompt(c.Paths.ImportDirectory, prompt.Default)
	if editWatch {
		source = picker.NewWatch(c.Paths.ImportDirectory, picker.WithWatchLogger(logger))
	}

	deps, err := productionDeps(c, source, logger)
	if err != nil {
		return err
	}
	if err := verifyEngine(ctx, deps.Engine); err != nil {
		return err
	}

	var publisher Publisher
	if c.DriveConfigured() {
		client, err := newDriveClient(ctx, c)
		if err != nil {
			logger.Warn("google drive unavailable, publishing disabled", "error", err)
		} else {
			publisher = appdist.NewUploadService(client, c.Google.ExportsFolderID, os.Stdout)
		}
	}

	ctrl, err := deps.NewController()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	return RunEditWithDependencies(ctx, ctrl, prompt.Default, publisher, os.Stdout)
}

// RunEditWithDependencies drives ctrl from an interactive menu until the user
// quits (for testing). A nil publisher hides the publish action.
func RunEditWithDependencies(
	ctx context.Context,
	ctrl *appediting.Controller,
	prompter prompt.Prompter,
	publisher Publisher,
	output io.Writer,
) error {
	fmt.Fprintln(output, "clip-editor: import a clip to begin.")

	for {
		printEvents(output, ctrl.Events())

		actions := []string{actionImport, actionFilter, actionClearFilter, actionTrim, actionExport}
		if publisher != nil {
			actions = append(actions, actionPublish)
		}
		actions = append(actions, actionStatus, actionQuit)

		choice, err := prompter.Select(fmt.Sprintf("[%s] What next?", ctrl.Snapshot().State()), actions)
		if errors.Is(err, prompt.ErrInterrupted) {
			choice = actionQuit
		} else if err != nil {
			return err
		}

		switch choice {
		case actionImport:
			err = editImport(ctx, ctrl, output)
		case actionFilter:
			err = editSelectFilter(ctx, ctrl, prompter, output)
		case actionClearFilter:
			err = ctrl.ClearFilter()
		case actionTrim:
			err = editTrim(ctrl, prompter)
		case actionExport:
			err = editExport(ctrl, output)
		case actionPublish:
			err = editPublish(ctx, ctrl, publisher, output)
		case actionStatus:
			printStatus(output, ctrl.Snapshot())
		case actionQuit:
			if quit, qerr := confirmQuit(ctrl, prompter); qerr != nil || quit {
				return nil
			}
		}

		if err != nil {
			if errors.Is(err, editing.ErrSessionClosed) {
				return err
			}
			if errors.Is(err, prompt.ErrInterrupted) {
				continue
			}
			fmt.Fprintf(output, "Error: %v\n", err)
		}
	}
}

// interruptible scopes one blocking menu step to the next Ctrl-C. The step
// ignores cancellation of parent, so an interrupt that dismissed an earlier
// step does not cancel later ones.
var interruptible = func(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.WithoutCancel(parent), os.Interrupt)
}

func editImport(ctx context.Context, ctrl *appediting.Controller, output io.Writer) error {
	pickCtx, stop := interruptible(ctx)
	defer stop()

	err := ctrl.ImportClip(pickCtx)
	if errors.Is(err, editing.ErrImportCancelled) {
		fmt.Fprintln(output, "Import cancelled.")
		return nil
	}
	return err
}

func editSelectFilter(ctx context.Context, ctrl *appediting.Controller, prompter prompt.Prompter, output io.Writer) error {
	filters := ctrl.Filters()
	byName := make(map[string]filter.ID, len(filters))
	options := make([]string, 0, len(filters)+1)
	for _, f := range filters {
		byName[f.Name] = f.ID
		options = append(options, f.Name)
	}
	options = append(options, picker.CancelOption)

	choice, err := prompter.Select("Filter:", options)
	if err != nil {
		return err
	}
	id, ok := byName[choice]
	if !ok {
		return nil
	}

	pending, err := ctrl.SelectFilter(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(output, "Building %s preview...\n", choice)
	waitCtx, stop := interruptible(ctx)
	defer stop()
	outcome, err := pending.Wait(waitCtx)
	if err != nil {
		return err
	}
	switch outcome.Kind {
	case editing.OutcomeCompleted:
		fmt.Fprintf(output, "Previewing with %s.\n", choice)
	case editing.OutcomeFailed:
		return outcome.Err
	}
	return nil
}

func editTrim(ctrl *appediting.Controller, prompter prompt.Prompter) error {
	session := ctrl.Snapshot()
	if !session.HasSource() {
		return editing.ErrNoSource
	}

	startIn, err := prompter.Input("Start (HH:MM:SS[.mmm] or seconds):", session.Trim.Start.String())
	if err != nil {
		return err
	}
	endIn, err := prompter.Input("End (HH:MM:SS[.mmm] or seconds):", session.Trim.End.String())
	if err != nil {
		return err
	}

	start, end, err := parseRange(startIn, endIn, session.Source.Duration)
	if err != nil {
		return err
	}
	return ctrl.SetTrimRange(start, end)
}

func editExport(ctrl *appediting.Controller, output io.Writer) error {
	if _, err := ctrl.ExportCurrent(); err != nil {
		return err
	}
	fmt.Fprintln(output, "Export started; it keeps running while you edit.")
	return nil
}

func editPublish(ctx context.Context, ctrl *appediting.Controller, publisher Publisher, output io.Writer) error {
	session := ctrl.Snapshot()
	if session.Export.Phase != editing.ExportCompleted {
		return fmt.Errorf("nothing to publish: the last export is %s", session.Export)
	}

	publishCtx, stop := interruptible(ctx)
	defer stop()
	result, err := publisher.PublishExport(publishCtx, session.Export.Output)
	if err != nil {
		return err
	}
	fmt.Fprintf(output, "Published: %s\n", result.ShareableURL)
	return nil
}

func confirmQuit(ctrl *appediting.Controller, prompter prompt.Prompter) (bool, error) {
	if ctrl.Snapshot().State() != editing.StateExporting {
		return true, nil
	}
	return prompter.Confirm("An export is still running. Quit and cancel it?", false)
}

// printEvents reports the state changes that happened since the last prompt
func printEvents(output io.Writer, events <-chan editing.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			printEvent(output, ev)
		default:
			return
		}
	}
}

func printEvent(output io.Writer, ev editing.Event) {
	s := ev.Session
	switch ev.Type {
	case editing.EventImported:
		fmt.Fprintf(output, "Loaded %s (%s).\n", s.Source.Path, video.Timestamp(s.Source.Duration))
	case editing.EventTrimChanged:
		fmt.Fprintf(output, "Trim set to %s.\n", s.Trim)
	case editing.EventFilterFailed:
		fmt.Fprintf(output, "Filter preview failed: %v\n", ev.Err)
	case editing.EventExportCompleted:
		fmt.Fprintf(output, "Export finished: %s\n", s.Export.Output)
	case editing.EventExportFailed:
		fmt.Fprintf(output, "Export failed: %v\n", ev.Err)
	}
}

func printStatus(output io.Writer, s editing.EditSession) {
	fmt.Fprintf(output, "State:  %s\n", s.State())
	if !s.HasSource() {
		return
	}
	label := string(s.Filter)
	if s.Filter == filter.None {
		label = "none"
	}
	fmt.Fprintf(output, "Clip:   %s (%s)\n", s.Source.Path, video.Timestamp(s.Source.Duration))
	fmt.Fprintf(output, "Filter: %s\n", label)
	fmt.Fprintf(output, "Trim:   %s\n", s.Trim)
	fmt.Fprintf(output, "Export: %s\n", s.Export)
}
