package cmd

import (
	"context"
	"fmt"
	"time"

	appediting "clip-editor/application/editing"
	"clip-editor/domain/distribution"
	"clip-editor/domain/editing"
	"clip-editor/domain/filter"
	"clip-editor/domain/video"
	"clip-editor/infrastructure/config"
	"clip-editor/infrastructure/drive"
	"clip-editor/infrastructure/ffmpeg"
	"clip-editor/infrastructure/filesystem"
	"clip-editor/infrastructure/surface"

	"github.com/hashicorp/go-hclog"
)

// Publisher uploads a finished export and returns where it can be shared from
type Publisher interface {
	PublishExport(ctx context.Context, path string) (*distribution.UploadResult, error)
}

// SessionDeps are the collaborators an edit session is built from
type SessionDeps struct {
	Source  editing.MediaSource
	Files   video.FileChecker
	Prober  editing.Prober
	Surface editing.Surface
	Engine  editing.Engine
	Catalog *filter.Catalog
	Remover video.FileRemover
	Options appediting.Options
}

// NewController starts an edit session over deps
func (d SessionDeps) NewController() (*appediting.Controller, error) {
	return appediting.NewController(d.Source, d.Files, d.Prober, d.Surface, d.Engine, d.Catalog, d.Remover, d.Options)
}

// productionDeps wires the ffmpeg engine, the preview window and the local
// filesystem for the given media source
func productionDeps(c *config.Config, source editing.MediaSource, logger hclog.Logger) (SessionDeps, error) {
	catalog, err := filter.DefaultCatalog().Restrict(c.Filters.Enabled)
	if err != nil {
		return SessionDeps{}, fmt.Errorf("invalid filters.enabled in config: %w", err)
	}

	preset, err := video.ParsePreset(c.Export.Preset)
	if err != nil {
		return SessionDeps{}, fmt.Errorf("invalid export.preset in config: %w", err)
	}

	fs := filesystem.NewChecker()
	return SessionDeps{
		Source:  source,
		Files:   fs,
		Prober:  ffmpeg.NewProber(ffmpeg.WithFFprobePath(c.FFmpeg.FFprobePath)),
		Surface: surface.NewWindow("clip-editor", logger),
		Engine:  ffmpeg.NewEngine(ffmpeg.WithFFmpegPath(c.FFmpeg.FFmpegPath), ffmpeg.WithLogger(logger)),
		Catalog: catalog,
		Remover: fs,
		Options: appediting.Options{
			ExportDir: c.Paths.ExportDirectory,
			Preset:    preset,
			Container: c.Export.Container,
			Bounds:    editing.Bounds{Width: c.Preview.Width, Height: c.Preview.Height},
			Logger:    logger,
		},
	}, nil
}

// newDriveClient authorizes as the user when a token file is configured,
// otherwise as the service account in the credentials file
func newDriveClient(ctx context.Context, c *config.Config) (*drive.Client, error) {
	if !c.DriveConfigured() {
		return nil, fmt.Errorf("google drive is not configured; run 'clip-editor setup' and set google.credentials_file and google.exports_folder_id")
	}

	if c.Google.TokenFile != "" {
		return drive.NewClientWithOAuth(ctx, drive.OAuthConfig{
			CredentialsFile: c.Google.CredentialsFile,
			TokenFile:       c.Google.TokenFile,
		})
	}
	return drive.NewClient(ctx, c.Google.CredentialsFile)
}

// verifyEngine checks the engine's external tooling when it supports that
func verifyEngine(ctx context.Context, engine editing.Engine) error {
	if verifiable, ok := engine.(interface{ VerifyInstalled(context.Context) error }); ok {
		verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := verifiable.VerifyInstalled(verifyCtx); err != nil {
			return fmt.Errorf("ffmpeg verification failed: %w", err)
		}
	}
	return nil
}
