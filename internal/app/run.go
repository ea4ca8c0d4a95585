package app

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/chartbook/internal/compile"
	"github.com/vk/chartbook/internal/ctxlog"
	"github.com/vk/chartbook/internal/engine"
	"github.com/vk/chartbook/internal/incremental"
	"github.com/vk/chartbook/internal/manifest"
	"github.com/vk/chartbook/internal/notify"
	"github.com/vk/chartbook/internal/preview"
	"github.com/vk/chartbook/internal/render"
)

// Run executes one build: load the book, compile it against the previous
// manifest, render what changed, prune what disappeared and persist the
// new manifest. With a preview port configured it then serves the output
// directory until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	result, err := a.build(ctx)
	if err != nil {
		return err
	}

	if a.config.NotifyURL != "" {
		summary := buildSummary(a.config.BookPath, result)
		if err := notify.NewClient(a.config.NotifyURL).Send(ctx, summary); err != nil {
			// The artifacts are already on disk; a dead dashboard endpoint
			// must not fail the build.
			a.logger.Warn("Build notification failed.", "error", err)
		}
	}

	if a.config.PreviewPort > 0 {
		srv := preview.NewServer(a.config.OutDir, preview.NewStatus(a.config.BookPath, result, a.config.Force))
		return srv.ListenAndServe(ctx, a.config.PreviewPort)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// build runs the compile pipeline and brings the output directory in sync
// with its result.
func (a *App) build(ctx context.Context) (*compile.Result, error) {
	collection, err := engine.LoadBook(ctx, a.config.BookPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	a.logger.Debug("Book loaded.", "items", collection.Len(), "datasets", len(collection.Datasets()))

	prior := manifest.Load(ctx, a.config.ManifestPath)

	result, err := compile.Compile(ctx, collection, compile.Options{
		BaseName: a.config.BaseName,
		Prior:    prior,
		Force:    a.config.Force,
	})
	if err != nil {
		return nil, fmt.Errorf("compilation failed: %w", err)
	}

	generated, skipped := 0, 0
	for _, page := range result.Pages {
		decision, ok := result.Decision(page.UnitID)
		if ok && !decision.NeedsGenerate() {
			skipped++
			continue
		}
		if _, err := a.renderer.WritePage(ctx, a.config.OutDir, page); err != nil {
			return nil, err
		}
		generated++
	}

	removed := 0
	for _, d := range result.Decisions {
		if d.Status != incremental.StatusRemoved {
			continue
		}
		path := render.ArtifactPath(a.config.OutDir, d.UnitID)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale artifact %s: %w", path, err)
		}
		a.logger.Debug("Stale artifact removed.", "unit", d.UnitID, "path", path)
		removed++
	}

	// The manifest is written only after every artifact succeeded, so a
	// failed run retries the same units next time.
	if err := result.Next.Write(ctx, a.config.ManifestPath); err != nil {
		return nil, err
	}

	a.logger.Info("Build finished.",
		"pages", len(result.Pages),
		"views", len(result.Views),
		"generated", generated,
		"unchanged", skipped,
		"removed", removed,
	)
	return result, nil
}

func buildSummary(bookPath string, result *compile.Result) notify.Summary {
	s := notify.Summary{Book: bookPath}
	for _, d := range result.Decisions {
		switch d.Status {
		case incremental.StatusUnchanged:
			s.Unchanged++
		case incremental.StatusRemoved:
			s.Removed++
		default:
			s.Generated++
		}
	}
	return s
}
