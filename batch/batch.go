// Package batch converts every image under a directory into a quilt, tracking
// progress in a ledger so interrupted runs resume where they stopped.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/stevecastle/quiltpainter/depthgen"
	"github.com/stevecastle/quiltpainter/ledger"
	"github.com/stevecastle/quiltpainter/paint"
	"github.com/stevecastle/quiltpainter/platform"
)

// CacheDirName is the RGBD cache directory kept inside the input directory.
const CacheDirName = ".rgbd_cache"

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Options configures a batch run.
type Options struct {
	InputDir  string
	OutputDir string
	// Quilt is applied to every image. The caption may contain "{}", which
	// is replaced with each input's base name.
	Quilt     paint.Config
	Generator *depthgen.Generator
	Ledger    *ledger.Ledger
	Logger    *log.Logger
}

// Summary counts the outcome of a run.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
	// Playlist is the exported m3u file.
	Playlist string
}

type runner struct {
	opts    Options
	logger  *log.Logger
	summary Summary
}

// Run processes the input directory and exports the playlist. Failures of
// single images are logged and recorded; Run only fails on ledger or
// filesystem errors and on cancellation.
func Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.Generator == nil || opts.Ledger == nil {
		return Summary{}, errors.New("batch: generator and ledger are required")
	}
	r := &runner{opts: opts, logger: opts.Logger}
	if r.logger == nil {
		r.logger = log.Default()
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return Summary{}, fmt.Errorf("create output dir: %w", err)
	}

	err := filepath.WalkDir(opts.InputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == CacheDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if archiveKind(path) != "" {
			return r.processArchive(ctx, path)
		}
		if imageExts[strings.ToLower(filepath.Ext(path))] {
			return r.process(ctx, path, path)
		}
		return nil
	})
	if err != nil {
		return r.summary, err
	}

	m3u, err := opts.Ledger.ExportM3U(ctx, opts.OutputDir)
	if err != nil {
		return r.summary, fmt.Errorf("export playlist: %w", err)
	}
	r.summary.Playlist = m3u
	r.logger.Info("batch complete", "processed", r.summary.Processed, "skipped", r.summary.Skipped, "failed", r.summary.Failed, "playlist", m3u)
	return r.summary, nil
}

// processArchive extracts an archive to scratch space and processes its
// images. Members are recorded as <archive>!<member>.
func (r *runner) processArchive(ctx context.Context, archivePath string) error {
	if err := os.MkdirAll(platform.GetTempDir(), 0755); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(platform.GetTempDir(), "archive-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	if err := ExtractArchive(archivePath, tmp); err != nil {
		r.logger.Error("failed to extract archive", "archive", archivePath, "err", err)
		r.summary.Failed++
		return r.opts.Ledger.MarkProcessed(ctx, archivePath, ledger.SimplifyName(archivePath), "", ledger.StatusError)
	}
	r.logger.Info("extracted archive", "archive", archivePath)

	return filepath.WalkDir(tmp, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !imageExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(tmp, path)
		if err != nil {
			return err
		}
		return r.process(ctx, archivePath+"!"+filepath.ToSlash(rel), path)
	})
}

// process renders one image. key identifies the input in the ledger and path
// is where its bytes are.
func (r *runner) process(ctx context.Context, key, path string) error {
	l := r.opts.Ledger
	status, err := l.Status(ctx, key)
	if err != nil {
		return err
	}
	if status == ledger.Processed {
		r.logger.Info("skipping already processed file", "file", key)
		r.summary.Skipped++
		return nil
	}
	simple, err := l.SimpleName(ctx, key)
	if err != nil {
		return err
	}
	if simple == "" || strings.HasPrefix(simple, "_") {
		simple = "quilt" + simple
	}
	if status == ledger.NeedsReprocessing {
		r.logger.Info("reprocessing", "file", key, "name", simple)
	} else {
		r.logger.Info("processing new file", "file", key, "name", simple)
	}

	quiltFile, err := r.render(ctx, path, simple)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Error("failed to process", "file", key, "err", err)
		r.summary.Failed++
		return l.MarkProcessed(ctx, key, simple, "", ledger.StatusError)
	}

	if err := l.MarkProcessed(ctx, key, simple, quiltFile, ledger.StatusSuccess); err != nil {
		return err
	}
	if err := l.AddToPlaylist(ctx, key); err != nil {
		return err
	}
	r.summary.Processed++
	r.logger.Info("successfully processed", "name", simple, "quilt", quiltFile)
	return nil
}

func (r *runner) render(ctx context.Context, path, simple string) (string, error) {
	texture, depth, err := r.opts.Generator.Generate(ctx, path)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".webp" {
		ext = ".png"
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	cfg := r.opts.Quilt
	cfg.Caption = cfg.Caption.WithName(base)
	cfg.Link = false
	cfg.Open = false
	if cfg.Logger == nil {
		cfg.Logger = r.logger
	}
	return paint.Generate(texture, depth, filepath.Join(r.opts.OutputDir, simple+ext), cfg)
}
