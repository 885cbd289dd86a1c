package gias

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/RogerHowellDfE/gias-data/internal/fetcher"
)

// Result reports the outcome of one file download.
type Result struct {
	Success bool
	Warning string
}

// FetchFile performs a single download attempt for one extract: download,
// validate, write to tempPath, size-check against finalPath, then rename
// tempPath over finalPath. The rename is the commit point.
//
// Transport failures, rejected content, and filesystem errors are absorbed:
// they are logged and reported as Success=false, never returned or panicked.
// On any failure the temp file is removed if present, so after FetchFile
// returns the temp file either no longer exists or has become finalPath.
func FetchFile(ctx context.Context, f fetcher.Fetcher, url, finalPath, tempPath string, thresholdPercent float64) Result {
	log := zap.L().With(zap.String("file", filepath.Base(finalPath)))

	resp, err := f.Get(ctx, url)
	if err != nil {
		log.Warn("download failed", zap.String("url", url), zap.Error(err))
		removeTemp(tempPath, log)
		return Result{}
	}
	if !resp.OK() {
		_ = resp.Body.Close()
		log.Warn("download failed",
			zap.String("url", url),
			zap.Int("status_code", resp.StatusCode),
			zap.String("status", resp.Status),
		)
		removeTemp(tempPath, log)
		return Result{}
	}

	body, err := resp.Text()
	if err != nil {
		log.Warn("read body failed", zap.String("url", url), zap.Error(err))
		removeTemp(tempPath, log)
		return Result{}
	}

	if err := Validate(body); err != nil {
		log.Warn("content rejected", zap.String("url", url), zap.Error(err))
		removeTemp(tempPath, log)
		return Result{}
	}

	warning, err := commit(body, finalPath, tempPath, thresholdPercent)
	if err != nil {
		log.Warn("store failed", zap.Error(err))
		removeTemp(tempPath, log)
		return Result{}
	}

	if warning != "" {
		log.Warn("size change", zap.String("warning", warning))
	}
	log.Info("downloaded", zap.String("path", finalPath))
	return Result{Success: true, Warning: warning}
}

// commit writes the validated body to tempPath, computes the size-change
// warning against any existing final file, and renames tempPath over
// finalPath. The warning never blocks the rename.
func commit(body, finalPath, tempPath string, thresholdPercent float64) (string, error) {
	if err := os.WriteFile(tempPath, []byte(body), 0o644); err != nil {
		return "", err
	}

	info, err := os.Stat(tempPath)
	if err != nil {
		return "", err
	}
	newSize := info.Size()

	var warning string
	if prev, err := os.Stat(finalPath); err == nil {
		warning = SizeChange(newSize, prev.Size(), thresholdPercent, filepath.Base(finalPath))
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		return "", err
	}
	return warning, nil
}

// removeTemp deletes a leftover temp file. A failed delete is logged but
// never surfaced: cleanup problems must not mask the original failure.
func removeTemp(tempPath string, log *zap.Logger) {
	if err := os.Remove(tempPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Error("temp file cleanup failed", zap.String("path", tempPath), zap.Error(err))
	}
}
