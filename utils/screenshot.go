package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"go-greenhouse-scraper/internal/browser"
)

// ScreenShotDebugger saves full-page screenshots when a run goes wrong
type ScreenShotDebugger struct {
	outputDir string
	logger    *zap.Logger
	now       func() time.Time
}

func NewScreenShotDebugger(dir string, logger *zap.Logger) (*ScreenShotDebugger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	return &ScreenShotDebugger{
		outputDir: dir,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// CaptureAndLog writes <name>_<timestamp>.png and returns its path. Sessions
// that cannot render screenshots are skipped with an empty path.
func (s *ScreenShotDebugger) CaptureAndLog(ctx context.Context, session browser.Session, name, message string) (string, error) {
	shooter, ok := session.(browser.Screenshotter)
	if !ok {
		s.logger.Debug("driver cannot take screenshots, skipping", zap.String("name", name))
		return "", nil
	}

	timestamp := s.now().Format("2006-01-02_15-04-05")
	path := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", name, timestamp))
	s.logger.Info("📸 " + message)

	if err := shooter.Screenshot(ctx, path); err != nil {
		s.logger.Warn("⚠️ Failed to capture screenshot", zap.Error(err))
		return "", err
	}

	s.logger.Info("   Screenshot saved", zap.String("path", path))
	return path, nil
}
