package utils

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-greenhouse-scraper/internal/browser"
	"go-greenhouse-scraper/internal/browser/browsertest"
)

// sessionOnly hides the Screenshot method of the wrapped session.
type sessionOnly struct {
	browser.Session
}

func TestCaptureAndLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	debugger, err := NewScreenShotDebugger(dir, zap.NewNop())
	require.NoError(t, err)
	debugger.now = func() time.Time { return time.Date(2026, 1, 27, 9, 5, 0, 0, time.UTC) }

	session := &browsertest.Session{}
	path, err := debugger.CaptureAndLog(context.Background(), session, "greenhouse", "listings missing")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "greenhouse_2026-01-27_09-05-00.png"), path)
	assert.FileExists(t, path)
}

func TestCaptureAndLog_UnsupportedSession(t *testing.T) {
	debugger, err := NewScreenShotDebugger(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	path, err := debugger.CaptureAndLog(context.Background(), sessionOnly{&browsertest.Session{}}, "x", "y")
	assert.NoError(t, err)
	assert.Empty(t, path)
}

func TestCaptureAndLog_Failure(t *testing.T) {
	debugger, err := NewScreenShotDebugger(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	session := &browsertest.Session{ScreenshotErr: errors.New("target closed")}
	_, err = debugger.CaptureAndLog(context.Background(), session, "x", "y")
	assert.ErrorContains(t, err, "target closed")
}
