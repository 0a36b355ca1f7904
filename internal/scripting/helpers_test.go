package scripting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/skillcast/internal/game/dice"
	"github.com/cory-johannsen/skillcast/internal/scripting"
)

// maxSource makes every die show its highest face.
type maxSource struct{}

func (maxSource) Intn(n int) int { return n - 1 }

func writeTempLua(t *testing.T, name, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0644))
	return dir
}

func newTestManager(t *testing.T) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	mgr := scripting.NewManager(dice.NewRoller(maxSource{}, logger), logger)
	t.Cleanup(mgr.Close)
	return mgr, logs
}

func loadManager(t *testing.T, src string) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "skills.lua", src), 0))
	return mgr, logs
}
