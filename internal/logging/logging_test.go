package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/smartfund/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	log, err := logging.New(logging.Options{Dir: dir, Level: "info"})
	require.NoError(t, err)

	log.Info("funded", zap.String("account", "0xabc"))
	log.Debug("hidden at info level")
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, logging.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"funded"`)
	assert.Contains(t, string(data), `"account":"0xabc"`)
	assert.NotContains(t, string(data), "hidden at info level")
}

func TestVerboseEnablesDebug(t *testing.T) {
	dir := t.TempDir()
	log, err := logging.New(logging.Options{Dir: dir, Level: "warn", Verbose: true})
	require.NoError(t, err)

	log.Debug("debug line")
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, logging.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "debug line")
}

func TestInvalidLevel(t *testing.T) {
	_, err := logging.New(logging.Options{Dir: t.TempDir(), Level: "loud"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { logging.Nop().Info("nothing") })
}
