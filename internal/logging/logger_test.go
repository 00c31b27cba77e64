package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "lumina.log")

	logger, err := New(Options{Level: "debug", File: path})
	require.NoError(t, err)

	logger.Info("hello", zap.String("component", "test"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"component":"test"`)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud", File: filepath.Join(t.TempDir(), "x.log")})
	assert.Error(t, err)
}

func TestNew_NoFileIsNop(t *testing.T) {
	logger, err := New(Options{})
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NotNil(t, OrNop(nil))
}
