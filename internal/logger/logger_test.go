package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("chatty"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel(""))
}

func TestSetup_WritesToFile(t *testing.T) {
	prev := logrus.StandardLogger().Out
	t.Cleanup(func() { logrus.SetOutput(prev) })

	path := filepath.Join(t.TempDir(), "app.log")
	w := Setup(Options{File: path, Level: "warn"})
	assert.Same(t, w, Writer())
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())

	logrus.Info("dropped")
	logrus.WithField("user_id", 3).Warn("kept")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "kept")
	assert.Contains(t, string(raw), "user_id=3")
	assert.NotContains(t, string(raw), "dropped")
}
