package logging

import (
	"bytes"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	h := NewCustomHandler(&buf)
	h.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }

	logger := &log.Logger{Handler: h, Level: log.DebugLevel}
	logger.WithFields(log.Fields{"type": "formula", "cell": "B2"}).Debug("cell set")
	logger.Warn("plain")

	assert.Equal(t,
		"2025-03-04 05:06:07 D cell set cell=B2 type=formula\n"+
			"2025-03-04 05:06:07 W plain\n",
		buf.String())
}

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() { log.SetLevel(log.InfoLevel) })

	var buf bytes.Buffer
	require.NoError(t, InitLogger(&buf, "warn"))
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "W shown")
}

func TestInitLoggerEnvOverride(t *testing.T) {
	t.Cleanup(func() { log.SetLevel(log.InfoLevel) })
	t.Setenv(EnvLevel, "DEBUG")

	var buf bytes.Buffer
	require.NoError(t, InitLogger(&buf, "error"))
	log.Debug("visible")
	assert.Contains(t, buf.String(), "D visible")
}

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, InitLogger(&bytes.Buffer{}, "loud"))
}
