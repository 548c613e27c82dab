package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/assembly-news-radar/internal/logger"
)

func TestJSONFormatCarriesService(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("worker", &buf, "debug", "JSON")
	log.Debug("pass", "inserted", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "worker", rec["service"])
	require.Equal(t, "pass", rec["msg"])
	require.EqualValues(t, 3, rec["inserted"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("api", &buf, "warn", "")
	log.Info("hidden")
	require.Zero(t, buf.Len())

	log.Warn("shown")
	require.Contains(t, buf.String(), "msg=shown")
	require.Contains(t, buf.String(), "service=api")
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("api", &buf, "verbose", "text")
	log.Debug("hidden")
	require.Zero(t, buf.Len())
	log.Info("shown")
	require.NotZero(t, buf.Len())
}
