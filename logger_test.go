package vptree

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capturingLogger(buf *bytes.Buffer) *Logger {
	return NewLogger(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// records decodes one JSON log record per line.
func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))
		out = append(out, rec)
	}
	return out
}

func TestLogger_BuildAndSearch(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.MaxLeafSize = 2
	cfg.Logger = capturingLogger(&buf)

	tree, err := NewFromPoints([][]float64{{0}, {1}, {2}, {3}, {4}}, cfg)
	require.NoError(t, err)
	_, err = tree.Search([]float64{0}, 2)
	require.NoError(t, err)
	_, err = tree.Search([]float64{0, 1}, 2)
	require.Error(t, err)

	recs := records(t, &buf)
	require.Len(t, recs, 3)

	assert.Equal(t, "tree built", recs[0]["msg"])
	assert.Equal(t, float64(5), recs[0]["points"])
	assert.Equal(t, float64(1), recs[0]["dimension"])

	assert.Equal(t, "search completed", recs[1]["msg"])
	assert.Equal(t, "knn", recs[1]["kind"])
	assert.Equal(t, float64(2), recs[1]["k"])

	assert.Equal(t, "search failed", recs[2]["msg"])
	assert.Equal(t, "ERROR", recs[2]["level"])
}

func TestLogger_SaveAndLoad(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Compression = CompressionLZ4
	cfg.Logger = capturingLogger(&buf)

	tree, err := NewFromPoints([][]float64{{0}, {1}, {2}}, cfg)
	require.NoError(t, err)
	var out bytes.Buffer
	n, err := tree.WriteTo(&out)
	require.NoError(t, err)
	_, err = Load(&out, cfg)
	require.NoError(t, err)

	var saved, loaded map[string]any
	for _, rec := range records(t, &buf) {
		switch rec["msg"] {
		case "tree saved":
			saved = rec
		case "tree loaded":
			loaded = rec
		}
	}
	require.NotNil(t, saved)
	require.NotNil(t, loaded)
	assert.Equal(t, float64(n), saved["bytes"])
	assert.Equal(t, "lz4", saved["compression"])
	assert.Equal(t, float64(n), loaded["bytes"])
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
}
