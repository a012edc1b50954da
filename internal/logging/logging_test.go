package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, Options{Level: "debug", Format: "json"})
	require.NoError(t, err)

	NewAdapter(l).Warn("rule violation", "rule", "enrollment_integrity", "id", int64(4))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "rule violation", line["msg"])
	assert.Equal(t, "enrollment_integrity", line["rule"])
	assert.EqualValues(t, 4, line["id"])
}

func TestLevelFiltersLowerEntries(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, Options{Level: "warn", Format: "console"})
	require.NoError(t, err)

	a := NewAdapter(l)
	a.Debug("hidden")
	a.Info("hidden")
	a.Error("shown", "operation", "delete_course")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "shown") && strings.Contains(out, "ERROR"), out)
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Options{Level: "loud", Format: "json"})
	assert.Error(t, err)
	_, err = New(&bytes.Buffer{}, Options{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestNilAdapterDiscards(t *testing.T) {
	a := NewAdapter(nil)
	a.Info("nothing")
	assert.NoError(t, a.Sync())
}
