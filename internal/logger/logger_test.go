package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLevels(t *testing.T) {
	defer Setup(Options{})

	tests := []struct {
		name      string
		opts      Options
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{name: "default shows warnings", opts: Options{}, wantWarn: true},
		{name: "debug shows info", opts: Options{Debug: true}, wantInfo: true, wantWarn: true},
		{name: "verbose shows everything", opts: Options{Verbose: true}, wantDebug: true, wantInfo: true, wantWarn: true},
		{name: "silent shows errors only", opts: Options{Silent: true, Verbose: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.opts.Output = &buf
			Setup(tt.opts)

			Debug("debug line")
			Info("info line")
			Warn("warn line")
			Error("error line")

			out := buf.String()
			assert.Equal(t, tt.wantDebug, bytes.Contains([]byte(out), []byte("debug line")))
			assert.Equal(t, tt.wantInfo, bytes.Contains([]byte(out), []byte("info line")))
			assert.Equal(t, tt.wantWarn, bytes.Contains([]byte(out), []byte("warn line")))
			assert.Contains(t, out, "error line")
		})
	}
}

func TestComponentLoggersCarryFields(t *testing.T) {
	defer Setup(Options{})

	var buf bytes.Buffer
	Setup(Options{Output: &buf, Verbose: true, JSON: true})

	Store().WithFields(map[string]interface{}{"table": "tasks", "rows": 3}).Info("inserted")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "store", entry["component"])
	assert.Equal(t, "tasks", entry["table"])
	assert.Equal(t, float64(3), entry["rows"])
	assert.Equal(t, "inserted", entry["msg"])
}

func TestDiscard(t *testing.T) {
	l := Discard().WithField("k", "v")
	assert.NotPanics(t, func() {
		l.Error("dropped")
	})
}

func TestNewIsIndependent(t *testing.T) {
	defer Setup(Options{})

	var global, local bytes.Buffer
	Setup(Options{Output: &global})
	l := New(Options{Output: &local, Verbose: true})

	l.Debug("local debug")
	Debug("global debug")

	assert.Contains(t, local.String(), "local debug")
	assert.Empty(t, global.String())
}
