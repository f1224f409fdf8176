package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{" error ", ErrorLevel, false},
		{"fatal", FatalLevel, false},
		{"verbose", InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultLoggerRoutesByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewWriterLogger(&out, &errOut)
	logger.SetLevel(DebugLevel)

	logger.Debug("frames extracted", Fields{"frames": 98})
	logger.Warn("sample rates differ")
	logger.Error(errors.New("boom"), "decode failed")

	assert.Contains(t, out.String(), "[DEBUG] frames extracted frames=98")
	assert.Contains(t, errOut.String(), "[WARN] sample rates differ")
	assert.Contains(t, errOut.String(), "[ERROR] decode failed: boom")
	assert.NotContains(t, out.String(), "WARN")
}

func TestConsoleLoggerUsesOneWriter(t *testing.T) {
	var out bytes.Buffer
	logger := NewConsoleLogger(&out)

	logger.Info("comparison complete")
	logger.Warn("sample rates differ")

	assert.Contains(t, out.String(), "[INFO] comparison complete")
	assert.Contains(t, out.String(), "[WARN] sample rates differ")
	assert.NotContains(t, out.String(), ColorReset)
}

func TestDefaultLoggerLevelIsSharedWithChildren(t *testing.T) {
	var out bytes.Buffer
	parent := NewWriterLogger(&out, &out)
	child := parent.WithFields(Fields{"component": "aligner"})

	child.Debug("hidden")
	assert.Empty(t, out.String())

	parent.SetLevel(DebugLevel)
	child.Debug("visible")
	assert.Contains(t, out.String(), "[DEBUG] visible component=aligner")
}

func TestDefaultLoggerFieldsAreSorted(t *testing.T) {
	var out bytes.Buffer
	logger := NewWriterLogger(&out, &out)

	logger.WithFields(Fields{"z": 1, "a": 2}).Info("msg", Fields{"m": 3})

	assert.Contains(t, out.String(), "[INFO] msg a=2 m=3 z=1")
}

func TestDefaultLoggerFatalExits(t *testing.T) {
	var out bytes.Buffer
	logger := NewWriterLogger(&out, &out)
	code := -1
	logger.exit = func(c int) { code = c }

	logger.Fatal(errors.New("bad"), "cannot continue")

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "[FATAL] cannot continue: bad")
}

func TestWithContextPicksUpFields(t *testing.T) {
	var out bytes.Buffer
	logger := NewWriterLogger(&out, &out)
	ctx := ContextWithFields(context.Background(), Fields{"pair": 3})

	logger.WithContext(ctx).Info("compared")
	logger.WithContext(context.Background()).Info("plain")

	assert.Contains(t, out.String(), "[INFO] compared pair=3")
	assert.Contains(t, out.String(), "[INFO] plain\n")
}

func TestSetGlobalLoggerNilSilences(t *testing.T) {
	prev := GetGlobalLogger()
	t.Cleanup(func() { SetGlobalLogger(prev) })

	SetGlobalLogger(nil)
	_, ok := GetGlobalLogger().(*NoOpLogger)
	assert.True(t, ok)
}
