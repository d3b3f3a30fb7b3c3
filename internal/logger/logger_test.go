package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitWritesRotatedFile(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	path := filepath.Join(t.TempDir(), "node.log")
	Init("debug", path)
	GetLogger().Debug().Str("command", "getbalance").Msg("hello from the node")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"command":"getbalance"`) {
		t.Errorf("log file missing structured field: %s", data)
	}
}

func TestInitLevels(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	tests := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"":      zerolog.InfoLevel,
		"loud":  zerolog.InfoLevel,
	}
	for level, want := range tests {
		Init(level, "")
		if got := zerolog.GlobalLevel(); got != want {
			t.Errorf("Init(%q) level = %s, want %s", level, got, want)
		}
	}
}
