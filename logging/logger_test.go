package logging

import (
	"bytes"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger("test-component")
	if logger == nil {
		t.Fatal("Expected logger to be created")
	}

	if logger.Data["component"] != "test-component" {
		t.Errorf("Expected component to be 'test-component', got %v", logger.Data["component"])
	}

	if NewLogger("test-component") != logger {
		t.Error("Expected the logger to be cached per component")
	}
}

func TestLoggerOutput(t *testing.T) {
	var buf bytes.Buffer

	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&TextFormatter{Config: FormatConfig{}})

	entry := logger.WithField("component", "relay")
	entry.WithField("producers", 1).Info("Connection changed")

	output := buf.String()

	for _, want := range []string{"[INFO]", "[relay]", "Connection changed", "producers=1"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got: %s", want, output)
		}
	}
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name    string
		config  FormatConfig
		entry   *logrus.Entry
		want    []string
		notWant []string
	}{
		{
			name:   "default format",
			config: FormatConfig{},
			entry: &logrus.Entry{
				Level:   logrus.InfoLevel,
				Message: "test message",
				Data: logrus.Fields{
					"component": "test-component",
					"key1":      "value1",
				},
			},
			want: []string{"[INFO]", "[test-component]", "test message", "key1=value1"},
		},
		{
			name: "simple format",
			config: FormatConfig{
				DisableTimestamp: true,
				DisableComponent: true,
			},
			entry: &logrus.Entry{
				Level:   logrus.WarnLevel,
				Message: "warning message",
				Data: logrus.Fields{
					"component": "test-component",
				},
			},
			want:    []string{"[WARN]", "warning message"},
			notWant: []string{"[test-component]"},
		},
		{
			name:   "caller information with function name",
			config: FormatConfig{},
			entry: func() *logrus.Entry {
				logger := logrus.New()
				logger.SetReportCaller(true)
				return &logrus.Entry{
					Logger:  logger,
					Level:   logrus.InfoLevel,
					Message: "test message with caller",
					Data: logrus.Fields{
						"component": "test-component",
					},
					Caller: &runtime.Frame{
						File:     "/path/to/file.go",
						Line:     42,
						Function: "github.com/example/package.TestFunction",
					},
				}
			}(),
			want: []string{"[INFO]", "[test-component]", "test message with caller", "[file.go:42 package.TestFunction]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &TextFormatter{Config: tt.config}

			output, err := formatter.Format(tt.entry)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			outputStr := string(output)
			for _, want := range tt.want {
				if !strings.Contains(outputStr, want) {
					t.Errorf("Expected output to contain '%s', got: %s", want, outputStr)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(outputStr, notWant) {
					t.Errorf("Expected output NOT to contain '%s', got: %s", notWant, outputStr)
				}
			}
		})
	}
}

func TestFieldsAreSorted(t *testing.T) {
	formatter := &TextFormatter{Config: FormatConfig{DisableTimestamp: true}}
	out, err := formatter.Format(&logrus.Entry{
		Level:   logrus.InfoLevel,
		Message: "m",
		Data:    logrus.Fields{"b": 2, "a": 1, "c": 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(out), "m a=1 b=2 c=3\n") {
		t.Errorf("Expected sorted fields, got: %q", out)
	}
}

func TestConfigureReappliesLevel(t *testing.T) {
	os.Unsetenv("PLY_LOG_LEVEL")
	defer Configure(Config{})

	logger := NewLogger("configure-test")
	Configure(Config{Level: "debug", Format: FormatConfig{Stderr: "never"}})
	if logger.Logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level after Configure, got %s", logger.Logger.GetLevel())
	}

	Configure(Config{Level: "warn", Format: FormatConfig{Stderr: "never"}})
	if logger.Logger.GetLevel() != logrus.WarnLevel {
		t.Errorf("Expected warn level after reconfigure, got %s", logger.Logger.GetLevel())
	}
	if Current().Level != "warn" {
		t.Errorf("Expected Current to report warn, got %q", Current().Level)
	}
}

func TestEnvironmentOverridesLevel(t *testing.T) {
	t.Setenv("PLY_LOG_LEVEL", "error")

	logger := logrus.New()
	apply(logger, Config{Level: "debug", Format: FormatConfig{Stderr: "never"}})
	if logger.GetLevel() != logrus.ErrorLevel {
		t.Errorf("Expected PLY_LOG_LEVEL to win, got %s", logger.GetLevel())
	}
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	os.Unsetenv("PLY_LOG_LEVEL")
	logger := logrus.New()
	apply(logger, Config{Level: "loud", Format: FormatConfig{Stderr: "never"}})
	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("Expected info level, got %s", logger.GetLevel())
	}
}

func TestShouldLogToStderr(t *testing.T) {
	if !shouldLogToStderr("always", logrus.InfoLevel, true) {
		t.Error("always should log to stderr")
	}
	if shouldLogToStderr("never", logrus.DebugLevel, false) {
		t.Error("never should not log to stderr")
	}
	if !shouldLogToStderr("auto", logrus.InfoLevel, false) {
		t.Error("auto without a file sink should log to stderr")
	}
	if !shouldLogToStderr("auto", logrus.DebugLevel, true) {
		t.Error("auto at debug level should log to stderr")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"abcdefghij", 4, "abcd…(+6)"},
		{"héllo wörld", 5, "héllo…(+6)"},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestTruncateLimit(t *testing.T) {
	if (Config{}).TruncateLimit() != DefaultTruncate {
		t.Error("Expected default truncate limit")
	}
	zero := 0
	if (Config{Truncate: &zero}).TruncateLimit() != 0 {
		t.Error("Expected explicit zero to disable truncation")
	}
}

func TestPrettyEvent(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrettyLogger().WithWriter(&buf)
	p.Event("TargetConnected", "")
	p.Event("SetInspectionRoot", `{"nodeId":7}`)

	out := buf.String()
	if !strings.Contains(out, "TargetConnected\n") || !strings.Contains(out, `SetInspectionRoot {"nodeId":7}`) {
		t.Errorf("Unexpected pretty output: %q", out)
	}
}
