package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	nberrors "github.com/YuminosukeSato/ngbench/pkg/errors"
)

func TestTestLoggerLevels(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelInfo)

	testLogger.Debug("debug message", "key1", "value1")
	testLogger.Info("info message", FoldKey, 3)
	testLogger.Warn("warning message")
	testLogger.Error("error message", fmt.Errorf("boom"), OperationKey, OperationFit)

	if buffer.Len() == 0 {
		t.Fatal("Expected log output, got empty string")
	}
	if testLogger.ContainsMessage("debug message") {
		t.Error("Debug message should be filtered at info level")
	}
	for _, msg := range []string{"info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}
	if !testLogger.ContainsField(FoldKey, 3.0) {
		t.Error("Expected fold field")
	}
	if !testLogger.ContainsField(ErrAttrKey, "boom") {
		t.Error("Expected error field")
	}
}

func TestTestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	child := testLogger.With(ModelNameKey, "NGBRegressor", DistributionKey, "Normal")
	child.Info("fit done")

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0][ModelNameKey] != "NGBRegressor" || entries[0][DistributionKey] != "Normal" {
		t.Errorf("With fields missing: %v", entries[0])
	}

	testLogger.Clear()
	if testLogger.ContainsMessage("fit done") {
		t.Error("Clear should reset the buffer")
	}
}

func TestTestLoggerProvider(t *testing.T) {
	provider, logger := NewTestLoggerProvider(LevelInfo)
	provider.GetLoggerWithName("datasets").Info("loaded")

	if !logger.ContainsField(ComponentKey, "datasets") {
		t.Error("Expected component field")
	}

	if provider.GetLogger().Enabled(context.Background(), LevelDebug) {
		t.Error("Debug should be disabled at info level")
	}
	provider.SetLevel(LevelDebug)
	if !provider.GetLogger().Enabled(context.Background(), LevelDebug) {
		t.Error("Debug should be enabled after SetLevel")
	}
}

func TestZerologProviderJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelInfo)

	logger := p.GetLoggerWithName("ngboost").With(RunIDKey, "abc")
	logger.Debug("hidden")
	logger.Info("round", IterationKey, 5, LossKey, 1.25)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry[ComponentKey] != "ngboost" || entry[RunIDKey] != "abc" {
		t.Errorf("missing context fields: %v", entry)
	}
	if entry[IterationKey] != 5.0 || entry[LossKey] != 1.25 {
		t.Errorf("missing event fields: %v", entry)
	}
	if entry["message"] != "round" {
		t.Errorf("message = %v", entry["message"])
	}
}

func TestZerologErrorCarriesStructuredDetail(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelDebug)

	err := nberrors.NewDimensionError("Predict", 4, 2, 1)
	p.GetLogger().Error("predict failed", err, FoldKey, 2)

	out := buf.String()
	for _, want := range []string{`"error":"ngbench: Predict: expected`, `"type":"DimensionError"`, `"cv.fold":2`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s does not contain %s", out, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"info", LevelInfo, true},
		{"warn", LevelWarn, true},
		{"error", LevelError, true},
		{"loud", LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if err := SetupLogger("loud", nil); err == nil {
		t.Error("SetupLogger should reject unknown levels")
	}
}

func TestWarningsRouteThroughProvider(t *testing.T) {
	provider, logger := NewTestLoggerProvider(LevelDebug)
	SetProvider(provider)
	defer SetProvider(NewZerologProvider(nil, LevelInfo))

	nberrors.Warn(nberrors.NewConvergenceWarning("LineSearch", 3, "no improvement"))

	if !logger.ContainsField("warning.type", "ConvergenceWarning") {
		t.Error("warning should be logged through the provider")
	}
}
