package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"narrate/internal/config"
	"narrate/internal/services"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func TestConsoleFormatPromotesComponentAndSlideKey(t *testing.T) {
	out := filepath.Join(t.TempDir(), "console.log")
	logger, err := New(Options{Level: "info", Format: "console", OutputPaths: []string{out}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	NewComponentLogger(logger, "workflow").Info("audio generated",
		String(FieldSlideKey, "module-03/slide-05.mp3"),
		Int("bytes", 42),
		String("voice", "two words"),
	)
	logger.Debug("hidden")

	lines := readLines(t, out)
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), lines)
	}
	line := lines[0]
	for _, want := range []string{
		" INFO workflow: audio generated [module-03/slide-05.mp3]",
		"bytes=42",
		`voice="two words"`,
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "component=") || strings.Contains(line, "slide_key=") {
		t.Fatalf("promoted fields should not repeat as key/value: %q", line)
	}
}

func TestConsoleGroupsQualifyKeys(t *testing.T) {
	out := filepath.Join(t.TempDir(), "console.log")
	logger, err := New(Options{Format: "console", OutputPaths: []string{out}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.WithGroup("store").With("backend", "github").Info("opened", slog.Group("limits", slog.Int("max", 3)))

	line := readLines(t, out)[0]
	if !strings.Contains(line, "store.backend=github") || !strings.Contains(line, "store.limits.max=3") {
		t.Fatalf("unexpected grouping in %q", line)
	}
}

func TestJSONFormat(t *testing.T) {
	out := filepath.Join(t.TempDir(), "json.log")
	logger, err := New(Options{Level: "warn", Format: "JSON", OutputPaths: []string{out}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("manifest update failed", Error(errors.New("conflict")))

	lines := readLines(t, out)
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record["level"] != "warn" {
		t.Fatalf("level = %v", record["level"])
	}
	if record["msg"] != "manifest update failed" || record["error"] != "conflict" {
		t.Fatalf("unexpected record %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key in %v", record)
	}
}

func TestNewFromConfigTeesJSONFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Logging.Format = "console"
	cfg.Logging.Level = "info"
	cfg.Logging.File = filepath.Join(dir, "nested", "narrate.log")

	logger, err := NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("studio listening", String("bind", "127.0.0.1:3000"))

	lines := readLines(t, cfg.Logging.File)
	if len(lines) != 1 {
		t.Fatalf("expected one json line, got %d", len(lines))
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record["bind"] != "127.0.0.1:3000" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestWithContextAddsServiceFields(t *testing.T) {
	ctx := services.WithRequestID(context.Background(), "req-1")
	ctx = services.WithWorkflow(ctx, "generate_audio")
	ctx = services.WithSlideKey(ctx, "module-01/slide-02.mp3")

	fields := ContextFields(ctx)
	got := map[string]string{}
	for _, f := range fields {
		got[f.Key] = f.Value.String()
	}
	if got[FieldRequestID] != "req-1" || got[FieldWorkflow] != "generate_audio" || got[FieldSlideKey] != "module-01/slide-02.mp3" {
		t.Fatalf("unexpected fields %v", got)
	}
	if logger := WithContext(context.Background(), nil); logger == nil {
		t.Fatal("expected nop logger")
	}
}

func TestTeeHandler(t *testing.T) {
	if _, ok := TeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for nil handlers")
	}
	var info, debug bytes.Buffer
	h := TeeHandler(
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	logger := slog.New(h).With("deck", "module-02")
	logger.Debug("detail")
	logger.Info("summary")

	if strings.Contains(info.String(), "detail") || !strings.Contains(info.String(), "summary") {
		t.Fatalf("info handler got %q", info.String())
	}
	if !strings.Contains(debug.String(), "detail") || !strings.Contains(debug.String(), "deck=module-02") {
		t.Fatalf("debug handler got %q", debug.String())
	}
}

func TestWarnWithContextFillsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	WarnWithContext(logger, "rate limited", "tts_retry")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[FieldEventType] != "tts_retry" || record[FieldErrorHint] == "" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestProgressSampler(t *testing.T) {
	s := NewProgressSampler(25)
	var emitted []int
	for done := 0; done <= 8; done++ {
		if s.ShouldLog("module-01", done, 8) {
			emitted = append(emitted, done)
		}
	}
	want := []int{0, 2, 4, 6, 8}
	if len(emitted) != len(want) {
		t.Fatalf("emitted %v, want %v", emitted, want)
	}
	for i := range want {
		if emitted[i] != want[i] {
			t.Fatalf("emitted %v, want %v", emitted, want)
		}
	}
	if !s.ShouldLog("module-02", 1, 8) {
		t.Fatal("deck change should emit")
	}
	var nilSampler *ProgressSampler
	if !nilSampler.ShouldLog("x", 1, 2) {
		t.Fatal("nil sampler always emits")
	}
}
