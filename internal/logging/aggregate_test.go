package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeLog writes raw lines as the directory's dispatch.log.
func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, logFileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestAggregateLogs(t *testing.T) {
	dir := writeLog(t,
		`{"time":"2026-03-01T10:00:02Z","level":"WARN","msg":"submission failed permanently","run_id":"r1","key":"wf/a@2026-03-01T00:00:00Z#1","info":"exit 1"}`,
		`{"time":"2026-03-01T10:00:01Z","level":"INFO","msg":"coordinator running","run_id":"r1","parallelism":8}`,
	)

	entries, err := AggregateLogs(dir)
	if err != nil {
		t.Fatalf("AggregateLogs failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	// Sorted by timestamp, not file order.
	if entries[0].Message != "coordinator running" {
		t.Errorf("Expected oldest entry first, got %q", entries[0].Message)
	}

	warn := entries[1]
	if warn.Level != LevelWarn {
		t.Errorf("Level = %q, want %q", warn.Level, LevelWarn)
	}
	if warn.RunID != "r1" {
		t.Errorf("RunID = %q, want r1", warn.RunID)
	}
	if warn.Key != "wf/a@2026-03-01T00:00:00Z#1" {
		t.Errorf("Key did not parse: %q", warn.Key)
	}
	if warn.Attrs["info"] != "exit 1" {
		t.Errorf("Extra fields should land in Attrs, got %v", warn.Attrs)
	}

	// Standard fields must not be duplicated into Attrs.
	if _, ok := warn.Attrs["run_id"]; ok {
		t.Error("run_id should not appear in Attrs")
	}
}

func TestAggregateLogs_SkipsCorruptLines(t *testing.T) {
	dir := writeLog(t,
		`{"time":"2026-03-01T10:00:00Z","level":"INFO","msg":"good"}`,
		`{definitely not json`,
		``,
		`{"time":"2026-03-01T10:00:01Z","level":"INFO","msg":"also good"}`,
	)

	entries, err := AggregateLogs(dir)
	if err != nil {
		t.Fatalf("AggregateLogs failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected corrupt lines skipped, got %d entries", len(entries))
	}
}

func TestAggregateLogs_MissingFile(t *testing.T) {
	if _, err := AggregateLogs(t.TempDir()); err == nil {
		t.Error("Expected an error for a missing log file")
	}
}

func TestFilterLogs(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []LogEntry{
		{Timestamp: base, Level: LevelDebug, Message: "dispatched", RunID: "r1", Key: "wf1/a@t#1"},
		{Timestamp: base.Add(time.Minute), Level: LevelWarn, Message: "submission failed permanently", RunID: "r1", Key: "wf2/b@t#1"},
		{Timestamp: base.Add(2 * time.Minute), Level: LevelInfo, Message: "adoption complete", RunID: "r2"},
	}

	t.Run("by level", func(t *testing.T) {
		got := FilterLogs(entries, LogFilter{Level: "warn"})
		if len(got) != 1 || got[0].Level != LevelWarn {
			t.Errorf("Expected only the warn entry, got %v", got)
		}
	})

	t.Run("by run", func(t *testing.T) {
		got := FilterLogs(entries, LogFilter{RunID: "r2"})
		if len(got) != 1 || got[0].RunID != "r2" {
			t.Errorf("Expected only r2 entries, got %v", got)
		}
	})

	t.Run("by key substring", func(t *testing.T) {
		got := FilterLogs(entries, LogFilter{KeyContains: "wf2"})
		if len(got) != 1 || got[0].Key != "wf2/b@t#1" {
			t.Errorf("Expected only the wf2 entry, got %v", got)
		}
	})

	t.Run("by message", func(t *testing.T) {
		got := FilterLogs(entries, LogFilter{MessageContains: "failed"})
		if len(got) != 1 {
			t.Errorf("Expected 1 entry, got %d", len(got))
		}
	})

	t.Run("by time range", func(t *testing.T) {
		got := FilterLogs(entries, LogFilter{
			StartTime: base.Add(30 * time.Second),
			EndTime:   base.Add(90 * time.Second),
		})
		if len(got) != 1 || got[0].Message != "submission failed permanently" {
			t.Errorf("Expected the middle entry, got %v", got)
		}
	})

	t.Run("combined", func(t *testing.T) {
		got := FilterLogs(entries, LogFilter{Level: "info", RunID: "r1"})
		if len(got) != 1 || got[0].Level != LevelWarn {
			t.Errorf("Criteria should combine with AND, got %v", got)
		}
	})

	t.Run("empty filter", func(t *testing.T) {
		got := FilterLogs(entries, LogFilter{})
		if len(got) != len(entries) {
			t.Errorf("Empty filter should keep everything, got %d", len(got))
		}
	})
}

func TestExportLogEntries(t *testing.T) {
	entries := []LogEntry{
		{
			Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			Level:     LevelInfo,
			Message:   "dispatched",
			RunID:     "r1",
			Key:       "wf/a@t#1",
			Attrs:     map[string]any{"queue": "io"},
		},
	}

	t.Run("json", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.json")
		if err := ExportLogEntries(entries, out, "json"); err != nil {
			t.Fatalf("Export failed: %v", err)
		}

		data, _ := os.ReadFile(out)
		var decoded []LogEntry
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Output is not valid JSON: %v", err)
		}
		if len(decoded) != 1 || decoded[0].Message != "dispatched" {
			t.Errorf("JSON export did not round-trip: %v", decoded)
		}
	})

	t.Run("text", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.txt")
		if err := ExportLogEntries(entries, out, "text"); err != nil {
			t.Fatalf("Export failed: %v", err)
		}

		data, _ := os.ReadFile(out)
		text := string(data)
		for _, want := range []string{"INFO", "dispatched", "run=r1", "key=wf/a@t#1"} {
			if !strings.Contains(text, want) {
				t.Errorf("Text export missing %q:\n%s", want, text)
			}
		}
	})

	t.Run("csv", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.csv")
		if err := ExportLogEntries(entries, out, "csv"); err != nil {
			t.Fatalf("Export failed: %v", err)
		}

		data, _ := os.ReadFile(out)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 2 {
			t.Fatalf("Expected header plus 1 record, got %d lines", len(lines))
		}
		if !strings.HasPrefix(lines[0], "timestamp,level,message") {
			t.Errorf("Unexpected CSV header: %s", lines[0])
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.xml")
		if err := ExportLogEntries(entries, out, "xml"); err == nil {
			t.Error("Expected an error for an unsupported format")
		}
	})
}

func TestExportLogs_EndToEnd(t *testing.T) {
	dir := writeLog(t,
		`{"time":"2026-03-01T10:00:00Z","level":"INFO","msg":"one"}`,
		`{"time":"2026-03-01T10:00:01Z","level":"INFO","msg":"two"}`,
	)

	out := filepath.Join(t.TempDir(), "export.json")
	if err := ExportLogs(dir, out, "json"); err != nil {
		t.Fatalf("ExportLogs failed: %v", err)
	}

	data, _ := os.ReadFile(out)
	var decoded []LogEntry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Errorf("Expected 2 exported entries, got %d", len(decoded))
	}
}
