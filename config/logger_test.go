package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggingPrepare_ConsoleOnly(t *testing.T) {
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "none"},
	}
	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if log.Core().Enabled(-1) {
		t.Errorf("debug level should be disabled")
	}
}

func TestLoggingPrepare_File(t *testing.T) {
	dir := t.TempDir()
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger: LoggerConfig{
			Level:       "debug",
			Destination: filepath.Join(dir, "atomcss.log"),
			Mode:        "overwrite",
		},
	}
	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("Registry rendered")
	_ = log.Sync()

	data, err := os.ReadFile(conf.FileLogger.Destination)
	if err != nil {
		t.Fatalf("unable to read log: %v", err)
	}
	if !strings.Contains(string(data), "Registry rendered") {
		t.Errorf("log file does not contain message: %q", data)
	}
	if got, want := conf.PanicLogName(), filepath.Join(dir, "atomcss-panic.log"); got != want {
		t.Errorf("PanicLogName() = %q, want %q", got, want)
	}
}

func TestLoggingPrepare_ReportForcesDebug(t *testing.T) {
	dir := t.TempDir()
	rpt, err := (&ReporterConfig{Destination: filepath.Join(dir, "report.zip")}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	defer rpt.Close()

	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger: LoggerConfig{
			Level:       "none",
			Destination: filepath.Join(dir, "atomcss.log"),
		},
	}
	log, err := conf.Prepare(rpt)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if !log.Core().Enabled(-1) {
		t.Errorf("report should force debug level")
	}
	if _, ok := rpt.entries["final.log"]; !ok {
		t.Errorf("final.log is not stored in the report")
	}
}
