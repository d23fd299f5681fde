package config

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestReport_Archive(t *testing.T) {
	dir := t.TempDir()
	rpt, err := (&ReporterConfig{Destination: filepath.Join(dir, "report.zip")}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	src := filepath.Join(dir, "input.css")
	if err := os.WriteFile(src, []byte(".a{width:1px}"), 0644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	rpt.Store("source", src)
	rpt.StoreData("style.css", []byte(".a{width:1px}"))
	rpt.StoreData("style.css", []byte(".b{width:2px}"))
	if err := rpt.StoreCopy("copy", src); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	copies := append([]string(nil), rpt.copies...)

	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	zr, err := zip.OpenReader(rpt.Name())
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()

	// MANIFEST, source, copy and two versions of style.css
	if len(zr.File) != 5 {
		names := make([]string, 0, len(zr.File))
		for _, f := range zr.File {
			names = append(names, f.Name)
		}
		t.Fatalf("unexpected archive content: %v", names)
	}
	if zr.File[0].Name != "MANIFEST" {
		t.Errorf("first entry = %s, want MANIFEST", zr.File[0].Name)
	}

	for _, c := range copies {
		if _, err := os.Stat(c); !os.IsNotExist(err) {
			os.RemoveAll(c)
			t.Errorf("expected temporary copy %s to be removed", c)
		}
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("stored file should not be removed: %v", err)
	}
}

func TestReport_StoreConflict(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.Store("a", "one")
	r.Store("a", "one")

	defer func() {
		if recover() == nil {
			t.Error("expected panic on conflicting store")
		}
	}()
	r.Store("a", "two")
}

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	r.Store("a", "b")
	r.StoreData("a", nil)
	if err := r.StoreCopy("a", "b"); err != nil {
		t.Errorf("StoreCopy on nil report should not error, got: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
	if r.Name() != "" {
		t.Errorf("Name of nil report = %q", r.Name())
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}

func TestCleanFileName(t *testing.T) {
	if got := CleanFileName(""); got != "_bad_file_name_" {
		t.Errorf("CleanFileName(\"\") = %q", got)
	}
	if got := CleanFileName("style-media-print"); got != "style-media-print" {
		t.Errorf("CleanFileName() = %q", got)
	}
	if got := CleanFileName("..main sheet/\x00print"); got != "main-sheetprint" {
		t.Errorf("CleanFileName() = %q", got)
	}
}
