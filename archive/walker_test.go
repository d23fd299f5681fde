package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

type zipEntry struct {
	name    string
	content string
	nonUTF8 bool
	dir     bool
}

func makeZip(t *testing.T, entries []zipEntry) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "test.zip")

	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer zipFile.Close()

	w := zip.NewWriter(zipFile)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.name, NonUTF8: e.nonUTF8, Method: zip.Deflate}
		if e.dir {
			hdr.SetMode(os.ModeDir | 0755)
		}
		fw, err := w.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("Failed to create %s in zip: %v", e.name, err)
		}
		if !e.dir {
			if _, err := fw.Write([]byte(e.content)); err != nil {
				t.Fatalf("Failed to write content for %s: %v", e.name, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return zipPath
}

func isCSS(name string) bool {
	return strings.HasSuffix(name, ".css")
}

func TestWalk(t *testing.T) {
	zipPath := makeZip(t, []zipEntry{
		{name: "theme/", dir: true},
		{name: "theme/base.css", content: ".a{width:1px}"},
		{name: "theme/readme.txt", content: "readme"},
		{name: "pages/index.css", content: ".b{height:1px}"},
	})

	var visited []string
	err := Walk(zipPath, isCSS, nil, func(archive string, e Entry) error {
		if archive != zipPath {
			t.Errorf("archive = %s, want %s", archive, zipPath)
		}
		visited = append(visited, e.Name+"="+string(e.Data))
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []string{"theme/base.css=.a{width:1px}", "pages/index.css=.b{height:1px}"}
	if strings.Join(visited, ",") != strings.Join(want, ",") {
		t.Errorf("visited %v, want %v", visited, want)
	}
}

func TestWalk_AcceptAll(t *testing.T) {
	zipPath := makeZip(t, []zipEntry{
		{name: "dir/", dir: true},
		{name: "dir/a.txt", content: "a"},
	})

	var count int
	if err := Walk(zipPath, nil, nil, func(string, Entry) error { count++; return nil }); err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if count != 1 {
		t.Errorf("visited %d entries, want 1 (directories are skipped)", count)
	}
}

func TestWalk_EarlyTermination(t *testing.T) {
	var entries []zipEntry
	for i := range 5 {
		entries = append(entries, zipEntry{name: "files/file" + string(rune('0'+i)) + ".css", content: ".a{}"})
	}
	zipPath := makeZip(t, entries)

	var visited int
	stopErr := errors.New("stop walking")
	err := Walk(zipPath, isCSS, nil, func(string, Entry) error {
		visited++
		if visited == 2 {
			return stopErr
		}
		return nil
	})
	if !errors.Is(err, stopErr) {
		t.Errorf("Walk() error = %v, want %v", err, stopErr)
	}
	if visited != 2 {
		t.Errorf("visited %d files, want 2", visited)
	}
}

func TestWalk_UnsafePath(t *testing.T) {
	zipPath := makeZip(t, []zipEntry{{name: "../evil.css", content: ".a{}"}})

	err := Walk(zipPath, nil, nil, func(string, Entry) error {
		t.Error("walkFn should not be called for unsafe entry")
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "unsafe path") {
		t.Errorf("Walk() error = %v, want unsafe path error", err)
	}
}

func TestWalk_NameEncoding(t *testing.T) {
	name, err := charmap.Windows1251.NewEncoder().String("стили.css")
	if err != nil {
		t.Fatalf("unable to encode name: %v", err)
	}
	zipPath := makeZip(t, []zipEntry{{name: name, content: ".a{}", nonUTF8: true}})

	var got string
	err = Walk(zipPath, isCSS, charmap.Windows1251, func(_ string, e Entry) error {
		got = e.Name
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if got != "стили.css" {
		t.Errorf("name = %q, want стили.css", got)
	}
}

func TestWalk_InvalidArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.zip")
	if err := os.WriteFile(path, []byte("not a zip file"), 0644); err != nil {
		t.Fatalf("Failed to create invalid zip: %v", err)
	}
	if err := Walk(path, nil, nil, func(string, Entry) error { return nil }); err == nil {
		t.Error("Expected error for invalid zip file")
	}
	if err := Walk(filepath.Join(t.TempDir(), "missing.zip"), nil, nil, func(string, Entry) error { return nil }); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestIsSafePath(t *testing.T) {
	tests := map[string]bool{
		"a/b.css":     true,
		"a/../b.css":  false,
		"/etc/passwd": false,
		`\windows`:    false,
		"..":          false,
		"a..b/c.css":  true,
	}
	for name, want := range tests {
		if got := isSafePath(name); got != want {
			t.Errorf("isSafePath(%q) = %v, want %v", name, got, want)
		}
	}
}
