// Package archive reads sources packed into zip archives.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/text/encoding"
)

// Entry is a file read from archive.
type Entry struct {
	Name string
	Data []byte
}

// WalkFunc is called for each accepted file in archive. If an error is
// returned, processing stops.
type WalkFunc func(archive string, entry Entry) error

// Walk reads every file in the archive accepted by accept (nil accepts
// everything) and passes it to walkFn in archive order. Names not flagged as
// UTF-8 are decoded with names, when given. Absolute names and names with
// ".." components make archive invalid.
func Walk(archive string, accept func(name string) bool, names encoding.Encoding, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() {
			continue
		}
		if names != nil && f.FileHeader.NonUTF8 {
			n, err := names.NewDecoder().String(name)
			if err != nil {
				return fmt.Errorf("zip entry %q: unable to decode name: %w", name, err)
			}
			name = n
		}
		if accept != nil && !accept(name) {
			continue
		}
		data, err := readFile(f)
		if err != nil {
			return fmt.Errorf("zip entry %q: %w", name, err)
		}
		if err := walkFn(archive, Entry{Name: name, Data: data}); err != nil {
			return err
		}
	}
	return nil
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// isSafePath returns false for absolute paths and paths containing ".."
// components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
