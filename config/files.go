package config

import (
	"strings"
	"unicode"
)

// CleanFileName makes stylesheet and manifest names produced from registry
// and group names safe to use on this platform: separators, control
// characters and symbols the platform rejects are dropped, whitespace is
// replaced by "-" and leading dots are removed so output never ends up
// hidden.
func CleanFileName(in string) string {
	out := strings.TrimLeft(strings.Map(func(sym rune) rune {
		switch {
		case unicode.IsSpace(sym):
			return '-'
		case unicode.IsControl(sym), strings.ContainsRune(forbiddenFileChars, sym):
			return -1
		}
		return sym
	}, in), ".")
	if len(out) == 0 {
		out = "_bad_file_name_"
	}
	return out
}
