package config

import (
	"os"
	"strings"
)

// OutputName builds a file name for results derived from the input source:
// the source extension is replaced by ext, path separators and characters
// the platform does not allow are dropped. Leading dots are removed so
// results never end up hidden.
func OutputName(source, ext string) string {
	stem := source
	if i := strings.LastIndexAny(stem, `/\`); i >= 0 {
		stem = stem[i+1:]
	}
	if i := strings.LastIndexByte(stem, '.'); i > 0 {
		stem = stem[:i]
	}
	stem = strings.TrimLeft(strings.Map(func(r rune) rune {
		if strings.ContainsRune(reservedNameChars+string(os.PathSeparator)+string(os.PathListSeparator), r) {
			return -1
		}
		return r
	}, stem), ". ")
	if stem == "" || stem == "-" {
		stem = "stdin"
	}
	return stem + ext
}
