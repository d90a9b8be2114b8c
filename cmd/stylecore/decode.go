package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// charsetRule matches @charset which must be the very first thing in a
// stylesheet.
var charsetRule = regexp.MustCompile(`^@charset\s+"([^"]+)"\s*;`)

// decodeStylesheet converts stylesheet bytes to UTF-8. A byte order mark wins
// over @charset, which wins over the UTF-8 default. The @charset rule itself
// is kept, the parser ignores it.
func decodeStylesheet(data []byte) ([]byte, error) {
	var enc encoding.Encoding = unicode.UTF8
	if m := charsetRule.FindSubmatch(data); m != nil {
		e, err := ianaindex.IANA.Encoding(string(m[1]))
		if err != nil || e == nil {
			return nil, fmt.Errorf("unsupported @charset %q", m[1])
		}
		enc = e
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(enc.NewDecoder()), data)
	if err != nil {
		return nil, fmt.Errorf("unable to decode stylesheet: %w", err)
	}
	return out, nil
}

// readInput reads a file, "-" means STDIN.
func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func readStylesheet(name string) ([]byte, error) {
	data, err := readInput(name)
	if err != nil {
		return nil, fmt.Errorf("unable to read stylesheet '%s': %w", name, err)
	}
	return decodeStylesheet(data)
}

// htmlReader returns a UTF-8 reader for an HTML document, detecting the
// encoding from BOM and <meta> elements.
func htmlReader(data []byte) (io.Reader, error) {
	r, err := charset.NewReader(bytes.NewReader(data), "text/html")
	if err != nil {
		return nil, fmt.Errorf("unable to detect document encoding: %w", err)
	}
	return r, nil
}
