package main

import (
	"io"
	"strings"
	"testing"
)

func TestDecodeStylesheet(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"plain", []byte(`a { content: "é" }`), `a { content: "é" }`},
		{"utf-8 bom", append([]byte{0xef, 0xbb, 0xbf}, `a{}`...), `a{}`},
		{"utf-16le bom", []byte{0xff, 0xfe, 'a', 0, '{', 0, '}', 0}, `a{}`},
		{"latin-1 charset", []byte("@charset \"iso-8859-1\"; a { content: \"\xe9\" }"), `@charset "iso-8859-1"; a { content: "é" }`},
		{"windows-1251 charset", []byte("@charset \"windows-1251\";\np::after { content: \"\xcf\xf0\xe8\xe2\xe5\xf2\" }"), "@charset \"windows-1251\";\np::after { content: \"Привет\" }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeStylesheet(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := decodeStylesheet([]byte(`@charset "no-such-charset"; a{}`)); err == nil {
		t.Error("unknown charset should fail")
	}
}

func TestHTMLReader(t *testing.T) {
	doc := []byte("<html><head><meta charset=\"windows-1251\"></head><body><p>\xcf\xf0\xe8\xe2\xe5\xf2</p></body></html>")
	r, err := htmlReader(doc)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(r)
	if !strings.Contains(string(data), "Привет") {
		t.Errorf("document was not decoded: %q", data)
	}
}
