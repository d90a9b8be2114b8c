package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestEntryName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"style.css", "style.css"},
		{"My Styles/Main Sheet.CSS", "my-styles/main-sheet.css"},
		{"diagnostics/../../etc/passwd", "diagnostics/etc/passwd"},
		{"config/Привет.yaml", "config/privet.yaml"},
		{"***", "entry"},
	}
	for _, tt := range tests {
		if got := EntryName(tt.in); got != tt.want {
			t.Errorf("EntryName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReport(t *testing.T) {
	dir := t.TempDir()
	rpt, err := (&ReporterConfig{Destination: filepath.Join(dir, "report.zip")}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}

	input := filepath.Join(dir, "input.css")
	if err := os.WriteFile(input, []byte("a { color: red }"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := rpt.StoreCopy("inputs/input.css", input); err != nil {
		t.Fatalf("StoreCopy() error: %v", err)
	}
	// the copy is taken at the time of the call
	if err := os.WriteFile(input, []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}
	var scratch string
	for _, e := range rpt.entries {
		if e.scratch {
			scratch = filepath.Dir(e.actual)
		}
	}

	rpt.StoreData("Diagnostics.txt", []byte("one"))
	rpt.StoreData("Diagnostics.txt", []byte("two"))
	rpt.Store("missing.log", filepath.Join(dir, "absent.log"))

	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if _, err := os.Stat(scratch); !os.IsNotExist(err) {
		t.Errorf("temporary copy should be removed, stat: %v", err)
	}

	zr, err := zip.OpenReader(rpt.Name())
	if err != nil {
		t.Fatalf("report is not a zip archive: %v", err)
	}
	defer zr.Close()

	contents := make(map[string]string)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		contents[f.Name] = string(data)
	}
	if names[0] != "MANIFEST" {
		t.Errorf("MANIFEST must come first, got %v", names)
	}
	if contents["inputs/input.css"] != "a { color: red }" {
		t.Errorf("stored copy: %q", contents["inputs/input.css"])
	}
	if contents["diagnostics.txt"] != "one" {
		t.Errorf("first data entry: %q", contents["diagnostics.txt"])
	}
	if len(names) != 4 {
		t.Errorf("expected MANIFEST, copy and two data entries, got %v", names)
	}
	if slices.Contains(names, "missing.log") {
		t.Error("absent files are skipped")
	}
}

func TestReport_Nil(t *testing.T) {
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
		t.Error("nil report has no name")
	}
}

func TestReport_StoreConflict(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.Store("final.log", "/tmp/a.log")
	r.Store("final.log", "/tmp/a.log")
	defer func() {
		if recover() == nil {
			t.Error("storing a different path under the same name should panic")
		}
	}()
	r.Store("final.log", "/tmp/b.log")
}
