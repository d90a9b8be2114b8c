package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"stylecore/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates initialized empty reporter.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	r := &Report{entries: make(map[string]entry)}
	if f, err := os.Create(conf.Destination); err == nil {
		r.file = f
	} else if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err == nil {
		r.file = f
	} else {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	return r, nil
}

type entry struct {
	original string
	actual   string
	stamp    time.Time
	data     []byte
	scratch  bool // actual lives in a directory owned by the report
}

// Report accumulates inputs, serialized stylesheets, diagnostics and logs
// and writes them into a zip archive on Close. All methods are no-ops on a
// nil Report so callers do not have to check whether a report was requested.
// NOTE: not to be used concurrently!
type Report struct {
	entries map[string]entry
	file    *os.File
}

// EntryName turns an arbitrary label into an archive entry name: every path
// segment is slugged, the extension of the last one is kept.
func EntryName(name string) string {
	name = filepath.ToSlash(name)
	dir, base := path.Split(name)
	ext := path.Ext(base)
	if slug.Make(ext) == "" {
		ext = ""
	}

	var parts []string
	for _, seg := range strings.Split(strings.Trim(dir, "/"), "/") {
		if s := slug.Make(seg); s != "" {
			parts = append(parts, s)
		}
	}
	stem := slug.Make(strings.TrimSuffix(base, ext))
	if stem == "" {
		stem = "entry"
	}
	return path.Join(append(parts, stem+strings.ToLower(ext))...)
}

// Close finalizes debug report and removes temporary copies.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	defer r.file.Close()
	defer r.cleanup()
	return r.finalize()
}

// Name returns name of underlying file.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store saves path to file or directory to be put in the final archive later.
func (r *Report) Store(name, where string) {
	if r == nil {
		return
	}
	name = EntryName(name)
	if old, exists := r.entries[name]; exists && old.original != where {
		panic(fmt.Sprintf("Attempt to overwrite file in the report for [%s]: was %s, now %s", name, old.original, where))
	}
	e := entry{original: where, actual: where}
	if p, err := filepath.Abs(where); err == nil {
		e.actual = p
	}
	r.entries[name] = e
}

// StoreData saves data to be put in the final archive later. Repeated names
// are versioned.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	e := entry{data: data, stamp: time.Now()}
	r.entries[r.unique(EntryName(name), e.stamp)] = e
}

// StoreCopy copies a regular file at the time of the call, so later changes
// to the original do not affect the report.
func (r *Report) StoreCopy(name, src string) error {
	if r == nil {
		return nil
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("unable to copy %s into report: not a regular file", src)
	}

	dir, err := os.MkdirTemp("", misc.GetAppName()+"-r-")
	if err != nil {
		return err
	}
	dst := filepath.Join(dir, filepath.Base(abs))
	if err := copyFile(dst, abs, info.ModTime()); err != nil {
		os.RemoveAll(dir)
		return err
	}
	e := entry{original: src, actual: dst, stamp: time.Now(), scratch: true}
	r.entries[r.unique(EntryName(name), e.stamp)] = e
	return nil
}

func (r *Report) unique(name string, stamp time.Time) string {
	if _, exists := r.entries[name]; exists {
		return fmt.Sprintf("%s-%d", name, stamp.UnixNano())
	}
	return name
}

func (r *Report) cleanup() {
	for _, e := range r.entries {
		if e.scratch {
			os.RemoveAll(filepath.Dir(e.actual))
		}
	}
}

func copyFile(dst, src string, modTime time.Time) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, modTime, modTime)
}

// finalize writes MANIFEST followed by all stored entries in name order.
// Absent files are skipped.
func (r *Report) finalize() error {
	arc := zip.NewWriter(r.file)
	defer arc.Close()

	names := slices.Sorted(maps.Keys(r.entries))

	now := time.Now()
	manifest := new(bytes.Buffer)
	for _, name := range names {
		e := r.entries[name]
		stamp := e.stamp
		if stamp.IsZero() {
			stamp = now
		}
		fmt.Fprintf(manifest, "%s\t%s\t%s : %s\n", stamp.UTC().Format(time.UnixDate), name, e.original, e.actual)
	}
	if err := saveFile(arc, "MANIFEST", now, manifest); err != nil {
		return err
	}

	for _, name := range names {
		e := r.entries[name]
		if e.data != nil {
			if err := saveFile(arc, name, e.stamp, bytes.NewReader(e.data)); err != nil {
				return err
			}
			continue
		}
		info, err := os.Stat(e.actual)
		if err != nil {
			continue
		}
		switch {
		case info.Mode().IsRegular():
			if err := saveFrom(arc, name, e.actual, info.ModTime()); err != nil {
				return err
			}
		case info.Mode().IsDir():
			if err := saveDir(arc, name, e.actual); err != nil {
				return err
			}
		}
	}
	return nil
}

func saveFile(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func saveFrom(dst *zip.Writer, name, src string, t time.Time) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	return saveFile(dst, name, t, f)
}

func saveDir(dst *zip.Writer, name, dir string) error {
	return filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		return saveFrom(dst, filepath.ToSlash(filepath.Join(name, rel)), p, info.ModTime())
	})
}
