package main

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
)

// resetDir empties dir, creating it when missing. Subdirectories are removed too.
func resetDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrFileSystem, dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%w: list %s: %v", ErrFileSystem, dir, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("%w: remove %s: %v", ErrFileSystem, e.Name(), err)
		}
	}
	return nil
}

// archiveMatcher reports whether a file name is left out of the archive.
type archiveMatcher struct {
	exclude []glob.Glob
}

func newArchiveMatcher(patterns []string) (*archiveMatcher, error) {
	m := &archiveMatcher{}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid archive exclude pattern %q: %w", p, err)
		}
		m.exclude = append(m.exclude, g)
	}
	return m, nil
}

func (m *archiveMatcher) Excluded(name string) bool {
	for _, g := range m.exclude {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// archiveReceipts zips the regular files of receiptsDir that match none of
// the exclude patterns. Entries are stored without directory prefix. An
// existing archive is replaced only once the new one is complete.
func archiveReceipts(receiptsDir, archivePath string, exclude []string, comment string) ([]string, error) {
	matcher, err := newArchiveMatcher(exclude)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(receiptsDir)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", ErrFileSystem, receiptsDir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || matcher.Excluded(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileSystem, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(archivePath), ".receipts-*.zip")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileSystem, err)
	}
	defer os.Remove(tmp.Name())

	zw := zip.NewWriter(tmp)
	if comment != "" {
		if err := zw.SetComment(comment); err != nil {
			tmp.Close()
			return nil, err
		}
	}

	for _, name := range names {
		if err := addZipEntry(zw, filepath.Join(receiptsDir, name), name); err != nil {
			tmp.Close()
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: finish archive: %v", ErrFileSystem, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileSystem, err)
	}

	if err := os.Rename(tmp.Name(), archivePath); err != nil {
		return nil, fmt.Errorf("%w: replace %s: %v", ErrFileSystem, archivePath, err)
	}
	return names, nil
}

func addZipEntry(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileSystem, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileSystem, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("%w: add %s: %v", ErrFileSystem, name, err)
	}
	return nil
}
