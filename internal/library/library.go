// Package library manages the on-disk reference tree and its index.
//
// A library is a directory of year subdirectories, each holding
// documents named after their citation key plus a JSON sidecar per
// document. The sidecars are the source of truth; the in-memory index
// and the SQLite query cache are both derived from them.
package library

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	// CarrelDir is the library-internal state directory.
	CarrelDir = ".carrel"
	// SidecarExt is appended to a document path to name its sidecar.
	SidecarExt = ".sidecar"
)

var yearDirPattern = regexp.MustCompile(`^\d{4}$`)

// Entry is one stored reference.
type Entry struct {
	Key     string    `json:"key"`
	BibTeX  string    `json:"bibtex"`
	Text    string    `json:"text,omitempty"`
	AddedAt time.Time `json:"added_at"`

	// RelPath and Year are derived from the entry's location in the
	// tree and are not persisted in the sidecar.
	RelPath string `json:"-"`
	Year    string `json:"-"`
}

// Library is the process-scoped index over one reference tree. It is
// loaded once per command and mutated only from a single goroutine;
// running two commands against the same root concurrently is not
// supported.
type Library struct {
	Root    string
	entries map[string]Entry
}

// CachePath returns the query cache directory under root.
func CachePath(root string) string {
	return filepath.Join(root, CarrelDir, "cache")
}

// DBPath returns the query cache database path under root.
func DBPath(root string) string {
	return filepath.Join(CachePath(root), "index.db")
}

// SidecarPath returns the sidecar path for a document path.
func SidecarPath(docPath string) string {
	return docPath + SidecarExt
}

// Open loads the library index by scanning <root>/<year>/*.sidecar.
func Open(root string) (*Library, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("opening library root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library root is not a directory: %s", root)
	}

	lib := &Library{Root: root, entries: make(map[string]Entry)}

	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("scanning library root: %w", err)
	}
	for _, d := range dirs {
		if !d.IsDir() || !yearDirPattern.MatchString(d.Name()) {
			continue
		}
		if err := lib.loadYearDir(d.Name()); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

func (l *Library) loadYearDir(year string) error {
	dir := filepath.Join(l.Root, year)
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", dir, err)
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), SidecarExt) {
			continue
		}
		path := filepath.Join(dir, f.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading sidecar %s: %w", path, err)
		}

		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("parsing sidecar %s: %w", path, err)
		}
		e.Year = year
		e.RelPath = filepath.Join(year, strings.TrimSuffix(f.Name(), SidecarExt))
		l.entries[e.Key] = e
	}
	return nil
}

// Has reports whether key is in the index.
func (l *Library) Has(key string) bool {
	_, ok := l.entries[key]
	return ok
}

// Get returns the entry for key.
func (l *Library) Get(key string) (Entry, bool) {
	e, ok := l.entries[key]
	return e, ok
}

// Keys returns all citation keys, sorted.
func (l *Library) Keys() []string {
	keys := make([]string, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns all entries ordered by key.
func (l *Library) All() []Entry {
	entries := make([]Entry, 0, len(l.entries))
	for _, k := range l.Keys() {
		entries = append(entries, l.entries[k])
	}
	return entries
}

// Count returns the number of indexed entries.
func (l *Library) Count() int {
	return len(l.entries)
}

// AbsPath returns the absolute document path for an entry.
func (l *Library) AbsPath(e Entry) string {
	return filepath.Join(l.Root, e.RelPath)
}

// Taken reports whether a candidate key collides with the index or
// with any file already named <key>.* in the year directory. Both
// spaces must be free before the key can be used.
func (l *Library) Taken(key, year string) bool {
	if l.Has(key) {
		return true
	}
	matches, err := filepath.Glob(filepath.Join(l.Root, year, key+".*"))
	if err != nil {
		return true
	}
	return len(matches) > 0
}

// Place moves the document at srcPath into the tree as
// <root>/<year>/<key><ext>, writes its sidecar, and inserts the entry
// into the index. The move and the sidecar write form one logical
// commit: if the sidecar write fails, the move is rolled back
// best-effort and the index is left unchanged.
func (l *Library) Place(srcPath, key, year, bibtex, text string) (Entry, error) {
	if l.Has(key) {
		return Entry{}, fmt.Errorf("key already in library: %s", key)
	}

	dir := filepath.Join(l.Root, year)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Entry{}, fmt.Errorf("creating year directory: %w", err)
	}

	ext := filepath.Ext(srcPath)
	rel := filepath.Join(year, key+ext)
	dest := filepath.Join(l.Root, rel)
	if _, err := os.Stat(dest); err == nil {
		return Entry{}, fmt.Errorf("destination already exists: %s", dest)
	}

	if err := moveFile(srcPath, dest); err != nil {
		return Entry{}, fmt.Errorf("moving document: %w", err)
	}

	e := Entry{
		Key:     key,
		BibTeX:  bibtex,
		Text:    text,
		AddedAt: time.Now().UTC(),
		RelPath: rel,
		Year:    year,
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err == nil {
		err = os.WriteFile(SidecarPath(dest), data, 0644)
	}
	if err != nil {
		// Roll the move back so the caller's file is not stranded
		// inside a tree that has no record of it.
		_ = moveFile(dest, srcPath)
		return Entry{}, fmt.Errorf("writing sidecar: %w", err)
	}

	l.entries[key] = e
	return e, nil
}

// Remove deletes an entry's document and sidecar, then drops it from
// the index. When moveTo is non-empty the document is relocated there
// (basename preserved) instead of deleted. The index is only touched
// after the filesystem operations succeed.
func (l *Library) Remove(key, moveTo string) error {
	e, ok := l.entries[key]
	if !ok {
		return fmt.Errorf("key not in library: %s", key)
	}

	doc := l.AbsPath(e)
	if moveTo != "" {
		dest := filepath.Join(moveTo, filepath.Base(doc))
		if err := moveFile(doc, dest); err != nil {
			return fmt.Errorf("relocating document: %w", err)
		}
	} else {
		if err := os.Remove(doc); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("deleting document: %w", err)
		}
	}

	if err := os.Remove(SidecarPath(doc)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting sidecar: %w", err)
	}

	delete(l.entries, key)
	return nil
}

// moveFile renames src to dest, falling back to copy-and-delete when
// rename crosses a filesystem boundary.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return err
	}
	return os.Remove(src)
}
