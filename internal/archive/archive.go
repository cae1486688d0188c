// Package archive persists evaluation results as one JSON document per run,
// grouped in one folder per knowledge file:
//
//	<root>/<base>_evaluation/<base>_<YYYYMMDD_HHMMSS>.json
package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ziadkadry99/knoweval/internal/evaluator"
	"github.com/ziadkadry99/knoweval/internal/knowledge"
)

// TimestampLayout is the record name timestamp, second precision.
const TimestampLayout = "20060102_150405"

// ErrCorruptRecord is returned when an archived file is not valid JSON.
var ErrCorruptRecord = errors.New("corrupt evaluation record")

// Record is one archived evaluation: the three feedback fields plus where
// and how it was produced.
type Record struct {
	evaluator.Result
	SourceFile string    `json:"source_file,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Provider   string    `json:"provider,omitempty"`
	Model      string    `json:"model,omitempty"`
	Focus      string    `json:"focus,omitempty"`

	// Name is the record file name. Raw is the document as stored on disk.
	Name string          `json:"-"`
	Raw  json.RawMessage `json:"-"`
}

// Archive reads and writes evaluation records under a root directory.
type Archive struct {
	root string
	now  func() time.Time
}

// Option configures an Archive.
type Option func(*Archive)

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Archive) { a.now = now }
}

// New creates an Archive rooted at dir (normally <knowledge>/evaluations).
func New(dir string, opts ...Option) *Archive {
	a := &Archive{root: dir, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Root returns the archive root directory.
func (a *Archive) Root() string { return a.root }

// Dir returns the folder holding the records of sourceFile.
func (a *Archive) Dir(sourceFile string) string {
	return filepath.Join(a.root, knowledge.BaseName(sourceFile)+"_evaluation")
}

// Save writes rec as a new record for sourceFile and returns its path.
// Existing records are never overwritten: a second save within the same
// second gets a zero-padded suffix (<base>_<ts>_002.json), which still
// sorts after the first. The name is derived from rec.Timestamp, or the
// clock when it is unset.
func (a *Archive) Save(sourceFile string, rec Record) (string, error) {
	dir, err := a.ensureDir(sourceFile)
	if err != nil {
		return "", err
	}

	if rec.Timestamp.IsZero() {
		rec.Timestamp = a.now()
	}
	if rec.SourceFile == "" {
		rec.SourceFile = sourceFile
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(rec); err != nil {
		return "", fmt.Errorf("encoding record: %w", err)
	}

	stem := knowledge.BaseName(sourceFile) + "_" + rec.Timestamp.Format(TimestampLayout)
	for n := 1; ; n++ {
		name := stem + ".json"
		if n > 1 {
			name = fmt.Sprintf("%s_%03d.json", stem, n)
		}
		path := filepath.Join(dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating record %s: %w", path, err)
		}
		if _, err := f.Write(buf.Bytes()); err != nil {
			f.Close()
			return "", fmt.Errorf("writing record %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("closing record %s: %w", path, err)
		}
		return path, nil
	}
}

// List returns the record names for sourceFile in lexicographic (and so
// chronological) order. A file with no evaluations yields an empty slice;
// its folder is created on the way.
func (a *Archive) List(sourceFile string) ([]string, error) {
	dir, err := a.ensureDir(sourceFile)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Load reads one record of sourceFile.
func (a *Archive) Load(sourceFile, recordName string) (*Record, error) {
	path, err := a.recordPath(sourceFile, recordName)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: record %s", knowledge.ErrNotFound, recordName)
		}
		return nil, fmt.Errorf("reading record %s: %w", recordName, err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrCorruptRecord, recordName)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptRecord, recordName, err)
	}
	rec.Name = recordName
	rec.Raw = json.RawMessage(data)
	return &rec, nil
}

// Info returns size and modification time of a record file.
func (a *Archive) Info(sourceFile, recordName string) (*knowledge.FileInfo, error) {
	path, err := a.recordPath(sourceFile, recordName)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: record %s", knowledge.ErrNotFound, recordName)
		}
		return nil, fmt.Errorf("stat record %s: %w", recordName, err)
	}
	return &knowledge.FileInfo{Name: recordName, Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

func (a *Archive) ensureDir(sourceFile string) (string, error) {
	if err := knowledge.ValidateName(sourceFile); err != nil {
		return "", err
	}
	dir := a.Dir(sourceFile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	return dir, nil
}

func (a *Archive) recordPath(sourceFile, recordName string) (string, error) {
	if err := knowledge.ValidateName(sourceFile); err != nil {
		return "", err
	}
	if recordName == "" || recordName != filepath.Base(recordName) || !strings.HasSuffix(recordName, ".json") {
		return "", fmt.Errorf("%w: record %q", knowledge.ErrNotFound, recordName)
	}
	return filepath.Join(a.Dir(sourceFile), recordName), nil
}
