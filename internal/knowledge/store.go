package knowledge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Extension is the suffix every knowledge file name must carry.
const Extension = ".txt"

var (
	// ErrInvalidName is returned when a file name does not end in Extension
	// or is not a bare file name.
	ErrInvalidName = errors.New("invalid file name")
	// ErrAlreadyExists is returned when creating a file that is already present.
	ErrAlreadyExists = errors.New("file already exists")
	// ErrNotFound is returned for a missing file or a missing root directory.
	ErrNotFound = errors.New("not found")
)

// FileInfo describes a knowledge file without its content.
type FileInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified"`
}

// File is a knowledge file together with its raw text.
type File struct {
	FileInfo
	Content string `json:"content"`
}

// Store provides CRUD operations over a flat directory of text notes.
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given directory. The directory is
// not created until the first file is.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the directory holding the knowledge files.
func (s *Store) Root() string { return s.root }

// ValidateName checks that name is a bare file name ending in Extension.
func ValidateName(name string) error {
	if !strings.HasSuffix(name, Extension) {
		return fmt.Errorf("%w: %q must end with %s", ErrInvalidName, name, Extension)
	}
	if name == Extension || strings.TrimSpace(strings.TrimSuffix(name, Extension)) == "" {
		return fmt.Errorf("%w: %q has no base name", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q must be a plain file name", ErrInvalidName, name)
	}
	return nil
}

// BaseName strips Extension from a knowledge file name.
func BaseName(name string) string {
	return strings.TrimSuffix(name, Extension)
}

// List returns the names of all knowledge files, sorted lexicographically.
func (s *Store) List() ([]string, error) {
	infos, err := s.ListInfo()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names, nil
}

// ListInfo is like List but includes size and modification time.
func (s *Store) ListInfo() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: folder %s", ErrNotFound, s.root)
		}
		return nil, fmt.Errorf("reading %s: %w", s.root, err)
	}

	infos := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), Extension) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, FileInfo{Name: e.Name(), Size: fi.Size(), ModTime: fi.ModTime()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Create writes a new file with the given initial content. The root
// directory is created when missing.
func (s *Store) Create(name, content string) (*File, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", s.root, err)
	}

	f, err := os.OpenFile(s.path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, name)
		}
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing %s: %w", name, err)
	}

	info, err := s.Stat(name)
	if err != nil {
		return nil, err
	}
	return &File{FileInfo: *info, Content: content}, nil
}

// Read returns the full text of a file.
func (s *Store) Read(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(data), nil
}

// Get returns a file with its content and metadata.
func (s *Store) Get(name string) (*File, error) {
	content, err := s.Read(name)
	if err != nil {
		return nil, err
	}
	info, err := s.Stat(name)
	if err != nil {
		return nil, err
	}
	return &File{FileInfo: *info, Content: content}, nil
}

// Update overwrites an existing file with content. There is no merge and no
// history: the previous text is gone.
func (s *Store) Update(name, content string) error {
	if _, err := s.Stat(name); err != nil {
		return err
	}
	if err := os.WriteFile(s.path(name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// Delete removes a file irrecoverably.
func (s *Store) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("deleting %s: %w", name, err)
	}
	return nil
}

// Stat returns size and modification time of a file.
func (s *Store) Stat(name string) (*FileInfo, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	fi, err := os.Stat(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrNotFound, name)
	}
	return &FileInfo{Name: name, Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.root, name)
}

// SizeLabel formats the size in kilobytes with one decimal.
func (i FileInfo) SizeLabel() string {
	return fmt.Sprintf("%.1f KB", float64(i.Size)/1024)
}

// ModifiedLabel formats the modification time to the minute, local time.
func (i FileInfo) ModifiedLabel() string {
	return i.ModTime.Local().Format("2006-01-02 15:04")
}
