package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// Store reads and writes one configuration document on a file system.
type Store struct {
	fs    afero.Fs
	path  string
	codec Codec
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithFs sets the file system. The default is the OS file system.
func WithFs(fsys afero.Fs) StoreOption {
	return func(s *Store) {
		s.fs = fsys
	}
}

// WithCodec overrides the codec chosen from the file extension.
func WithCodec(c Codec) StoreOption {
	return func(s *Store) {
		s.codec = c
	}
}

// NewStore creates a store for path.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{
		fs:    afero.NewOsFs(),
		path:  path,
		codec: CodecFor(path),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the document path.
func (s *Store) Path() string {
	return s.path
}

// Codec returns the codec in use.
func (s *Store) Codec() Codec {
	return s.codec
}

// Load reads the document.
//
// A missing file yields an empty document, exists == false and no error. A
// file that cannot be parsed yields an empty document, exists == true and a
// *ParseError; callers are expected to continue with the empty document.
func (s *Store) Load() (doc Document, exists bool, err error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(Document), false, nil
		}
		return make(Document), false, fmt.Errorf("reading config file %s: %w", s.path, err)
	}

	doc, err = s.codec.Decode(data)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = s.path
			return make(Document), true, perr
		}
		return make(Document), true, &ParseError{Path: s.path, Message: err.Error(), Err: err}
	}
	return doc, true, nil
}

// Save encodes entries and replaces the document. The new content is
// written to a temporary sibling first and renamed over the original.
func (s *Store) Save(entries []*Entry) error {
	data, err := s.codec.Encode(entries)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", s.path, err)
	}
	return s.WriteRaw(data)
}

// WriteRaw replaces the document with data.
func (s *Store) WriteRaw(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

// ReadRaw returns the current file content.
func (s *Store) ReadRaw() ([]byte, error) {
	return afero.ReadFile(s.fs, s.path)
}
