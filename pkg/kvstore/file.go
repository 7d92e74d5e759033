package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

var _ Store = (*File)(nil)

// File is a Store persisted as a single JSON object on disk. Every write
// rewrites the file atomically (temp file + rename), so a crash mid-write
// never leaves a torn entry behind.
type File struct {
	path string

	mu   sync.Mutex
	data map[string]string
}

// OpenFile loads the store at path, creating parent directories as needed.
// A missing file yields an empty store; an unreadable one is an error.
func OpenFile(path string) (*File, error) {
	f := &File{path: path, data: make(map[string]string)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}

	d := jx.DecodeBytes(raw)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		v, err := d.Str()
		if err != nil {
			return err
		}
		f.data[key] = v
		return nil
	}); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}

	return f, nil
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return f.flushLocked()
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return f.flushLocked()
}

func (f *File) Ping(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushLocked()
}

// flushLocked serializes the map and atomically replaces the backing file.
// Caller must hold f.mu.
func (f *File) flushLocked() error {
	var e jx.Encoder
	e.ObjStart()
	for k, v := range f.data {
		e.FieldStart(k)
		e.Str(v)
	}
	e.ObjEnd()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "mkdir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".kvstore-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(e.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "close temp file")
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "rename to %s", f.path)
	}
	return nil
}
