package filestore

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/flatnest"
	"github.com/wippyai/flatnest/errors"
	"github.com/wippyai/flatnest/leaf"
	"github.com/wippyai/flatnest/nest"
	"github.com/wippyai/flatnest/storage/memstore"
)

// OpenFlag selects how Open treats an existing file.
type OpenFlag int

const (
	// Default opens an existing file or creates a new one.
	Default OpenFlag = iota
	// MustExist fails when the file does not exist.
	MustExist
	// MustNotExist fails when the file exists.
	MustNotExist
	// Truncate discards any existing content.
	Truncate
)

func (f OpenFlag) String() string {
	switch f {
	case Default:
		return "default"
	case MustExist:
		return "must-exist"
	case MustNotExist:
		return "must-not-exist"
	case Truncate:
		return "truncate"
	default:
		return "unknown"
	}
}

// Config holds file options.
type Config struct {
	// Logger defaults to the package logger.
	Logger *zap.Logger
	// ReadOnly rejects Flush and skips writing on Close.
	ReadOnly bool
	// Perm is used when creating the file. Defaults to 0o644.
	Perm fs.FileMode
}

// File is a store persisted as one file. The tree is held in memory and
// written back by Flush and Close.
type File struct {
	*memstore.Store
	path     string
	log      *zap.Logger
	readOnly bool
	perm     fs.FileMode

	mu     sync.Mutex
	closed bool
}

var _ flatnest.Store = (*File)(nil)

func Open(path string, flag OpenFlag) (*File, error) {
	return OpenWithConfig(path, flag, nil)
}

func OpenWithConfig(path string, flag OpenFlag, cfg *Config) (*File, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	f := &File{
		Store:    memstore.New(),
		path:     path,
		log:      cfg.Logger,
		readOnly: cfg.ReadOnly,
		perm:     cfg.Perm,
	}
	if f.log == nil {
		f.log = Logger()
	}
	if f.perm == 0 {
		f.perm = 0o644
	}

	data, err := os.ReadFile(path)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "read "+path)
	}

	switch flag {
	case MustExist:
		if !exists {
			return nil, errors.NotFound(errors.PhaseLoad, "file", path)
		}
	case MustNotExist:
		if exists {
			return nil, errors.Exists(errors.PhaseLoad, "file", path)
		}
	case Truncate:
		exists = false
	case Default:
	default:
		return nil, errors.InvalidInput(errors.PhaseLoad, "unknown open flag "+flag.String())
	}

	if exists {
		if err := decode(data, f.Store); err != nil {
			return nil, err
		}
		f.log.Debug("opened file",
			zap.String("path", path),
			zap.Int("bytes", len(data)))
		return f, nil
	}

	if f.readOnly {
		return nil, errors.InvalidInput(errors.PhaseLoad, "cannot create a read-only file")
	}
	if err := f.Flush(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) Path() string { return f.path }

// Flush writes the tree to disk. The file is replaced atomically: the image
// goes to a temporary file in the same directory which is then renamed.
func (f *File) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.Closed(errors.PhaseStorage, "file")
	}
	return f.flush()
}

func (f *File) flush() error {
	if f.readOnly {
		return errors.InvalidInput(errors.PhaseStorage, "file is read-only")
	}

	data, err := encode(f.Store)
	if err != nil {
		return err
	}

	dir, base := filepath.Split(f.path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp*")
	if err != nil {
		return errors.Wrap(errors.PhaseStorage, errors.KindInvalidInput, err, "create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.PhaseStorage, errors.KindInvalidInput, err, "write "+tmpName)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(errors.PhaseStorage, errors.KindInvalidInput, err, "sync "+tmpName)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.PhaseStorage, errors.KindInvalidInput, err, "close "+tmpName)
	}
	if err := os.Chmod(tmpName, f.perm); err != nil {
		return errors.Wrap(errors.PhaseStorage, errors.KindInvalidInput, err, "chmod "+tmpName)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return errors.Wrap(errors.PhaseStorage, errors.KindInvalidInput, err, "rename to "+f.path)
	}

	f.log.Debug("flushed file",
		zap.String("path", f.path),
		zap.Int("bytes", len(data)))
	return nil
}

// Close flushes unless the file is read-only and releases the tree.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true

	var err error
	if !f.readOnly {
		err = f.flush()
	}
	if cerr := f.Store.Close(); err == nil {
		err = cerr
	}
	return err
}

// rawSize is the payload length of a shape the store already accepted.
func rawSize(lt leaf.Type, shape []int) int {
	n, _ := nest.Shape(shape).ByteSize(int(lt.Size))
	return n
}
