package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	st "github.com/hashmap-kz/storecrypt/pkg/storage"
)

// OSFileOps is the default FileOps: direct calls against the local
// filesystem. It is what every catalog constructor falls back to when no
// FileOps is supplied, since the catalog root is, per spec.md §5, always
// intra-host.
type OSFileOps struct{}

var _ FileOps = OSFileOps{}

func (OSFileOps) Open(_ Location, path string) (fs.File, error) { return os.Open(path) }

func (OSFileOps) ReadFile(_ Location, path string) ([]byte, error) { return os.ReadFile(path) }

func (OSFileOps) WriteFile(_ Location, path string, data []byte, perm fs.FileMode) error {
	return writeAtomic(path, data, perm)
}

func (OSFileOps) Stat(_ Location, path string) (fs.FileInfo, error) { return os.Stat(path) }

func (OSFileOps) Unlink(_ Location, path string) error { return os.Remove(path) }

func (OSFileOps) Rename(_ Location, oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

func (OSFileOps) MkdirAll(_ Location, path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (OSFileOps) ReadDir(_ Location, path string) ([]fs.DirEntry, error) { return os.ReadDir(path) }

// StorecryptFileOps backs LocationRemote with a storecrypt-managed backend
// (S3 or SFTP), and LocationLocal with storecrypt's own local backend, so a
// single catalog can enumerate a remote-agent-hosted catalog root the same
// way it enumerates a local one (spec.md §6: "the engine is location-
// agnostic"). Compression and encryption are out of scope for the catalog
// core (spec.md §1), so both backends are built with empty Algorithms and
// no write extension.
type StorecryptFileOps struct {
	Local  *st.VariadicStorage
	Remote *st.VariadicStorage
}

var _ FileOps = (*StorecryptFileOps)(nil)

// NewLocalStorecryptFileOps builds a StorecryptFileOps whose Local backend
// is rooted at baseDir, with no Remote backend configured.
func NewLocalStorecryptFileOps(baseDir string) (*StorecryptFileOps, error) {
	backend, err := st.NewLocal(&st.LocalStorageOpts{
		BaseDir:      filepath.ToSlash(baseDir),
		FsyncOnWrite: true,
	})
	if err != nil {
		return nil, err
	}
	vs, err := st.NewVariadicStorage(backend, st.Algorithms{}, "")
	if err != nil {
		return nil, err
	}
	return &StorecryptFileOps{Local: vs}, nil
}

func (s *StorecryptFileOps) pick(loc Location) (*st.VariadicStorage, error) {
	switch loc {
	case LocationLocal:
		if s.Local == nil {
			return nil, fmt.Errorf("catalog: no local storecrypt backend configured")
		}
		return s.Local, nil
	case LocationRemote:
		if s.Remote == nil {
			return nil, fmt.Errorf("catalog: no remote storecrypt backend configured")
		}
		return s.Remote, nil
	default:
		return nil, fmt.Errorf("catalog: unknown location %d", loc)
	}
}

func (s *StorecryptFileOps) Open(loc Location, path string) (fs.File, error) {
	vs, err := s.pick(loc)
	if err != nil {
		return nil, err
	}
	return vs.Open(context.Background(), path)
}

func (s *StorecryptFileOps) ReadFile(loc Location, path string) ([]byte, error) {
	vs, err := s.pick(loc)
	if err != nil {
		return nil, err
	}
	return vs.ReadFile(context.Background(), path)
}

func (s *StorecryptFileOps) WriteFile(loc Location, path string, data []byte, perm fs.FileMode) error {
	vs, err := s.pick(loc)
	if err != nil {
		return err
	}
	return vs.WriteFile(context.Background(), path, data, perm)
}

func (s *StorecryptFileOps) Stat(loc Location, path string) (fs.FileInfo, error) {
	vs, err := s.pick(loc)
	if err != nil {
		return nil, err
	}
	return vs.Stat(context.Background(), path)
}

func (s *StorecryptFileOps) Unlink(loc Location, path string) error {
	vs, err := s.pick(loc)
	if err != nil {
		return err
	}
	return vs.DeleteAll(context.Background(), path)
}

func (s *StorecryptFileOps) Rename(loc Location, oldpath, newpath string) error {
	vs, err := s.pick(loc)
	if err != nil {
		return err
	}
	return vs.Rename(context.Background(), oldpath, newpath)
}

func (s *StorecryptFileOps) MkdirAll(_ Location, _ string, _ fs.FileMode) error {
	// Object-store-backed backends (S3/SFTP-over-object-layout) have no
	// directory creation step; storecrypt creates prefixes implicitly on
	// first write, matching the teacher's own SetupStorage usage.
	return nil
}

func (s *StorecryptFileOps) ReadDir(loc Location, path string) ([]fs.DirEntry, error) {
	vs, err := s.pick(loc)
	if err != nil {
		return nil, err
	}
	return vs.ReadDir(context.Background(), path)
}
