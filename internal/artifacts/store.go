package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gaussapprox/adapters/npy"
	"gaussapprox/domain/artifact"
	"gaussapprox/internal/errors"
)

const ext = ".npy"

// LocalStore keeps arrays as .npy files below a root directory. A key such
// as "T7/tau3/percent5/X_comp" maps to <root>/T7/tau3/percent5/X_comp.npy.
// Each leaf is written once per run; a rerun overwrites it.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, errors.WriteFailure(basePath, err)
	}
	return &LocalStore{basePath: basePath}, nil
}

// Root returns the base directory.
func (s *LocalStore) Root() string {
	return s.basePath
}

// Save writes arr under key. The file is written to a temporary sibling and
// renamed into place so a failed write never leaves a truncated leaf.
func (s *LocalStore) Save(ctx context.Context, key string, arr artifact.Array) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	filePath := s.keyToPath(key)

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WriteFailure(dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*")
	if err != nil {
		return errors.WriteFailure(filePath, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := npy.Write(tmp, arr); err != nil {
		tmp.Close()
		cleanup()
		return errors.WriteFailure(filePath, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.WriteFailure(filePath, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return errors.WriteFailure(filePath, err)
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		cleanup()
		return errors.WriteFailure(filePath, err)
	}
	return nil
}

// Load reads the array stored under key.
func (s *LocalStore) Load(ctx context.Context, key string) (artifact.Array, error) {
	if err := ctx.Err(); err != nil {
		return artifact.Array{}, err
	}
	filePath := s.keyToPath(key)
	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return artifact.Array{}, errors.MissingInput(filePath, err)
		}
		return artifact.Array{}, errors.Wrapf(err, "failed to open %s", filePath)
	}
	defer f.Close()

	arr, err := npy.Read(f)
	if err != nil {
		return artifact.Array{}, errors.Wrapf(err, "failed to decode %s", filePath)
	}
	return arr, nil
}

// Exists checks if a key has been written.
func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.keyToPath(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "failed to check %s", key)
}

// List returns the sorted keys below prefix.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.Walk(s.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ext) || strings.HasPrefix(info.Name(), ".") {
			return nil
		}

		relPath, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}
		key := strings.TrimSuffix(filepath.ToSlash(relPath), ext)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list artifacts")
	}

	sort.Strings(keys)
	return keys, nil
}

func (s *LocalStore) keyToPath(key string) string {
	key = strings.TrimPrefix(key, "/")
	return filepath.Join(s.basePath, filepath.FromSlash(key)+ext)
}
