package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rushteam/prodrec/core"
)

// FileStore 将每个 key 存为目录下的一个文件。
// Set 先写临时文件再 rename，读者不会看到写了一半的文件。
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable,
			fmt.Sprintf("store: create dir %s", dir), err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) Name() string { return "file" }

// Path 返回 key 对应的文件路径，key 中的 "/" 会被替换。
func (f *FileStore) Path(key string) string {
	return filepath.Join(f.dir, strings.ReplaceAll(key, "/", "_")+".bin")
}

func (f *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, core.ErrStoreNotFound
	}
	return data, err
}

func (f *FileStore) Set(ctx context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, f.Path(key)); err != nil {
		cleanup()
		return err
	}
	return nil
}

func (f *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(f.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (f *FileStore) Close() error { return nil }
