package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Disk persists each key as one file under the root directory. Writes go
// through a temp file plus rename, so a torn write never corrupts the
// previous value.
type Disk struct {
	rootPath string
	mutex    sync.RWMutex
}

func NewDisk(rootPath string) (*Disk, error) {
	if rootPath == "" {
		return nil, errors.New("root path cannot be empty")
	}
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}

	log.Debugf("disk store root: %s", rootPath)

	return &Disk{
		rootPath: rootPath,
	}, nil
}

func (d *Disk) Get(_ context.Context, key string) (string, error) {
	filePath, err := d.keyPath(key)
	if err != nil {
		return "", err
	}

	d.mutex.RLock()
	defer d.mutex.RUnlock()

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("read key %s: %w", key, err)
	}

	return string(data), nil
}

func (d *Disk) Set(_ context.Context, key, value string) error {
	filePath, err := d.keyPath(key)
	if err != nil {
		return err
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(value), 0o644); err != nil {
		return fmt.Errorf("write key %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		return fmt.Errorf("rename key %s: %w", key, err)
	}

	return nil
}

func (d *Disk) RemoveMany(_ context.Context, keys []string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	var errs error
	for _, key := range keys {
		filePath, err := d.keyPath(key)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			errs = multierr.Append(errs, fmt.Errorf("remove key %s: %w", key, err))
		}
	}

	return errs
}

// keyPath maps a key to its backing file, refusing keys that would
// escape the root directory.
func (d *Disk) keyPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid store key: %q", key)
	}
	return path.Join(d.rootPath, key+".json"), nil
}
