// Package filekv implements platform.Store on top of a directory of blob
// files. Cross-process change propagation comes from an fsnotify watcher
// on the directory: another process saving a blob surfaces here as a Watch
// event, which the coordinator provider uses as its durability-layer sync
// channel.
package filekv

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/xxh3"
)

const blobExt = ".blob"

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Load(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read blob %q: %w", key, err)
	}
	return data, true, nil
}

func (s *Store) Save(key string, data []byte) error {
	name := s.path(key)
	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write blob %q: %w", key, err)
	}
	if err := os.Rename(tmp, name); err != nil {
		return fmt.Errorf("publish blob %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %q: %w", key, err)
	}
	return nil
}

func (s *Store) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if err = watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch blob dir: %w", err)
	}

	ch := make(chan string, 16)
	go func() {
		defer close(ch)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
					continue
				}
				key, ok := keyFromPath(ev.Name)
				if !ok {
					continue
				}
				select {
				case ch <- key:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Err(err).Msg("[filekv] watcher error")
			}
		}
	}()
	return ch, nil
}

func (s *Store) Close() error { return nil }

// path derives a reversible file name from the key so watcher events map
// back to the originating key: hex of the key bytes plus an xxh3 guard
// suffix against truncated or foreign files in the directory.
func (s *Store) path(key string) string {
	return filepath.Join(s.dir, fileName(key))
}

func fileName(key string) string {
	guard := xxh3.Hash([]byte(key))
	return hex.EncodeToString([]byte(key)) + "-" + fmt.Sprintf("%016x", guard) + blobExt
}

func keyFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, blobExt) {
		return "", false
	}
	name := strings.TrimSuffix(base, blobExt)
	idx := strings.LastIndexByte(name, '-')
	if idx <= 0 {
		return "", false
	}
	raw, err := hex.DecodeString(name[:idx])
	if err != nil {
		return "", false
	}
	key := string(raw)
	if fmt.Sprintf("%016x", xxh3.Hash(raw)) != name[idx+1:] {
		return "", false
	}
	return key, true
}
