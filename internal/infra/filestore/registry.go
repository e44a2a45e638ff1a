// Package filestore keeps the channel registry in a single JSON file.
//
// The file is one flat object mapping channel id to display name. Keys are
// written in insertion order and read back in file order, so menus list
// channels in the order they were added. Every mutation rewrites the whole
// file through a temp file and a rename.
package filestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"channel-signature-bot/internal/domain"
)

type Registry struct {
	mu     sync.RWMutex
	path   string
	order  []string
	names  map[string]string
	logger *slog.Logger
}

// Load reads the registry at path. A missing or corrupt file yields an empty
// registry; the bot must start even when its store is damaged.
func Load(path string, logger *slog.Logger) *Registry {
	r := &Registry{path: path, names: make(map[string]string), logger: logger}
	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) && logger != nil {
			logger.Warn("registry read failed, starting empty", "path", path, "error", err)
		}
		return r
	}
	order, names, err := decode(raw)
	if err != nil {
		if logger != nil {
			logger.Warn("registry corrupt, starting empty", "path", path, "error", err)
		}
		return r
	}
	r.order, r.names = order, names
	if logger != nil {
		logger.Info("registry loaded", "path", path, "channels", len(order))
	}
	return r
}

// Add registers or renames a channel. When the file cannot be written the
// registry is left as it was.
func (r *Registry) Add(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, existed := r.names[id]
	if !existed {
		r.order = append(r.order, id)
	}
	r.names[id] = name
	if err := r.saveLocked(); err != nil {
		if existed {
			r.names[id] = prev
		} else {
			delete(r.names, id)
			r.order = r.order[:len(r.order)-1]
		}
		return err
	}
	return nil
}

// Remove reports whether id was registered. A failed write restores it.
func (r *Registry) Remove(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.names[id]
	if !ok {
		return false, nil
	}
	idx := slices.Index(r.order, id)
	delete(r.names, id)
	r.order = slices.Delete(r.order, idx, idx+1)
	if err := r.saveLocked(); err != nil {
		r.names[id] = name
		r.order = slices.Insert(r.order, idx, id)
		return false, err
	}
	return true, nil
}

func (r *Registry) Get(id string) (domain.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[id]
	if !ok {
		return domain.Channel{}, false
	}
	return domain.Channel{ID: id, Name: name}, true
}

func (r *Registry) List() []domain.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Channel, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, domain.Channel{ID: id, Name: r.names[id]})
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *Registry) saveLocked() error {
	raw, err := encode(r.order, r.names)
	if err != nil {
		return fmt.Errorf("filestore: encode: %w", err)
	}
	if err := writeFileAtomic(r.path, raw); err != nil {
		return fmt.Errorf("filestore: write %s: %w", r.path, err)
	}
	if r.logger != nil {
		r.logger.Debug("registry saved", "path", r.path, "channels", len(r.order))
	}
	return nil
}

func encode(order []string, names map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, id := range order {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		k, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(names[id])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteString(": ")
		buf.Write(v)
	}
	if len(order) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// decode walks the object token by token so key order survives.
func decode(raw []byte) ([]string, map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}
	var order []string
	names := make(map[string]string)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected string key, got %v", tok)
		}
		var val string
		if err := dec.Decode(&val); err != nil {
			return nil, nil, fmt.Errorf("value for %q: %w", key, err)
		}
		if _, seen := names[key]; !seen {
			order = append(order, key)
		}
		names[key] = val
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, errors.New("trailing data after object")
	}
	return order, names, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
