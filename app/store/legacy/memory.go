package legacy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// MemoryKV 进程内实现, path 非空时每次写入后整体落盘为 json 文件
type MemoryKV struct {
	data   cmap.ConcurrentMap[string, json.RawMessage]
	path   string
	closed atomic.Bool
	// 串行化落盘
	flushLock sync.Mutex
}

func NewMemoryKV(path string) (*MemoryKV, error) {
	kv := &MemoryKV{
		data: cmap.New[json.RawMessage](),
		path: path,
	}
	if path == "" {
		return kv, nil
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return kv, nil
	}
	if err != nil {
		return nil, wrapError("MemoryKV.New.ReadFile", err, false)
	}
	if len(raw) == 0 {
		return kv, nil
	}

	var items map[string]json.RawMessage
	if err = json.Unmarshal(raw, &items); err != nil {
		return nil, wrapError("MemoryKV.New.Unmarshal", fmt.Errorf("decode %s: %w", path, err), false)
	}
	kv.data.MSet(items)
	return kv, nil
}

func (m *MemoryKV) check(trace string, write bool) error {
	if m.closed.Load() {
		return wrapError(trace, ErrKVClosed, write)
	}
	return nil
}

func (m *MemoryKV) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	if err := m.check("MemoryKV.Get", false); err != nil {
		return nil, err
	}
	res := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		if v, ok := m.data.Get(k); ok {
			res[k] = v
		}
	}
	return res, nil
}

func (m *MemoryKV) GetAll(ctx context.Context) (map[string]json.RawMessage, error) {
	if err := m.check("MemoryKV.GetAll", false); err != nil {
		return nil, err
	}
	return m.data.Items(), nil
}

func (m *MemoryKV) Set(ctx context.Context, items map[string]json.RawMessage) error {
	if err := m.check("MemoryKV.Set", true); err != nil {
		return err
	}
	m.data.MSet(items)
	return m.flush("MemoryKV.Set")
}

func (m *MemoryKV) Remove(ctx context.Context, keys ...string) error {
	if err := m.check("MemoryKV.Remove", true); err != nil {
		return err
	}
	for _, k := range keys {
		m.data.Remove(k)
	}
	return m.flush("MemoryKV.Remove")
}

func (m *MemoryKV) Clear(ctx context.Context) error {
	if err := m.check("MemoryKV.Clear", true); err != nil {
		return err
	}
	m.data.Clear()
	return m.flush("MemoryKV.Clear")
}

func (m *MemoryKV) Close() error {
	m.closed.Store(true)
	return nil
}

// flush 先写临时文件再 rename, 避免半截文件
func (m *MemoryKV) flush(trace string) error {
	if m.path == "" {
		return nil
	}
	m.flushLock.Lock()
	defer m.flushLock.Unlock()

	raw, err := json.Marshal(m.data.Items())
	if err != nil {
		return wrapError(trace+".Marshal", err, true)
	}

	if err = os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return wrapError(trace+".MkdirAll", err, true)
	}
	tmp := m.path + ".tmp"
	if err = os.WriteFile(tmp, raw, 0o600); err != nil {
		return wrapError(trace+".WriteFile", err, true)
	}
	if err = os.Rename(tmp, m.path); err != nil {
		return wrapError(trace+".Rename", err, true)
	}
	return nil
}
