package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"sync"

	"github.com/gonewx/skelpose/internal/descriptor"
	"github.com/gonewx/skelpose/pkg/engine"
)

// ReloadFunc 描述集合重新加载后的回调
// eng 为 nil 表示该集合已被移除
type ReloadFunc func(name string, eng *engine.Engine)

// Library 描述集合库
//
// 每个集合对应一个 engine.Engine（集合 + 骨骼/Clip 缓存）。
// 重新加载时整体替换 Engine，已创建的 Player 继续使用旧数据，不受影响。
// 并发安全。
type Library struct {
	source Source

	mu        sync.RWMutex
	engines   map[string]*engine.Engine
	listeners []ReloadFunc
}

// NewLibrary 创建描述集合库（不加载，需调用 LoadAll）
func NewLibrary(source Source) *Library {
	return &Library{
		source:  source,
		engines: make(map[string]*engine.Engine),
	}
}

// LoadAll 加载来源中的所有描述集合
//
// 单个文件失败不影响其他文件，返回所有错误的合并（errors.Join）。
func (l *Library) LoadAll() error {
	names, err := l.source.List()
	if err != nil {
		return err
	}

	var errs []error
	loaded := 0
	for _, name := range names {
		eng, err := l.load(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		l.mu.Lock()
		l.engines[name] = eng
		l.mu.Unlock()
		loaded++
	}

	log.Printf("[AssetLibrary] Loaded %d/%d descriptor sets", loaded, len(names))
	return errors.Join(errs...)
}

func (l *Library) load(name string) (*engine.Engine, error) {
	data, err := l.source.Read(name)
	if err != nil {
		return nil, err
	}
	set, err := descriptor.Load(data)
	if err != nil {
		return nil, fmt.Errorf("descriptor '%s': %w", name, err)
	}
	return engine.New(set), nil
}

// Reload 重新加载单个描述集合
//
// 加载失败时保留旧版本并返回错误；文件已不存在时移除该集合。
func (l *Library) Reload(name string) error {
	eng, err := l.load(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.Remove(name)
			return nil
		}
		log.Printf("[AssetLibrary] Warning: reload of '%s' failed, keeping previous version: %v", name, err)
		return err
	}

	l.mu.Lock()
	l.engines[name] = eng
	listeners := append([]ReloadFunc(nil), l.listeners...)
	l.mu.Unlock()

	log.Printf("[AssetLibrary] Reloaded '%s'", name)
	for _, fn := range listeners {
		fn(name, eng)
	}
	return nil
}

// Remove 移除描述集合
func (l *Library) Remove(name string) {
	l.mu.Lock()
	_, existed := l.engines[name]
	delete(l.engines, name)
	listeners := append([]ReloadFunc(nil), l.listeners...)
	l.mu.Unlock()

	if !existed {
		return
	}
	log.Printf("[AssetLibrary] Removed '%s'", name)
	for _, fn := range listeners {
		fn(name, nil)
	}
}

// OnReload 注册重新加载回调（在 Reload 的调用方 goroutine 中执行）
func (l *Library) OnReload(fn ReloadFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// Get 按名称获取描述集合
func (l *Library) Get(name string) (*engine.Engine, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	eng, ok := l.engines[name]
	return eng, ok
}

// Names 返回已加载的集合名称（已排序）
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.engines))
	for name := range l.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindSkeleton 查找定义了 skeletonID 的集合
// 多个集合定义同一骨骼时，按名称排序取第一个
func (l *Library) FindSkeleton(skeletonID string) (*engine.Engine, string, bool) {
	for _, name := range l.Names() {
		eng, ok := l.Get(name)
		if !ok {
			continue
		}
		if _, ok := eng.Set().Skeleton(skeletonID); ok {
			return eng, name, true
		}
	}
	return nil, "", false
}

// HandleFileEvent 处理文件变化（来自 Watcher.Events）
func (l *Library) HandleFileEvent(path string) error {
	if !IsDescriptorFile(path) {
		return nil
	}
	return l.Reload(NameFromPath(path))
}

// Watch 消费 Watcher 的事件直到 ctx 结束或 Watcher 关闭
func (l *Library) Watch(ctx context.Context, w *Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-w.Events:
			if !ok {
				return
			}
			if err := l.HandleFileEvent(path); err != nil {
				log.Printf("[AssetLibrary] Warning: %v", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Printf("[AssetLibrary] Watcher error: %v", err)
		}
	}
}
