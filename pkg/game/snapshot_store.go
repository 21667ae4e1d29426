package game

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"

	"github.com/gonewx/skelpose/pkg/player"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// 存储路径常量
const (
	snapshotsObject = "snapshots"
	scenesObject    = "scenes"
	indexProperty   = "index"
)

// ErrInvalidKey 快照键名非法
var ErrInvalidKey = errors.New("invalid snapshot key")

// 键名会成为 gdata 的属性名（文件名），只允许安全字符
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

// ActorSnapshot 场景中单个角色的播放状态
type ActorSnapshot struct {
	// Name 角色名称（查看器中的标签）
	Name string `yaml:"name"`

	// SetName 描述集合名称
	SetName string `yaml:"set"`

	Player player.Snapshot `yaml:"player"`
}

// SceneSnapshot 整个场景的播放状态
type SceneSnapshot struct {
	Actors []ActorSnapshot `yaml:"actors"`
}

// SnapshotStore 播放状态快照的持久化存储
// 数据保存在 gdata 中：对象 "snapshots"（单个播放器）和 "scenes"（场景）
type SnapshotStore struct {
	gdataManager *gdata.Manager // gdata 跨平台存储管理器，可为 nil（降级模式）
}

// NewSnapshotStore 创建快照存储
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，保存被忽略，加载总是找不到）
func NewSnapshotStore(gdataManager *gdata.Manager) *SnapshotStore {
	if gdataManager == nil {
		log.Printf("[SnapshotStore] Warning: no gdata manager, snapshots will not be persisted")
	}
	return &SnapshotStore{gdataManager: gdataManager}
}

// OpenSnapshotStore 打开应用 appName 的 gdata 存储
func OpenSnapshotStore(appName string) (*SnapshotStore, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("failed to open gdata for %q: %w", appName, err)
	}
	return NewSnapshotStore(m), nil
}

// Persistent 是否真正持久化（非降级模式）
func (s *SnapshotStore) Persistent() bool {
	return s.gdataManager != nil
}

// Save 保存单个播放器的快照
func (s *SnapshotStore) Save(key string, snap player.Snapshot) error {
	return s.save(snapshotsObject, key, snap)
}

// Load 加载单个播放器的快照，不存在时 found 为 false
func (s *SnapshotStore) Load(key string) (snap player.Snapshot, found bool, err error) {
	found, err = s.load(snapshotsObject, key, &snap)
	return snap, found, err
}

// SaveScene 保存场景快照
func (s *SnapshotStore) SaveScene(key string, scene SceneSnapshot) error {
	return s.save(scenesObject, key, scene)
}

// LoadScene 加载场景快照，不存在时 found 为 false
func (s *SnapshotStore) LoadScene(key string) (scene SceneSnapshot, found bool, err error) {
	found, err = s.load(scenesObject, key, &scene)
	return scene, found, err
}

// Keys 列出已保存的单个播放器快照键名（升序）
func (s *SnapshotStore) Keys() ([]string, error) {
	return s.readIndex(snapshotsObject)
}

// SceneKeys 列出已保存的场景快照键名（升序）
func (s *SnapshotStore) SceneKeys() ([]string, error) {
	return s.readIndex(scenesObject)
}

// Delete 删除单个播放器快照，不存在时不报错
func (s *SnapshotStore) Delete(key string) error {
	return s.delete(snapshotsObject, key)
}

// DeleteScene 删除场景快照，不存在时不报错
func (s *SnapshotStore) DeleteScene(key string) error {
	return s.delete(scenesObject, key)
}

// Clear 删除所有单个播放器快照和场景快照，返回删除的数量
func (s *SnapshotStore) Clear() (int, error) {
	removed := 0
	for _, list := range []struct {
		keys   func() ([]string, error)
		delete func(string) error
	}{
		{s.Keys, s.Delete},
		{s.SceneKeys, s.DeleteScene},
	} {
		keys, err := list.keys()
		if err != nil {
			return removed, err
		}
		for _, key := range keys {
			if err := list.delete(key); err != nil {
				return removed, err
			}
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[SnapshotStore] Cleared %d snapshot(s)", removed)
	}
	return removed, nil
}

func (s *SnapshotStore) save(object, key string, v any) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if s.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", object, key, err)
	}
	if err := s.gdataManager.SaveObjectProp(object, key, data); err != nil {
		return fmt.Errorf("failed to save %s/%s: %w", object, key, err)
	}

	keys, err := s.readIndex(object)
	if err != nil {
		return err
	}
	i := sort.SearchStrings(keys, key)
	if i == len(keys) || keys[i] != key {
		keys = append(keys, "")
		copy(keys[i+1:], keys[i:])
		keys[i] = key
		if err := s.writeIndex(object, keys); err != nil {
			return err
		}
	}

	log.Printf("[SnapshotStore] Saved %s/%s (%d bytes)", object, key, len(data))
	return nil
}

func (s *SnapshotStore) load(object, key string, v any) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	if s.gdataManager == nil || !s.gdataManager.ObjectPropExists(object, key) {
		return false, nil
	}

	data, err := s.gdataManager.LoadObjectProp(object, key)
	if err != nil {
		return false, fmt.Errorf("failed to load %s/%s: %w", object, key, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s/%s: %w", object, key, err)
	}
	return true, nil
}

func (s *SnapshotStore) delete(object, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if s.gdataManager == nil || !s.gdataManager.ObjectPropExists(object, key) {
		return nil
	}
	if err := s.gdataManager.DeleteObjectProp(object, key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", object, key, err)
	}

	keys, err := s.readIndex(object)
	if err != nil {
		return err
	}
	i := sort.SearchStrings(keys, key)
	if i < len(keys) && keys[i] == key {
		keys = append(keys[:i], keys[i+1:]...)
		return s.writeIndex(object, keys)
	}
	return nil
}

// readIndex 读取键名索引
// 索引存放在独立对象 <object>_index 中，避免与快照键名冲突
func (s *SnapshotStore) readIndex(object string) ([]string, error) {
	if s.gdataManager == nil {
		return nil, nil
	}
	indexObject := object + "_" + indexProperty
	if !s.gdataManager.ObjectPropExists(indexObject, indexProperty) {
		return nil, nil
	}
	data, err := s.gdataManager.LoadObjectProp(indexObject, indexProperty)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s index: %w", object, err)
	}
	var keys []string
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s index: %w", object, err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *SnapshotStore) writeIndex(object string, keys []string) error {
	data, err := yaml.Marshal(keys)
	if err != nil {
		return fmt.Errorf("failed to marshal %s index: %w", object, err)
	}
	if err := s.gdataManager.SaveObjectProp(object+"_"+indexProperty, indexProperty, data); err != nil {
		return fmt.Errorf("failed to save %s index: %w", object, err)
	}
	return nil
}

func checkKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
