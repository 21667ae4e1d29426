package assets

import (
	"fmt"
	"io/fs"
	"log"
	"sort"
	"time"

	"github.com/gonewx/skelpose/internal/descriptor"
	bolt "go.etcd.io/bbolt"
)

// 资源文件中的 bucket
var (
	descriptorsBucket = []byte("descriptors") // 集合名 -> 描述文件 YAML
	skeletonsBucket   = []byte("skeletons")   // 骨骼 id -> 集合名
)

// ResourceFile 打包后的资源文件（bbolt 数据库）
//
// 由 skelpack 生成：每个描述集合以原始 YAML 存储，
// 写入前完整校验，所以资源文件中的集合总是可加载的。
// 实现了 Source 接口，可以直接作为 Library 的来源。
type ResourceFile struct {
	db *bolt.DB
}

// OpenResourceFile 打开资源文件，不存在时创建（只读模式除外）
func OpenResourceFile(path string, readOnly bool) (*ResourceFile, error) {
	db, err := bolt.Open(path, 0666, &bolt.Options{
		Timeout:  time.Second,
		ReadOnly: readOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open resource file '%s': %w", path, err)
	}
	return &ResourceFile{db: db}, nil
}

// Close 关闭资源文件
func (r *ResourceFile) Close() error {
	return r.db.Close()
}

// Put 校验并写入一个描述集合
// 同名集合被覆盖，其骨骼索引一并更新
func (r *ResourceFile) Put(name string, data []byte) error {
	set, err := descriptor.Load(data)
	if err != nil {
		return fmt.Errorf("descriptor '%s': %w", name, err)
	}

	return r.db.Update(func(tx *bolt.Tx) error {
		descBuck, err := tx.CreateBucketIfNotExists(descriptorsBucket)
		if err != nil {
			return err
		}
		skelBuck, err := tx.CreateBucketIfNotExists(skeletonsBucket)
		if err != nil {
			return err
		}

		// 清除旧版本的骨骼索引
		if err := unindex(skelBuck, name); err != nil {
			return err
		}

		for _, id := range set.SkeletonIDs() {
			if owner := skelBuck.Get([]byte(id)); owner != nil && string(owner) != name {
				return fmt.Errorf("skeleton '%s' of '%s' is already packed by '%s'", id, name, owner)
			}
			if err := skelBuck.Put([]byte(id), []byte(name)); err != nil {
				return err
			}
		}

		return descBuck.Put([]byte(name), data)
	})
}

// Pack 把来源中的所有描述集合写入资源文件
//
// 返回：
//   - int: 写入的集合数量
//   - error: 第一个失败的集合（之前写入的保留）
func (r *ResourceFile) Pack(src Source) (int, error) {
	names, err := src.List()
	if err != nil {
		return 0, err
	}

	packed := 0
	for _, name := range names {
		data, err := src.Read(name)
		if err != nil {
			return packed, err
		}
		if err := r.Put(name, data); err != nil {
			return packed, err
		}
		packed++
		log.Printf("[ResourceFile] Packed '%s' (%d bytes)", name, len(data))
	}
	return packed, nil
}

// List 返回所有集合名称（bbolt 按 key 排序）
func (r *ResourceFile) List() ([]string, error) {
	var names []string
	err := r.db.View(func(tx *bolt.Tx) error {
		buck := tx.Bucket(descriptorsBucket)
		if buck == nil {
			return nil
		}
		return buck.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Read 读取集合的 YAML
func (r *ResourceFile) Read(name string) ([]byte, error) {
	var data []byte
	err := r.db.View(func(tx *bolt.Tx) error {
		buck := tx.Bucket(descriptorsBucket)
		if buck == nil {
			return fmt.Errorf("descriptor '%s': %w", name, fs.ErrNotExist)
		}
		v := buck.Get([]byte(name))
		if v == nil {
			return fmt.Errorf("descriptor '%s': %w", name, fs.ErrNotExist)
		}
		// bbolt 返回的切片只在事务内有效
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}

// SkeletonOwner 返回定义了 skeletonID 的集合名称
func (r *ResourceFile) SkeletonOwner(skeletonID string) (string, bool) {
	var owner string
	_ = r.db.View(func(tx *bolt.Tx) error {
		buck := tx.Bucket(skeletonsBucket)
		if buck == nil {
			return nil
		}
		if v := buck.Get([]byte(skeletonID)); v != nil {
			owner = string(v)
		}
		return nil
	})
	return owner, owner != ""
}

// Delete 删除集合及其骨骼索引
func (r *ResourceFile) Delete(name string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		if buck := tx.Bucket(skeletonsBucket); buck != nil {
			if err := unindex(buck, name); err != nil {
				return err
			}
		}
		if buck := tx.Bucket(descriptorsBucket); buck != nil {
			return buck.Delete([]byte(name))
		}
		return nil
	})
}

// unindex 删除指向集合 name 的骨骼索引
// ForEach 期间不能修改 bucket，先收集再删除
func unindex(buck *bolt.Bucket, name string) error {
	var stale [][]byte
	err := buck.ForEach(func(k, v []byte) error {
		if string(v) == name {
			stale = append(stale, append([]byte(nil), k...))
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, k := range stale {
		if err := buck.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
