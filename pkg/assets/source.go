// Package assets 描述集合的来源与管理
//
// 一个描述文件（*.yaml）即一个描述集合，按文件名（不含扩展名）命名。
// 来源可以是目录（磁盘或内嵌文件系统），也可以是 skelpack 生成的资源文件。
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Source 描述文件来源
type Source interface {
	// List 返回所有描述集合名称（已排序）
	List() ([]string, error)

	// Read 读取指定名称的描述文件内容
	// 不存在时返回的错误满足 errors.Is(err, fs.ErrNotExist)
	Read(name string) ([]byte, error)
}

// descriptorExts 支持的描述文件扩展名（按优先级）
var descriptorExts = []string{".yaml", ".yml"}

// IsDescriptorFile 判断路径是否为描述文件
func IsDescriptorFile(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range descriptorExts {
		if ext == e {
			return true
		}
	}
	return false
}

// NameFromPath 从文件路径得到描述集合名称
// 例如 "data/sprites/warrior.yaml" -> "warrior"
func NameFromPath(p string) string {
	base := filepath.Base(filepath.FromSlash(p))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DirSource 目录来源，FS 可以是 os.DirFS 或内嵌文件系统
type DirSource struct {
	FS  fs.FS
	Dir string // FS 内的目录，"." 表示根目录
}

// List 列出目录下的描述文件
func (s DirSource) List() ([]string, error) {
	entries, err := fs.ReadDir(s.FS, s.dir())
	if err != nil {
		return nil, fmt.Errorf("failed to list descriptor dir '%s': %w", s.dir(), err)
	}

	seen := make(map[string]bool)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsDescriptorFile(entry.Name()) {
			continue
		}
		name := NameFromPath(entry.Name())
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Read 读取描述文件，.yaml 优先于 .yml
func (s DirSource) Read(name string) ([]byte, error) {
	for _, ext := range descriptorExts {
		data, err := fs.ReadFile(s.FS, path.Join(s.dir(), name+ext))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read descriptor '%s': %w", name, err)
		}
	}
	return nil, fmt.Errorf("descriptor '%s': %w", name, fs.ErrNotExist)
}

func (s DirSource) dir() string {
	if s.Dir == "" {
		return "."
	}
	return s.Dir
}
