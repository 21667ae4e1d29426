package descriptor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse 解析描述文件 YAML，不做校验
// 未知字段会被拒绝，拼写错误以 ParseError 报告
func Parse(data []byte) (*Set, error) {
	return parse(data, "")
}

func parse(data []byte, source string) (*Set, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var set Set
	if err := decoder.Decode(&set); err != nil {
		if errors.Is(err, io.EOF) {
			// 空文档即空集合
			return &set, nil
		}
		return nil, &ParseError{Source: source, Err: err}
	}

	// 一个文件只能有一个集合，后续的 --- 文档不能被静默忽略
	var extra yaml.Node
	if err := decoder.Decode(&extra); err != nil {
		if errors.Is(err, io.EOF) {
			return &set, nil
		}
		return nil, &ParseError{Source: source, Err: err}
	}
	if !emptyDocument(&extra) {
		return nil, &ParseError{
			Source: source,
			Err:    fmt.Errorf("line %d: unexpected extra YAML document, a descriptor file holds one set", extra.Line),
		}
	}

	return &set, nil
}

// emptyDocument 末尾单独的 "---" 产生一个只含 null 的文档
func emptyDocument(doc *yaml.Node) bool {
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return true
		}
		doc = doc.Content[0]
	}
	return doc.Kind == 0 || (doc.Kind == yaml.ScalarNode && doc.ShortTag() == "!!null")
}

// Load 解析、校验并索引描述集合
//
// 参数：
//   - data: 描述文件 YAML
//
// 返回：
//   - *Set: 只读描述集合
//   - error: 格式错误返回 *ParseError，引用错误返回 *ValidationError
//
// 示例：
//
//	set, err := descriptor.Load(data)
//	if err != nil {
//	    log.Fatalf("Failed to load descriptor: %v", err)
//	}
//	anim, _ := set.Animation("warrior", "walk")
func Load(data []byte) (*Set, error) {
	return load(data, "")
}

func load(data []byte, source string) (*Set, error) {
	set, err := parse(data, source)
	if err != nil {
		return nil, err
	}

	if err := Validate(set); err != nil {
		if source != "" {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		return nil, err
	}

	set.buildIndex()
	return set, nil
}

// LoadFile 从磁盘加载描述文件
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor file '%s': %w", path, err)
	}
	return load(data, path)
}

// LoadFS 从 fsys 加载描述文件
func LoadFS(fsys fs.FS, name string) (*Set, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor file '%s': %w", name, err)
	}
	return load(data, name)
}
