package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EngineConfig 引擎配置
//
// 配置文件位置: data/engine.yaml（可通过 -config 参数指定）
// 文件中未出现的字段使用 DefaultEngineConfig 的默认值。
type EngineConfig struct {
	// Assets 描述文件来源
	Assets AssetsConfig `yaml:"assets"`

	// Playback 播放参数
	Playback PlaybackConfig `yaml:"playback"`

	// Snapshots 播放状态存档
	Snapshots SnapshotsConfig `yaml:"snapshots"`

	// Viewer 调试查看器窗口
	Viewer ViewerConfig `yaml:"viewer"`
}

// AssetsConfig 描述文件来源配置
type AssetsConfig struct {
	// Dir 描述文件目录（*.yaml），每个文件是一个描述集合
	Dir string `yaml:"dir"`

	// Embedded 为 true 时从二进制内嵌文件系统读取，而不是磁盘
	Embedded bool `yaml:"embedded"`

	// Watch 为 true 时监听目录变化并热重载（仅磁盘模式）
	Watch bool `yaml:"watch"`

	// ResourceFile 可选的打包资源文件（skelpack 生成），非空时优先使用
	ResourceFile string `yaml:"resource_file"`
}

// PlaybackConfig 播放配置
type PlaybackConfig struct {
	TPS   int     `yaml:"tps"`   // 更新循环的目标 TPS
	Speed float64 `yaml:"speed"` // 新建播放器的默认速度倍率
}

// SnapshotsConfig 存档配置
type SnapshotsConfig struct {
	// AppName gdata 应用名，决定存档目录；为空时禁用存档
	AppName string `yaml:"app_name"`
}

// ViewerConfig 调试查看器配置
type ViewerConfig struct {
	Width     int  `yaml:"width"`
	Height    int  `yaml:"height"`
	ShowBones bool `yaml:"show_bones"` // 绘制骨骼辅助线
}

// DefaultEngineConfig 返回默认配置
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Assets: AssetsConfig{
			Dir:      "data/sprites",
			Embedded: true,
		},
		Playback: PlaybackConfig{
			TPS:   60,
			Speed: 1.0,
		},
		Snapshots: SnapshotsConfig{
			AppName: "skelpose",
		},
		Viewer: ViewerConfig{
			Width:     800,
			Height:    600,
			ShowBones: true,
		},
	}
}

// LoadEngineConfig 加载引擎配置
//
// 参数:
//   - path: 配置文件路径（如 "data/engine.yaml"）
//
// 返回:
//   - *EngineConfig: 合并默认值并验证后的配置
//   - error: 读取、解析或验证失败
func LoadEngineConfig(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine config: %w", err)
	}
	return ParseEngineConfig(data)
}

// ParseEngineConfig 解析 YAML 配置，缺省字段保持默认值
func ParseEngineConfig(data []byte) (*EngineConfig, error) {
	config := DefaultEngineConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse engine config: %w", err)
	}

	// 验证配置
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	return &config, nil
}

// Validate 验证配置有效性
//
// 检查：
//   - assets.dir 不能为空（除非使用资源文件）
//   - playback.tps > 0，playback.speed >= 0
//   - viewer 宽高 > 0
//   - embedded 模式下不能开启 watch（内嵌文件不会变化）
func (c *EngineConfig) Validate() error {
	if c.Assets.Dir == "" && c.Assets.ResourceFile == "" {
		return fmt.Errorf("assets.dir or assets.resource_file is required")
	}
	if c.Assets.Embedded && c.Assets.Watch {
		return fmt.Errorf("assets.watch cannot be used with embedded assets")
	}
	if c.Playback.TPS <= 0 {
		return fmt.Errorf("playback.tps must be > 0, got %d", c.Playback.TPS)
	}
	if c.Playback.Speed < 0 {
		return fmt.Errorf("playback.speed must be >= 0, got %.2f", c.Playback.Speed)
	}
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		return fmt.Errorf("viewer size must be positive, got %dx%d", c.Viewer.Width, c.Viewer.Height)
	}
	return nil
}

// TickSeconds 返回一个 tick 的时长（秒）
func (c *EngineConfig) TickSeconds() float64 {
	return 1.0 / float64(c.Playback.TPS)
}
