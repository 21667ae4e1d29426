// Package engine 姿态引擎入口：加载描述集合、解析骨骼、创建播放器、命中测试
//
// 示例：
//
//	eng, err := engine.LoadDescriptor(data)
//	if err != nil {
//	    log.Fatalf("Failed to load descriptor: %v", err)
//	}
//	p, err := eng.CreatePlayer("warrior", "walk")
//	...
//	p.Tick(1.0 / 60)
//	pose := p.Pose()
package engine

import (
	"github.com/gonewx/skelpose/internal/descriptor"
	"github.com/gonewx/skelpose/pkg/player"
	"github.com/gonewx/skelpose/pkg/region"
	"github.com/gonewx/skelpose/pkg/skeleton"
	"github.com/gonewx/skelpose/pkg/timeline"
)

// Engine 描述集合及其骨骼/Clip 缓存
// 方法并发安全，但创建出的 Player 不是
type Engine struct {
	set      *descriptor.Set
	resolver *skeleton.Resolver
	clips    *timeline.Cache
}

// LoadDescriptor 加载描述文件 YAML 并创建 Engine
func LoadDescriptor(data []byte) (*Engine, error) {
	set, err := descriptor.Load(data)
	if err != nil {
		return nil, err
	}
	return New(set), nil
}

// New 基于已加载的集合创建 Engine
func New(set *descriptor.Set) *Engine {
	return &Engine{
		set:      set,
		resolver: skeleton.NewResolver(set),
		clips:    timeline.NewCache(set),
	}
}

// Set 返回描述集合
func (e *Engine) Set() *descriptor.Set { return e.set }

// Clips 返回 Clip 缓存
func (e *Engine) Clips() *timeline.Cache { return e.clips }

// ResolveSkeleton 返回（缓存的）姿态骨骼
func (e *Engine) ResolveSkeleton(skeletonID string) (*skeleton.PoseSkeleton, error) {
	return e.resolver.Resolve(skeletonID)
}

// CreatePlayer 创建播放器，初始为 Playing、时钟 0
func (e *Engine) CreatePlayer(skeletonID, animationID string) (*player.Player, error) {
	skel, err := e.resolver.Resolve(skeletonID)
	if err != nil {
		return nil, err
	}
	return player.New(skel, e.clips, animationID)
}

// Region 返回悬停区域
func (e *Engine) Region() region.Region {
	return region.FromHoverArea(e.set.Interaction.HoverArea)
}
