// skelcheck 校验描述文件并按时间采样骨骼姿态
//
// 用法:
//
//	go run ./cmd/skelcheck -file data/sprites/warrior.yaml
//	go run ./cmd/skelcheck -file data/sprites/warrior.yaml -skeleton warrior -animation walk -t 0,0.05,0.1
//	go run ./cmd/skelcheck -file data/sprites/pirate.yaml -skeleton pirate -animation slash -t 0.2 -yaml
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/gonewx/skelpose/internal/descriptor"
	"github.com/gonewx/skelpose/pkg/engine"
	"github.com/gonewx/skelpose/pkg/geom"
	"github.com/gonewx/skelpose/pkg/timeline"
	"gopkg.in/yaml.v3"
)

func main() {
	filePath := flag.String("file", "", "descriptor file to check (required)")
	skeletonID := flag.String("skeleton", "", "skeleton to sample")
	animationID := flag.String("animation", "", "animation to sample (default: every animation of the skeleton)")
	times := flag.String("t", "0", "comma separated sample times in seconds")
	asYAML := flag.Bool("yaml", false, "print sampled poses as YAML")
	flag.Parse()

	if *filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatalf("Failed to read descriptor: %v", err)
	}

	eng, err := engine.LoadDescriptor(data)
	if err != nil {
		reportLoadError(*filePath, err)
		os.Exit(1)
	}
	set := eng.Set()
	fmt.Printf("OK: %s - %d source(s), %d skeleton(s), %d animation(s)\n",
		*filePath, len(set.Sources), len(set.Skeletons), len(set.Animations))

	if *skeletonID == "" {
		printSummary(eng)
		return
	}

	samples, err := parseTimes(*times)
	if err != nil {
		log.Fatalf("Invalid -t: %v", err)
	}

	animations := set.AnimationIDs(*skeletonID)
	if *animationID != "" {
		animations = []string{*animationID}
	}

	report := make([]animationSamples, 0, len(animations))
	for _, id := range animations {
		s, err := sample(eng, *skeletonID, id, samples)
		if err != nil {
			log.Fatalf("Failed to sample %s/%s: %v", *skeletonID, id, err)
		}
		report = append(report, s)
	}

	if *asYAML {
		out, err := yaml.Marshal(report)
		if err != nil {
			log.Fatalf("Failed to marshal poses: %v", err)
		}
		os.Stdout.Write(out)
		return
	}
	for _, s := range report {
		printSamples(s)
	}
}

// reportLoadError 按错误类型输出可读的信息
func reportLoadError(path string, err error) {
	var parseErr *descriptor.ParseError
	var validationErr *descriptor.ValidationError
	switch {
	case errors.As(err, &validationErr):
		fmt.Printf("FAIL: %s - invalid at %s: %s\n", path, validationErr.Path, validationErr.Msg)
	case errors.As(err, &parseErr):
		fmt.Printf("FAIL: %s - parse error: %v\n", path, parseErr.Err)
	default:
		fmt.Printf("FAIL: %s - %v\n", path, err)
	}
}

func printSummary(eng *engine.Engine) {
	set := eng.Set()
	for _, skelID := range set.SkeletonIDs() {
		skel, err := eng.ResolveSkeleton(skelID)
		if err != nil {
			fmt.Printf("  skeleton %s: %v\n", skelID, err)
			continue
		}
		fmt.Printf("  skeleton %s (scale %g, %d bones)\n", skelID, skel.Scale, len(skel.Bones))
		rest := skel.RestPose()
		for _, bone := range skel.Bones {
			parent := "-"
			if bone.Parent >= 0 {
				parent = skel.Bones[bone.Parent].ID
			}
			at := rest[bone.ID]
			fmt.Printf("    bone %-12s parent %-12s source %-14s rest (%.4f, %.4f)\n",
				bone.ID, parent, bone.Source.ID, at.X, at.Y)
		}
		for _, animID := range set.AnimationIDs(skelID) {
			anim, _ := set.Animation(skelID, animID)
			fmt.Printf("    animation %-12s length %-6g looped %-5v muscles %d\n",
				animID, anim.Length, anim.IsLooped, len(anim.Muscles))
			p, err := eng.CreatePlayer(skelID, animID)
			if err != nil {
				fmt.Printf("      %v\n", err)
				continue
			}
			// 按骨骼顺序输出，父骨骼在前
			for _, bone := range skel.Bones {
				if track, ok := p.Clip().Track(bone.ID); ok {
					fmt.Printf("      %s\n", describeTrack(track))
				}
			}
		}
	}
}

// describeTrack 轨道的时间范围以及每个受驱动分量的首尾值
func describeTrack(track *timeline.Track) string {
	start, end, ok := track.Span()
	if !ok {
		return fmt.Sprintf("track %s: empty", track.BoneID)
	}
	var parts []string
	for c := timeline.PositionX; c <= timeline.ScaleY; c++ {
		if !track.Animated(c) {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %g -> %g", c, track.Component(c, start), track.Component(c, end)))
	}
	return fmt.Sprintf("track %s [%g, %g]: %s", track.BoneID, start, end, strings.Join(parts, ", "))
}

func parseTimes(s string) ([]float64, error) {
	var out []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		t, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no sample times")
	}
	return out, nil
}

type boneSample struct {
	Bone   string  `yaml:"bone"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Angle  float64 `yaml:"angle"`
	ScaleX float64 `yaml:"scale_x"`
	ScaleY float64 `yaml:"scale_y"`
}

type timeSample struct {
	Time  float64      `yaml:"t"`
	Clock float64      `yaml:"clock"`
	Bones []boneSample `yaml:"bones"`
}

type animationSamples struct {
	Skeleton  string       `yaml:"skeleton"`
	Animation string       `yaml:"animation"`
	Length    float64      `yaml:"length"`
	Looped    bool         `yaml:"looped"`
	Samples   []timeSample `yaml:"samples"`
}

// sample 在每个时间点求姿态（Seek 对循环动画取模，对非循环动画 clamp）
func sample(eng *engine.Engine, skeletonID, animationID string, times []float64) (animationSamples, error) {
	p, err := eng.CreatePlayer(skeletonID, animationID)
	if err != nil {
		return animationSamples{}, err
	}

	out := animationSamples{
		Skeleton:  skeletonID,
		Animation: animationID,
		Length:    p.Length(),
		Looped:    p.Looped(),
	}
	for _, t := range times {
		p.Seek(t)
		pose := p.Pose()
		ts := timeSample{Time: t, Clock: p.Clock()}
		for _, bone := range p.Skeleton().Bones {
			ts.Bones = append(ts.Bones, toBoneSample(bone.ID, pose[bone.ID]))
		}
		out.Samples = append(out.Samples, ts)
	}
	return out, nil
}

func toBoneSample(id string, t geom.Transform) boneSample {
	return boneSample{Bone: id, X: t.X, Y: t.Y, Angle: t.Angle, ScaleX: t.ScaleX, ScaleY: t.ScaleY}
}

func printSamples(s animationSamples) {
	fmt.Printf("%s/%s (length %g, looped %v)\n", s.Skeleton, s.Animation, s.Length, s.Looped)
	for _, ts := range s.Samples {
		fmt.Printf("  t=%g (clock %g)\n", ts.Time, ts.Clock)
		for _, b := range ts.Bones {
			fmt.Printf("    %-12s x=%9.4f y=%9.4f angle=%8.4f scale=(%.3f, %.3f)\n",
				b.Bone, b.X, b.Y, b.Angle, b.ScaleX, b.ScaleY)
		}
	}
}
