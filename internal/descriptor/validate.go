package descriptor

import (
	"fmt"
	"math"
	"sort"

	"github.com/gonewx/skelpose/pkg/utils"
)

// Validate 检查引用完整性与数值范围
// 按声明顺序遍历，返回第一个 *ValidationError，相同输入总是报告相同的错误
func Validate(set *Set) error {
	if err := validateHoverArea(set.Interaction.HoverArea); err != nil {
		return err
	}

	sources := make(map[string]bool, len(set.Sources))
	for i := range set.Sources {
		if err := validateSource(&set.Sources[i], i, sources); err != nil {
			return err
		}
		sources[set.Sources[i].ID] = true
	}

	skeletons := make(map[string]map[string]bool, len(set.Skeletons))
	for i := range set.Skeletons {
		bones, err := validateSkeleton(&set.Skeletons[i], i, sources)
		if err != nil {
			return err
		}
		if _, exists := skeletons[set.Skeletons[i].ID]; exists {
			return invalid(fmt.Sprintf("skeletons[%d].id", i), "duplicate skeleton id %q", set.Skeletons[i].ID)
		}
		skeletons[set.Skeletons[i].ID] = bones
	}

	for i := range set.Animations {
		if err := validateAnimation(&set.Animations[i], i, skeletons); err != nil {
			return err
		}
	}

	return nil
}

func validateHoverArea(area HoverArea) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"left", area.Left},
		{"right", area.Right},
		{"top", area.Top},
		{"bottom", area.Bottom},
	}
	for _, f := range fields {
		if !isFinite(f.value) {
			return invalid("interaction.hover_area."+f.name, "value must be finite")
		}
	}
	return nil
}

func validateSource(src *Source, i int, seen map[string]bool) error {
	path := fmt.Sprintf("sources[%d]", i)
	if src.ID == "" {
		return invalid(path+".id", "missing source id")
	}
	if seen[src.ID] {
		return invalid(path+".id", "duplicate source id %q", src.ID)
	}
	if !isFinite(src.SizeX) || src.SizeX < 0 {
		return invalid(path+".size_x", "size must be a non-negative number, got %v", src.SizeX)
	}
	if !isFinite(src.SizeY) || src.SizeY < 0 {
		return invalid(path+".size_y", "size must be a non-negative number, got %v", src.SizeY)
	}
	if !isFinite(src.PivotX) || !isFinite(src.PivotY) {
		return invalid(path, "pivot must be finite")
	}
	return nil
}

// validateSkeleton 返回骨骼 id 集合
func validateSkeleton(skel *Skeleton, i int, sources map[string]bool) (map[string]bool, error) {
	path := fmt.Sprintf("skeletons[%d]", i)
	if skel.ID == "" {
		return nil, invalid(path+".id", "missing skeleton id")
	}
	if skel.Scale != nil && (!isFinite(*skel.Scale) || *skel.Scale <= 0) {
		return nil, invalid(path+".scale", "scale must be a positive number, got %v", *skel.Scale)
	}

	bones := make(map[string]bool, len(skel.Bones))
	for j, bone := range skel.Bones {
		bonePath := fmt.Sprintf("%s.bones[%d]", path, j)
		if bone.ID == "" {
			return nil, invalid(bonePath+".id", "missing bone id")
		}
		if bones[bone.ID] {
			return nil, invalid(bonePath+".id", "duplicate bone id %q in skeleton %q", bone.ID, skel.ID)
		}
		if !sources[bone.Pose.SourceID] {
			return nil, invalid(bonePath+".pose.source_id", "unknown source %q", bone.Pose.SourceID)
		}
		bones[bone.ID] = true
	}

	parents := make(map[string]string, len(skel.Bones))
	for j, bone := range skel.Bones {
		if bone.ParentID == "" {
			continue
		}
		if !bones[bone.ParentID] {
			return nil, invalid(fmt.Sprintf("%s.bones[%d].parent_id", path, j),
				"unknown parent bone %q", bone.ParentID)
		}
		parents[bone.ID] = bone.ParentID
	}
	if err := validateParentBones(skel.Bones, parents); err != nil {
		return nil, invalid(path+".bones", "%v", err)
	}

	return bones, nil
}

// validateParentBones 检测父骨骼链中的循环（DFS）
// 按声明顺序访问，报告的骨骼是确定的
func validateParentBones(bones []Bone, parents map[string]string) error {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	var hasCycle func(string) bool
	hasCycle = func(bone string) bool {
		visited[bone] = true
		recStack[bone] = true

		if parent, exists := parents[bone]; exists {
			if !visited[parent] {
				if hasCycle(parent) {
					return true
				}
			} else if recStack[parent] {
				return true
			}
		}

		recStack[bone] = false
		return false
	}

	for _, bone := range bones {
		if !visited[bone.ID] && hasCycle(bone.ID) {
			return fmt.Errorf("bone hierarchy contains a cycle through %q", bone.ID)
		}
	}
	return nil
}

func validateAnimation(anim *Animation, i int, skeletons map[string]map[string]bool) error {
	path := fmt.Sprintf("animations[%d]", i)
	if anim.ID == "" {
		return invalid(path+".id", "missing animation id")
	}
	bones, ok := skeletons[anim.SkeletonID]
	if !ok {
		return invalid(path+".skeleton_id", "unknown skeleton %q", anim.SkeletonID)
	}
	if !isFinite(anim.Length) || anim.Length < 0 {
		return invalid(path+".length", "length must be a non-negative number, got %v", anim.Length)
	}
	if len(anim.Muscles) > 0 && len(anim.Keys) == 0 {
		return invalid(path+".keys", "animation %q has muscles but no keys", anim.ID)
	}
	for _, name := range sortedKeys(anim.Keys) {
		t := anim.Keys[name]
		if !isFinite(t) || t < 0 || t > anim.Length {
			return invalid(fmt.Sprintf("%s.keys.%s", path, name),
				"key time %v outside [0, %v]", t, anim.Length)
		}
	}

	animated := make(map[string]bool, len(anim.Muscles))
	for j, muscle := range anim.Muscles {
		musclePath := fmt.Sprintf("%s.muscles[%d]", path, j)
		if !bones[muscle.BoneID] {
			return invalid(musclePath+".bone_id", "unknown bone %q in skeleton %q", muscle.BoneID, anim.SkeletonID)
		}
		if animated[muscle.BoneID] {
			return invalid(musclePath+".bone_id", "bone %q is already animated by another muscle", muscle.BoneID)
		}
		animated[muscle.BoneID] = true

		for k, entry := range muscle.Timeline {
			if err := validateEntry(&entry, fmt.Sprintf("%s.timeline[%d]", musclePath, k), anim.Keys); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateEntry(entry *TimelineEntry, path string, keys map[string]float64) error {
	if _, ok := keys[entry.Key]; !ok {
		return invalid(path+".key", "unknown key %q", entry.Key)
	}
	components := []struct {
		name  string
		value *float64
	}{
		{"position_x", entry.PositionX},
		{"position_y", entry.PositionY},
		{"angle", entry.Angle},
		{"scale_x", entry.ScaleX},
		{"scale_y", entry.ScaleY},
	}
	for _, c := range components {
		if c.value != nil && !isFinite(*c.value) {
			return invalid(path+"."+c.name, "value must be finite")
		}
	}
	if _, ok := utils.EasingByName(entry.Easing); !ok {
		return invalid(path+".easing", "unknown easing %q", entry.Easing)
	}
	return nil
}

func sortedKeys(keys map[string]float64) []string {
	names := make([]string, 0, len(keys))
	for name := range keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
