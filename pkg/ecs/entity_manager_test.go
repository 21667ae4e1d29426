package ecs

import (
	"reflect"
	"testing"
)

// 测试组件类型定义
type testTransformComponent struct {
	X, Y float64
}

type testAnimatorComponent struct {
	AnimationID string
}

type testHoverComponent struct {
	Hovered bool
}

func TestCreateEntity(t *testing.T) {
	em := NewEntityManager()
	id1 := em.CreateEntity()
	id2 := em.CreateEntity()

	if id1 == id2 {
		t.Error("Entity IDs should be unique")
	}

	// ID 从 1 开始，0 保留为无效 ID
	if id1 != 1 || id2 != 2 {
		t.Errorf("Expected IDs 1 and 2, got %d and %d", id1, id2)
	}

	if !em.Exists(id1) || em.Exists(0) {
		t.Error("Exists mismatch")
	}
	if em.EntityCount() != 2 {
		t.Errorf("Expected 2 entities, got %d", em.EntityCount())
	}
}

func TestAddAndGetComponent(t *testing.T) {
	em := NewEntityManager()
	id := em.CreateEntity()

	em.AddComponent(id, &testTransformComponent{X: 100, Y: 200})

	comp, found := em.GetComponent(id, reflect.TypeOf(&testTransformComponent{}))
	if !found {
		t.Fatal("Component should be found")
	}
	retrieved := comp.(*testTransformComponent)
	if retrieved.X != 100 || retrieved.Y != 200 {
		t.Errorf("Component data mismatch, expected (100, 200), got (%f, %f)", retrieved.X, retrieved.Y)
	}

	// 同类型组件被替换
	em.AddComponent(id, &testTransformComponent{X: 1})
	comp, _ = em.GetComponent(id, reflect.TypeOf(&testTransformComponent{}))
	if comp.(*testTransformComponent).X != 1 {
		t.Error("Expected the component to be replaced")
	}

	// 不存在的实体被忽略
	em.AddComponent(999, &testTransformComponent{})
	if em.Exists(999) {
		t.Error("AddComponent must not create entities")
	}
}

func TestRemoveComponent(t *testing.T) {
	em := NewEntityManager()
	id := em.CreateEntity()
	em.AddComponent(id, &testHoverComponent{})

	em.RemoveComponent(id, reflect.TypeOf(&testHoverComponent{}))
	if em.HasComponent(id, reflect.TypeOf(&testHoverComponent{})) {
		t.Error("Component should be removed")
	}
}

func TestDestroyEntity(t *testing.T) {
	em := NewEntityManager()
	id1 := em.CreateEntity()
	id2 := em.CreateEntity()
	id3 := em.CreateEntity()
	for _, id := range []EntityID{id1, id2, id3} {
		em.AddComponent(id, &testTransformComponent{})
	}

	em.DestroyEntity(id1)
	em.DestroyEntity(id3)
	em.DestroyEntity(id3)

	// 清理前实体仍存在
	if !em.Exists(id1) {
		t.Error("Entity should still exist before cleanup")
	}

	if removed := em.RemoveMarkedEntities(); removed != 2 {
		t.Errorf("Expected 2 removed entities, got %d", removed)
	}
	if em.Exists(id1) || em.Exists(id3) || !em.Exists(id2) {
		t.Error("Only id2 should remain")
	}
	if removed := em.RemoveMarkedEntities(); removed != 0 {
		t.Errorf("Expected nothing left to remove, got %d", removed)
	}
}

func TestGetEntitiesWith(t *testing.T) {
	em := NewEntityManager()

	// 创建不同组件组合的实体
	ids := make([]EntityID, 0)
	for i := 0; i < 20; i++ {
		id := em.CreateEntity()
		em.AddComponent(id, &testTransformComponent{})
		if i%2 == 0 {
			em.AddComponent(id, &testAnimatorComponent{})
			ids = append(ids, id)
		}
	}
	only := em.CreateEntity()
	em.AddComponent(only, &testAnimatorComponent{})

	entities := em.GetEntitiesWith(
		reflect.TypeOf(&testTransformComponent{}),
		reflect.TypeOf(&testAnimatorComponent{}),
	)
	if len(entities) != len(ids) {
		t.Fatalf("Expected %d entities, got %d", len(ids), len(entities))
	}
	// 结果按 ID 升序
	for i := range ids {
		if entities[i] != ids[i] {
			t.Fatalf("Expected sorted IDs %v, got %v", ids, entities)
		}
	}

	if got := em.GetEntitiesWith(reflect.TypeOf(&testAnimatorComponent{})); len(got) != len(ids)+1 {
		t.Errorf("Expected %d animator entities, got %d", len(ids)+1, len(got))
	}
}

func TestGenericHelpers(t *testing.T) {
	em := NewEntityManager()
	id := em.CreateEntity()
	em.AddComponent(id, &testAnimatorComponent{AnimationID: "walk"})
	em.AddComponent(id, &testTransformComponent{X: 3})

	anim, ok := GetComponent[*testAnimatorComponent](em, id)
	if !ok || anim.AnimationID != "walk" {
		t.Errorf("GetComponent = %v, %v", anim, ok)
	}
	if _, ok := GetComponent[*testHoverComponent](em, id); ok {
		t.Error("Unexpected hover component")
	}
	if !HasComponent[*testTransformComponent](em, id) {
		t.Error("Expected transform component")
	}

	other := em.CreateEntity()
	em.AddComponent(other, &testAnimatorComponent{})
	em.AddComponent(other, &testHoverComponent{})

	if got := GetEntitiesWith1[*testAnimatorComponent](em); len(got) != 2 {
		t.Errorf("GetEntitiesWith1 = %v", got)
	}
	if got := GetEntitiesWith2[*testAnimatorComponent, *testTransformComponent](em); len(got) != 1 || got[0] != id {
		t.Errorf("GetEntitiesWith2 = %v", got)
	}
	if got := GetEntitiesWith3[*testAnimatorComponent, *testTransformComponent, *testHoverComponent](em); len(got) != 0 {
		t.Errorf("GetEntitiesWith3 = %v", got)
	}

	RemoveComponent[*testHoverComponent](em, other)
	if HasComponent[*testHoverComponent](em, other) {
		t.Error("Expected hover component to be removed")
	}
}
