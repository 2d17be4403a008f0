package heap

import (
	"errors"
	"testing"

	"tern/internal/limits"
	"tern/internal/object"
)

func TestCollectKeepsReachable(t *testing.T) {
	h := New(0)
	root := object.NewObject()
	child := &object.Array{}
	root.Set("child", child)
	garbage := object.NewObject()

	for _, v := range []object.Value{root, child, garbage} {
		if err := h.Allocate(1, v); err != nil {
			t.Fatalf("allocate: %v", err)
		}
	}

	stats, ran := h.Collect(func(m *Marker) { m.Value(root) }, nil)
	if !ran {
		t.Fatal("collection did not run")
	}
	if stats.Objects != 2 {
		t.Fatalf("expected 2 live objects, got %d", stats.Objects)
	}
	if stats.Size != object.CostOf(root)+object.CostOf(child) {
		t.Fatalf("unexpected heap size %d", stats.Size)
	}
}

func TestCollectThroughScopes(t *testing.T) {
	h := New(0)
	env := object.NewEnvironment()
	held := object.NewObject()
	env.Set("held", held)
	fn := &object.Function{Env: env}
	_ = h.Allocate(1, fn)
	_ = h.Allocate(1, held)

	stats, _ := h.Collect(func(m *Marker) { m.Value(fn) }, nil)
	if stats.Objects != 2 {
		t.Fatalf("closure scope values must survive, got %d objects", stats.Objects)
	}
}

func TestCollectIdempotent(t *testing.T) {
	h := New(0)
	keep := object.NewObject()
	_ = h.Allocate(1, keep)
	_ = h.Allocate(1, object.NewObject())
	h.Protect(keep)

	first, _ := h.Collect(nil, nil)
	second, _ := h.Collect(nil, nil)
	first.Cycles, second.Cycles = 0, 0
	if first != second {
		t.Fatalf("stats changed between collections: %+v vs %+v", first, second)
	}
	if first.Objects != 1 || first.Protected != 1 {
		t.Fatalf("unexpected stats %+v", first)
	}

	h.Unprotect(keep)
	stats, _ := h.Collect(nil, nil)
	if stats.Objects != 0 || stats.Size != 0 {
		t.Fatalf("unprotected value should be released, got %+v", stats)
	}
}

func TestCollectPinnedOwner(t *testing.T) {
	h := New(0)
	_ = h.Allocate(7, object.NewObject())
	_ = h.Allocate(8, object.NewObject())

	stats, _ := h.Collect(nil, map[Owner]bool{7: true})
	if stats.Objects != 1 {
		t.Fatalf("pinned owner should keep its allocation, got %d", stats.Objects)
	}
}

func TestCollectReentrantIgnored(t *testing.T) {
	h := New(0)
	inner := true
	_, outer := h.Collect(func(m *Marker) {
		_, inner = h.Collect(nil, nil)
	}, nil)
	if !outer {
		t.Fatal("outer collection did not run")
	}
	if inner {
		t.Fatal("reentrant collection should be ignored")
	}
}

func TestAllocateOverBudget(t *testing.T) {
	h := New(object.CostObject(0))
	if err := h.Allocate(1, object.NewObject()); err != nil {
		t.Fatalf("first allocation should fit: %v", err)
	}
	err := h.Allocate(1, object.NewObject())
	var memErr limits.MaxMemoryError
	if !errors.As(err, &memErr) {
		t.Fatalf("expected MaxMemoryError, got %v", err)
	}
	if s := h.Stats(); s.Capacity != object.CostObject(0) {
		t.Fatalf("capacity should be the limit, got %d", s.Capacity)
	}
}
