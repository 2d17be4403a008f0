package engine

import (
	"testing"

	"tern/internal/object"
)

func count(t *testing.T, stats *object.Object, name string) float64 {
	t.Helper()
	v, ok := stats.Get(name)
	if !ok {
		t.Fatalf("statistics have no %q", name)
	}
	n, ok := v.(*object.Number)
	if !ok {
		t.Fatalf("%s is %T", name, v)
	}
	return n.Value
}

func TestGarbageCollectReleasesUnreachable(t *testing.T) {
	ctx, _ := newTestContext(t)
	src := "var keep = { live: true }\nfor (var i = 0; i < 50; i++) { var tmp = { i: i } }"
	if _, err := ctx.EvaluateScript(src, nil, "", 1); err != nil {
		t.Fatal(err)
	}
	before := count(t, ctx.MemoryUsageStatistics(), "objectCount")
	stats, ok := ctx.GarbageCollect()
	if !ok {
		t.Fatalf("collection did not run")
	}
	if float64(stats.Objects) >= before {
		t.Fatalf("expected fewer objects than %v, got %d", before, stats.Objects)
	}
	again, _ := ctx.GarbageCollect()
	if again.Objects != stats.Objects || again.Size != stats.Size {
		t.Fatalf("second collection changed the heap: %+v vs %+v", again, stats)
	}
	v, err := ctx.EvaluateScript("keep.live", nil, "", 1)
	if err != nil || v.Inspect() != "true" {
		t.Fatalf("reachable value lost: %v, %v", v, err)
	}
}

func TestProtectKeepsValues(t *testing.T) {
	ctx, _ := newTestContext(t)
	v, err := ctx.EvaluateScript("function mk() { return { tmp: true } }\nmk()", nil, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	ctx.Protect(v)
	ctx.Protect(v)
	kept, _ := ctx.GarbageCollect()
	if got := count(t, ctx.MemoryUsageStatistics(), "protectedCount"); got != 1 {
		t.Fatalf("expected one protected value, got %v", got)
	}
	ctx.Unprotect(v)
	still, _ := ctx.GarbageCollect()
	if still.Objects != kept.Objects {
		t.Fatalf("value released while still protected once")
	}
	ctx.Unprotect(v)
	freed, _ := ctx.GarbageCollect()
	if freed.Objects != kept.Objects-1 {
		t.Fatalf("expected %d objects after unprotect, got %d", kept.Objects-1, freed.Objects)
	}
}

func TestGarbageCollectPinsBusyContexts(t *testing.T) {
	g := NewContextGroup()
	busy := g.NewContext()
	idle := g.NewContext()
	defer busy.Release()
	defer idle.Release()

	entered := make(chan struct{})
	resume := make(chan struct{})
	block := &object.Builtin{Name: "block", Fn: func(object.Value, []object.Value) (object.Value, error) {
		close(entered)
		<-resume
		return object.UNDEFINED, nil
	}}
	if err := busy.AddToGlobalObject("block", block); err != nil {
		t.Fatal(err)
	}

	done := make(chan error)
	go func() {
		_, err := busy.EvaluateScript("for (var i = 0; i < 20; i++) { var junk = { i: i } }\nblock()", nil, "", 1)
		done <- err
	}()
	<-entered

	before := g.heap.Stats()
	stats, ok := g.GarbageCollect()
	if !ok {
		t.Fatalf("collection did not run")
	}
	if stats.Objects != before.Objects {
		t.Fatalf("busy context lost allocations: %d -> %d", before.Objects, stats.Objects)
	}
	close(resume)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	after, _ := g.GarbageCollect()
	if after.Objects >= before.Objects {
		t.Fatalf("garbage of an idle context should be released: %d -> %d", before.Objects, after.Objects)
	}
}

func TestGarbageCollectIgnoresReentrantCalls(t *testing.T) {
	g := NewContextGroup()
	g.collecting.Store(true)
	if _, ok := g.GarbageCollect(); ok {
		t.Fatalf("reentrant collection should be ignored")
	}
	g.collecting.Store(false)
	if _, ok := g.GarbageCollect(); !ok {
		t.Fatalf("collection should run")
	}
}

func TestMemoryUsageStatistics(t *testing.T) {
	g := NewContextGroup(WithMaxMemory(1 << 20))
	a := g.NewContext()
	b := g.NewContext()
	defer b.Release()
	if _, err := a.LoadModuleFromSource("export var x = 1", "m", 1); err != nil {
		t.Fatal(err)
	}
	stats := a.MemoryUsageStatistics()
	if got := count(t, stats, "contextCount"); got != 2 {
		t.Fatalf("expected 2 contexts, got %v", got)
	}
	if got := count(t, stats, "moduleCount"); got != 1 {
		t.Fatalf("expected 1 module, got %v", got)
	}
	if got := count(t, stats, "heapCapacity"); got != 1<<20 {
		t.Fatalf("expected capacity %d, got %v", 1<<20, got)
	}
	for _, k := range []string{"heapSize", "objectCount", "protectedCount"} {
		count(t, stats, k)
	}
	before := g.heap.Stats().Objects
	a.MemoryUsageStatistics()
	if g.heap.Stats().Objects != before {
		t.Fatalf("statistics objects must not be tracked")
	}
	a.Release()
	if got := count(t, b.MemoryUsageStatistics(), "contextCount"); got != 1 {
		t.Fatalf("released contexts should not be counted, got %v", got)
	}
}
