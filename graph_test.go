package lattice

import (
	"context"
	"errors"
	"testing"
)

// fakeEngine records calls and lets tests drive ticks by hand.
type fakeEngine struct {
	input    GraphInput
	cfg      ForceConfig
	onTick   func([]NodePosition)
	starts   int
	stops    int
	reheats  int
	pinned   map[string]Vec2
	released []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{pinned: make(map[string]Vec2)}
}

func (e *fakeEngine) Start(input GraphInput, cfg ForceConfig, onTick func([]NodePosition)) {
	e.input, e.cfg, e.onTick = input, cfg, onTick
	e.starts++
}
func (e *fakeEngine) Pin(id string, pos Vec2) { e.pinned[id] = pos }
func (e *fakeEngine) Release(id string)       { e.released = append(e.released, id) }
func (e *fakeEngine) Reheat()                 { e.reheats++ }
func (e *fakeEngine) Stop()                   { e.stops++; e.onTick = nil }

func graphStore() MapStore {
	return MapStore{
		"center": {ID: "center", Alias: "Center",
			ForwardRefs: []string{"x", "y"}, BackRefs: []string{"y", "z"}},
		"x": {ID: "x", Alias: "X"},
		"y": {ID: "y", Alias: "Y"},
		"z": {ID: "z", Alias: "Z"},
	}
}

func TestBuildGraphInputDedup(t *testing.T) {
	center := ContentNode{ID: "c", Alias: "C",
		ForwardRefs: []string{"a", "b"}, BackRefs: []string{"b", "d"}}
	in := BuildGraphInput(center, nil)

	// c, a, b, d: b appears once even though it is both directions.
	if len(in.Nodes) != 4 {
		t.Fatalf("len(Nodes) = %d, want 4", len(in.Nodes))
	}
	if !in.Nodes[0].IsCenter || in.Nodes[0].ID != "c" {
		t.Errorf("Nodes[0] = %+v, want the center", in.Nodes[0])
	}
	for _, n := range in.Nodes[1:] {
		if n.IsCenter {
			t.Errorf("neighbor %q marked as center", n.ID)
		}
	}

	// Both directional b edges survive.
	if len(in.Edges) != 4 {
		t.Fatalf("len(Edges) = %d, want 4", len(in.Edges))
	}
	var toB, fromB bool
	for _, e := range in.Edges {
		if e.SourceID == "c" && e.TargetID == "b" {
			toB = true
		}
		if e.SourceID == "b" && e.TargetID == "c" {
			fromB = true
		}
	}
	if !toB || !fromB {
		t.Errorf("edges = %v, want both c->b and b->c", in.Edges)
	}
}

func TestBuildGraphInputTitleFallback(t *testing.T) {
	center := ContentNode{ID: "c", Alias: "C", ForwardRefs: []string{"ghost"}}
	in := BuildGraphInput(center, func(string) string { return "" })
	if in.Nodes[1].Title != "Node ghost" {
		t.Errorf("fallback title = %q, want %q", in.Nodes[1].Title, "Node ghost")
	}
}

func TestGraphDiagramSetCenter(t *testing.T) {
	engine := newFakeEngine()
	d := NewGraphDiagram(graphStore(), engine, GraphConfig{Container: Vec2{X: 800, Y: 600}})

	d.SetCenter(context.Background(), "center")
	if d.State() != StateReady {
		t.Fatalf("State = %v, want ready", d.State())
	}
	if engine.starts != 1 {
		t.Fatalf("engine starts = %d, want 1", engine.starts)
	}
	// center, x, y, z with y deduplicated.
	if len(engine.input.Nodes) != 4 {
		t.Errorf("engine got %d nodes, want 4", len(engine.input.Nodes))
	}
	if len(engine.input.Edges) != 4 {
		t.Errorf("engine got %d edges, want 4", len(engine.input.Edges))
	}
	if engine.input.Nodes[1].Title != "X" {
		t.Errorf("neighbor title = %q, want resolved %q", engine.input.Nodes[1].Title, "X")
	}
	assertNear(t, "LinkDistance", engine.cfg.LinkDistance, 80)
	assertNear(t, "Repulsion", engine.cfg.Repulsion, -200)
	assertVec(t, "Center", engine.cfg.Center, Vec2{X: 400, Y: 300})
	assertNear(t, "CollisionRadius", engine.cfg.CollisionRadius, 35)
}

func TestGraphDiagramTickPublishesFrames(t *testing.T) {
	engine := newFakeEngine()
	d := NewGraphDiagram(graphStore(), engine, GraphConfig{Container: Vec2{X: 800, Y: 600}})
	var frames []Frame
	d.OnFrame(func(f Frame) { frames = append(frames, f) })

	d.SetCenter(context.Background(), "center")
	engine.onTick([]NodePosition{{ID: "center", Pos: Vec2{X: 400, Y: 300}}})

	last := frames[len(frames)-1]
	if len(last.Nodes) != 1 {
		t.Fatalf("frame nodes = %d, want 1", len(last.Nodes))
	}
	// The box is centered on the engine position (default 120x28).
	assertVec(t, "box center", last.Nodes[0].Box.Center(), Vec2{X: 400, Y: 300})
	assertNear(t, "box width", last.Nodes[0].Box.Width, 120)
	if last.Nodes[0].Node.Title != "Center" {
		t.Errorf("frame title = %q, want Center", last.Nodes[0].Node.Title)
	}
}

func TestGraphDiagramRecenterStopsOldRun(t *testing.T) {
	engine := newFakeEngine()
	d := NewGraphDiagram(graphStore(), engine, GraphConfig{Container: Vec2{X: 800, Y: 600}})

	d.SetCenter(context.Background(), "center")
	staleTick := engine.onTick
	d.SetCenter(context.Background(), "y")
	if engine.stops != 1 {
		t.Errorf("engine stops = %d, want 1 before restart", engine.stops)
	}
	if engine.starts != 2 {
		t.Errorf("engine starts = %d, want 2", engine.starts)
	}

	// A tick from the superseded run must not surface.
	staleTick([]NodePosition{{ID: "center", Pos: Vec2{X: 1, Y: 1}}})
	if len(d.Frame().Nodes) != 0 {
		t.Error("stale tick leaked into the current frame")
	}
}

func TestGraphDiagramRecenterResetsViewport(t *testing.T) {
	engine := newFakeEngine()
	d := NewGraphDiagram(graphStore(), engine, GraphConfig{Container: Vec2{X: 800, Y: 600}})
	d.SetCenter(context.Background(), "center")
	d.Viewport().Wheel(WheelEvent{ScreenX: 100, ScreenY: 100, DeltaY: -1})

	d.SetCenter(context.Background(), "y")
	tr := d.Frame().Transform
	assertNear(t, "Scale", tr.Scale, 1)
	assertNear(t, "TranslateX", tr.TranslateX, 0)
}

func TestGraphDiagramEmptyCenter(t *testing.T) {
	engine := newFakeEngine()
	store := MapStore{"lone": {ID: "lone", Alias: "Lone"}}
	d := NewGraphDiagram(store, engine, GraphConfig{Container: Vec2{X: 800, Y: 600}})
	d.SetCenter(context.Background(), "lone")
	if d.State() != StateEmpty {
		t.Errorf("State = %v, want empty", d.State())
	}
	if engine.starts != 0 {
		t.Error("engine must not start for an empty center")
	}
}

func TestGraphDiagramFailedCenter(t *testing.T) {
	engine := newFakeEngine()
	d := NewGraphDiagram(MapStore{}, engine, GraphConfig{Container: Vec2{X: 800, Y: 600}})
	d.SetCenter(context.Background(), "missing")
	if d.State() != StateFailed {
		t.Fatalf("State = %v, want failed", d.State())
	}
	var le *LoadError
	if !errors.As(d.Err(), &le) || le.ID != "missing" {
		t.Errorf("Err = %v, want *LoadError for missing", d.Err())
	}
}

func TestGraphDiagramNeighborLookupFailureFallsBack(t *testing.T) {
	engine := newFakeEngine()
	store := MapStore{"c": {ID: "c", Alias: "C", ForwardRefs: []string{"ghost"}}}
	d := NewGraphDiagram(store, engine, GraphConfig{Container: Vec2{X: 800, Y: 600}})
	d.SetCenter(context.Background(), "c")
	if d.State() != StateReady {
		t.Fatalf("State = %v, want ready", d.State())
	}
	if engine.input.Nodes[1].Title != "Node ghost" {
		t.Errorf("title = %q, want fallback", engine.input.Nodes[1].Title)
	}
}

func TestGraphDiagramDragPinsAndReleases(t *testing.T) {
	engine := newFakeEngine()
	d := NewGraphDiagram(graphStore(), engine, GraphConfig{Container: Vec2{X: 800, Y: 600}})
	d.SetCenter(context.Background(), "center")

	vp := d.Viewport()
	vp.PointerDown(PointerEvent{ScreenX: 100, ScreenY: 100, TargetNodeID: "x"})
	vp.PointerMove(PointerEvent{ScreenX: 140, ScreenY: 120, TargetNodeID: "x"})
	vp.PointerUp(PointerEvent{ScreenX: 140, ScreenY: 120, TargetNodeID: "x"})

	assertVec(t, "pinned x", engine.pinned["x"], Vec2{X: 140, Y: 120})
	if len(engine.released) != 1 || engine.released[0] != "x" {
		t.Errorf("released = %v, want [x]", engine.released)
	}
	if engine.reheats != 1 {
		t.Errorf("reheats = %d, want 1", engine.reheats)
	}
}

func TestGraphDiagramTransformChangePublishes(t *testing.T) {
	engine := newFakeEngine()
	d := NewGraphDiagram(graphStore(), engine, GraphConfig{Container: Vec2{X: 800, Y: 600}})
	d.SetCenter(context.Background(), "center")

	var frames []Frame
	d.OnFrame(func(f Frame) { frames = append(frames, f) })

	// A quiet simulation still republishes on zoom, pan, and reset.
	d.Viewport().Wheel(WheelEvent{ScreenX: 400, ScreenY: 300, DeltaY: -1})
	if len(frames) != 1 {
		t.Fatalf("frames after zoom = %d, want 1", len(frames))
	}
	assertNear(t, "zoomed scale", frames[0].Transform.Scale, 1.1)

	vp := d.Viewport()
	vp.PointerDown(PointerEvent{ScreenX: 10, ScreenY: 10})
	vp.PointerMove(PointerEvent{ScreenX: 30, ScreenY: 10})
	vp.PointerUp(PointerEvent{ScreenX: 30, ScreenY: 10})
	if len(frames) != 2 {
		t.Fatalf("frames after pan = %d, want 2", len(frames))
	}
	// Zooming at (400,300) moved the translate to -40; the 20px pan lands at -20.
	assertNear(t, "panned translate", frames[1].Transform.TranslateX, -20)

	vp.Reset()
	if len(frames) != 3 {
		t.Fatalf("frames after reset = %d, want 3", len(frames))
	}
	assertNear(t, "reset scale", frames[2].Transform.Scale, 1)
}

func TestGraphDiagramConcurrentRecenterKeepsNewest(t *testing.T) {
	gate := make(chan struct{})
	store := gateStore{
		nodes: MapStore{
			"slow": {ID: "slow", Alias: "Slow", ForwardRefs: []string{"s1"}},
			"s1":   {ID: "s1", Alias: "S1"},
			"fast": {ID: "fast", Alias: "Fast", ForwardRefs: []string{"f1"}},
			"f1":   {ID: "f1", Alias: "F1"},
		},
		gates: map[string]chan struct{}{"slow": gate},
	}
	engine := newFakeEngine()
	d := NewGraphDiagram(store, engine, GraphConfig{Container: Vec2{X: 800, Y: 600}})

	done := make(chan struct{})
	go func() {
		d.SetCenter(context.Background(), "slow")
		close(done)
	}()
	// The first call has claimed its generation once CenterID reads slow;
	// its store fetch is parked on the gate.
	waitFor(t, func() bool { return d.CenterID() == "slow" })

	d.SetCenter(context.Background(), "fast")
	close(gate)
	<-done

	// The superseded call must never start the engine on its stale input.
	if engine.starts != 1 {
		t.Errorf("engine starts = %d, want 1", engine.starts)
	}
	if engine.input.Nodes[0].ID != "fast" {
		t.Errorf("engine input root = %q, want fast", engine.input.Nodes[0].ID)
	}
	if d.State() != StateReady {
		t.Errorf("State = %v, want ready", d.State())
	}
}

func TestGraphDiagramClose(t *testing.T) {
	engine := newFakeEngine()
	d := NewGraphDiagram(graphStore(), engine, GraphConfig{Container: Vec2{X: 800, Y: 600}})
	d.SetCenter(context.Background(), "center")
	tick := engine.onTick
	d.Close()
	if engine.stops != 1 {
		t.Errorf("engine stops = %d, want 1", engine.stops)
	}
	tick([]NodePosition{{ID: "center", Pos: Vec2{X: 5, Y: 5}}})
	if len(d.Frame().Nodes) != 0 {
		t.Error("tick after Close leaked into the frame")
	}
	// SetCenter after Close is a no-op.
	d.SetCenter(context.Background(), "y")
	if engine.starts != 1 {
		t.Errorf("engine starts = %d after Close, want 1", engine.starts)
	}
}
