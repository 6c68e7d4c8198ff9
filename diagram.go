package lattice

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// DiagramState is a diagram's lifecycle state.
type DiagramState uint8

const (
	// StateLoading means a build is in flight; nothing to draw yet.
	StateLoading DiagramState = iota
	// StateReady means the diagram has content to draw.
	StateReady
	// StateEmpty means the center loaded but has nothing to show. Distinct
	// from StateFailed so the host can show a neutral message.
	StateEmpty
	// StateFailed means the center node could not be loaded.
	StateFailed
)

// String returns the state name.
func (s DiagramState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateEmpty:
		return "empty"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Transform is an immutable snapshot of a viewport's affine state.
type Transform struct {
	TranslateX, TranslateY, Scale float64
}

// Transform returns the viewport's current affine snapshot.
func (v *Viewport) Transform() Transform {
	return Transform{TranslateX: v.TranslateX, TranslateY: v.TranslateY, Scale: v.Scale}
}

// Frame is the immutable snapshot a diagram publishes for drawing: the
// positioned nodes and edges of the latest layout or simulation tick, the
// canvas extent, and the current viewport transform. A fresh Frame is
// emitted on every layout pass, engine tick, and transform change.
type Frame struct {
	Nodes      []PositionedNode
	Connectors []Connector
	Edges      []Edge
	Extent     Vec2
	Transform  Transform
	State      DiagramState
}

// TreeConfig configures a TreeDiagram. Zero values select defaults.
type TreeConfig struct {
	// Builder bounds the snapshot traversal (depth, fan-out).
	Builder BuilderConfig
	// Layout overrides the spacing constants; zero selects
	// DefaultLayoutConstants.
	Layout LayoutConstants
	// Container is the screen size of the drawing area.
	Container Vec2
	// Logger receives debug records. Nil means no logging.
	Logger *zap.Logger
}

// TreeDiagram drives the tidy-tree view: it builds depth-bounded snapshots
// from the store, lays them out with the collapse state applied, and
// publishes frames. All state (snapshot, collapse set, viewport) belongs to
// this one instance.
type TreeDiagram struct {
	builder *Builder
	consts  LayoutConstants
	vp      *Viewport
	log     *zap.Logger

	mu        sync.Mutex
	gen       uint64 // build generation; stale completions are discarded
	centerID  string
	root      *TreeNode
	collapsed *CollapsedSet
	layout    TreeLayout
	state     DiagramState
	err       error
	closed    bool
	onFrame   func(Frame)
}

// NewTreeDiagram creates a tree diagram over the store.
func NewTreeDiagram(store Store, cfg TreeConfig) *TreeDiagram {
	if cfg.Layout == (LayoutConstants{}) {
		cfg.Layout = DefaultLayoutConstants()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	d := &TreeDiagram{
		builder:   NewBuilder(store, cfg.Builder),
		consts:    cfg.Layout,
		log:       cfg.Logger,
		collapsed: NewCollapsedSet(),
	}
	d.vp = NewViewport(cfg.Container)
	d.vp.OnChange = d.publish
	return d
}

// Viewport returns the diagram's viewport controller. Raw pointer and wheel
// events go here.
func (d *TreeDiagram) Viewport() *Viewport { return d.vp }

// OnFrame registers the frame listener the presentation adapter draws from.
func (d *TreeDiagram) OnFrame(fn func(Frame)) {
	d.mu.Lock()
	d.onFrame = fn
	d.mu.Unlock()
}

// OnActivate registers the navigation callback for qualifying node clicks.
func (d *TreeDiagram) OnActivate(fn func(nodeID string)) {
	d.vp.OnActivate = fn
}

// CenterID returns the id the diagram is currently centered on.
func (d *TreeDiagram) CenterID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.centerID
}

// State returns the diagram's current lifecycle state.
func (d *TreeDiagram) State() DiagramState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Err returns the load failure when State is StateFailed, else nil.
func (d *TreeDiagram) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// SetCenter rebuilds the diagram around a new center node. The build runs
// asynchronously; if another SetCenter starts before this one commits, the
// stale result is discarded (the generation captured here no longer
// matches). The collapse set and viewport reset for the new center.
func (d *TreeDiagram) SetCenter(ctx context.Context, id string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.gen++
	gen := d.gen
	d.centerID = id
	d.state = StateLoading
	d.collapsed = NewCollapsedSet()
	d.mu.Unlock()

	d.vp.Reset()

	go func() {
		root, err := d.builder.Build(ctx, id)
		d.commit(gen, root, err)
	}()
}

// commit publishes a completed build unless a newer one superseded it.
// Only complete trees are ever committed; the layout never observes a
// partial snapshot.
func (d *TreeDiagram) commit(gen uint64, root *TreeNode, err error) {
	d.mu.Lock()
	if gen != d.gen || d.closed {
		d.mu.Unlock()
		d.log.Debug("discarding stale tree build", zap.Uint64("generation", gen))
		return
	}
	d.err = err
	switch {
	case err != nil:
		d.root = nil
		d.layout = TreeLayout{}
		d.state = StateFailed
	case !root.HasChildren():
		d.root = root
		d.state = StateEmpty
		d.layout = Layout(root, d.collapsed, d.consts)
	default:
		d.root = root
		d.state = StateReady
		d.layout = Layout(root, d.collapsed, d.consts)
	}
	d.mu.Unlock()
	d.publish()
}

// Toggle flips one node's collapsed state and re-lays the tree out.
func (d *TreeDiagram) Toggle(id string) {
	d.mu.Lock()
	d.collapsed.Toggle(id)
	d.relayoutLocked()
	d.mu.Unlock()
	d.publish()
}

// ExpandAll clears the collapse set and re-lays the tree out.
func (d *TreeDiagram) ExpandAll() {
	d.mu.Lock()
	d.collapsed.ExpandAll()
	d.relayoutLocked()
	d.mu.Unlock()
	d.publish()
}

// CollapseAll collapses every node with children and re-lays the tree out.
func (d *TreeDiagram) CollapseAll() {
	d.mu.Lock()
	d.collapsed.CollapseAll(d.root)
	d.relayoutLocked()
	d.mu.Unlock()
	d.publish()
}

// Resize updates the container size and republishes the current frame.
// The collapse set and layout are unaffected by resizes.
func (d *TreeDiagram) Resize(container Vec2) {
	d.vp.SetContainer(container)
	d.publish()
}

// Close detaches the diagram; later commits and events are dropped.
func (d *TreeDiagram) Close() {
	d.mu.Lock()
	d.closed = true
	d.onFrame = nil
	d.mu.Unlock()
}

// Frame assembles the current snapshot.
func (d *TreeDiagram) Frame() Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frameLocked()
}

func (d *TreeDiagram) frameLocked() Frame {
	edges := make([]Edge, 0, len(d.layout.Connectors))
	for _, c := range d.layout.Connectors {
		edges = append(edges, Edge{SourceID: c.SourceID, TargetID: c.TargetID})
	}
	return Frame{
		Nodes:      d.layout.Nodes,
		Connectors: d.layout.Connectors,
		Edges:      edges,
		Extent:     d.layout.Extent,
		Transform:  d.vp.Transform(),
		State:      d.state,
	}
}

// relayoutLocked recomputes the layout from the current snapshot and
// collapse state. Caller holds d.mu.
func (d *TreeDiagram) relayoutLocked() {
	d.layout = Layout(d.root, d.collapsed, d.consts)
}

func (d *TreeDiagram) publish() {
	d.mu.Lock()
	fn := d.onFrame
	frame := d.frameLocked()
	d.mu.Unlock()
	if fn != nil {
		fn(frame)
	}
}

// NodeAt returns the id of the node whose box contains the local-space
// point, or "". Presentation adapters use this for hit testing after
// converting screen coordinates with Viewport.ScreenToLocal.
func (f Frame) NodeAt(lx, ly float64) string {
	// Reverse order: later nodes draw on top.
	for i := len(f.Nodes) - 1; i >= 0; i-- {
		if f.Nodes[i].Box.Contains(lx, ly) {
			return f.Nodes[i].Node.ID
		}
	}
	return ""
}
