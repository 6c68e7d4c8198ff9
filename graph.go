package lattice

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Edge is a directed (source, target) pair. Tree edges are implicit in the
// parent/child structure; relationship edges are explicit.
type Edge struct {
	SourceID, TargetID string
}

// GraphNode is one node of the relationship diagram's input set.
type GraphNode struct {
	ID       string
	Title    string
	IsCenter bool
}

// GraphInput is the node/edge set handed to the external force engine.
type GraphInput struct {
	Nodes []GraphNode
	Edges []Edge
}

// NodePosition is one entry of a force-engine tick snapshot.
type NodePosition struct {
	ID  string
	Pos Vec2
}

// ForceConfig is the tuning handed to the force engine. The engine's
// algorithm is a collaborator concern; these values are configuration only.
type ForceConfig struct {
	// LinkDistance is the target length of each edge.
	LinkDistance float64
	// Repulsion is the many-body charge strength (negative repels).
	Repulsion float64
	// Center is the point the simulation drifts toward, normally the
	// container midpoint.
	Center Vec2
	// CollisionRadius is the minimum inter-node separation.
	CollisionRadius float64
}

// DefaultForceConfig returns the standard relationship-diagram tuning
// centered on the given container.
func DefaultForceConfig(container Vec2) ForceConfig {
	return ForceConfig{
		LinkDistance:    80,
		Repulsion:       -200,
		Center:          Vec2{X: container.X / 2, Y: container.Y / 2},
		CollisionRadius: 35,
	}
}

// ForceEngine is the external physics simulation driving the relationship
// diagram. The engine owns its internal node state and emits immutable
// position snapshots per tick; callers never mutate engine-owned state.
type ForceEngine interface {
	// Start begins simulating the given graph and invokes onTick with a
	// fresh position snapshot on every iteration. A second Start replaces
	// the previous run. Start must return without invoking onTick; ticks
	// are delivered asynchronously.
	Start(input GraphInput, cfg ForceConfig, onTick func([]NodePosition))
	// Pin fixes a node at a local-space position (infinite mass) until
	// Release.
	Pin(id string, pos Vec2)
	// Release unpins a node.
	Release(id string)
	// Reheat restores ambient motion after a drag ends.
	Reheat()
	// Stop halts the simulation and unregisters the tick callback. Must be
	// called on teardown or before the input graph changes, so ticks cannot
	// fire against stale state.
	Stop()
}

// BuildGraphInput assembles the one-hop node/edge set around a center node:
// the center, one node per distinct forward-reference target, and one per
// distinct back-reference source, deduplicated by id across both lists. A
// node both referenced by and referencing the center appears once.
//
// Edges are NOT deduplicated: a forward and a back reference to the same
// node keep both edges, since they carry different direction.
//
// titleOf resolves display titles for neighbor ids; nil or an empty result
// falls back to "Node {id}".
func BuildGraphInput(center ContentNode, titleOf func(id string) string) GraphInput {
	resolve := func(id string) string {
		if titleOf != nil {
			if t := titleOf(id); t != "" {
				return t
			}
		}
		return truncateTitle("Node " + id)
	}

	in := GraphInput{
		Nodes: []GraphNode{{ID: center.ID, Title: DisplayTitle(center), IsCenter: true}},
	}
	seen := map[string]struct{}{center.ID: {}}

	for _, target := range center.ForwardRefs {
		if _, ok := seen[target]; !ok {
			seen[target] = struct{}{}
			in.Nodes = append(in.Nodes, GraphNode{ID: target, Title: resolve(target)})
		}
		in.Edges = append(in.Edges, Edge{SourceID: center.ID, TargetID: target})
	}
	for _, source := range center.BackRefs {
		if _, ok := seen[source]; !ok {
			seen[source] = struct{}{}
			in.Nodes = append(in.Nodes, GraphNode{ID: source, Title: resolve(source)})
		}
		in.Edges = append(in.Edges, Edge{SourceID: source, TargetID: center.ID})
	}
	return in
}

// GraphConfig configures a GraphDiagram.
type GraphConfig struct {
	// Container is the screen size of the drawing area.
	Container Vec2
	// NodeWidth and NodeHeight size the box drawn around each engine
	// position. Zero selects the defaults (120x28).
	NodeWidth, NodeHeight float64
	// Force overrides the engine tuning. Zero value selects
	// DefaultForceConfig(Container).
	Force ForceConfig
	// Logger receives debug records. Nil means no logging.
	Logger *zap.Logger
}

// GraphDiagram drives the one-hop relationship diagram: it adapts a center
// node's references into ForceEngine input, republishes the engine's tick
// positions as frames, and owns the shared Viewport with node dragging
// enabled.
type GraphDiagram struct {
	store  Store
	engine ForceEngine
	vp     *Viewport
	log    *zap.Logger

	nodeW, nodeH float64
	force        ForceConfig

	mu        sync.Mutex
	gen       uint64
	centerID  string
	input     GraphInput
	positions []NodePosition
	state     DiagramState
	err       error
	running   bool
	closed    bool
	onFrame   func(Frame)
}

// NewGraphDiagram creates a relationship diagram over the store and engine.
func NewGraphDiagram(store Store, engine ForceEngine, cfg GraphConfig) *GraphDiagram {
	if cfg.NodeWidth <= 0 {
		cfg.NodeWidth = 120
	}
	if cfg.NodeHeight <= 0 {
		cfg.NodeHeight = 28
	}
	if cfg.Force == (ForceConfig{}) {
		cfg.Force = DefaultForceConfig(cfg.Container)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	d := &GraphDiagram{
		store:  store,
		engine: engine,
		log:    cfg.Logger,
		nodeW:  cfg.NodeWidth,
		nodeH:  cfg.NodeHeight,
		force:  cfg.Force,
	}
	vp := NewViewport(cfg.Container)
	vp.MinScale = GraphMinScale
	vp.MaxScale = GraphMaxScale
	vp.NodeDragEnabled = true
	vp.OnNodePin = d.pinNode
	vp.OnNodeRelease = d.releaseNode
	vp.OnChange = d.publish
	d.vp = vp
	return d
}

// Viewport returns the diagram's viewport controller. Raw pointer and wheel
// events go here.
func (d *GraphDiagram) Viewport() *Viewport { return d.vp }

// OnFrame registers the frame listener the presentation adapter draws from.
func (d *GraphDiagram) OnFrame(fn func(Frame)) {
	d.mu.Lock()
	d.onFrame = fn
	d.mu.Unlock()
}

// OnActivate registers the navigation callback for qualifying node clicks.
func (d *GraphDiagram) OnActivate(fn func(nodeID string)) {
	d.vp.OnActivate = fn
}

// CenterID returns the id the diagram is currently centered on.
func (d *GraphDiagram) CenterID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.centerID
}

// State returns the diagram's current lifecycle state.
func (d *GraphDiagram) State() DiagramState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// SetCenter recenters the diagram on a node. The previous simulation is
// stopped before the new graph starts, so stale ticks cannot fire. The
// viewport resets to identity.
func (d *GraphDiagram) SetCenter(ctx context.Context, id string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.gen++
	gen := d.gen
	d.centerID = id
	d.state = StateLoading
	d.stopLocked()
	d.mu.Unlock()

	d.vp.Reset()

	center, err := d.store.Node(ctx, id)
	if err != nil {
		d.commitFailure(gen, &LoadError{ID: id, Err: err})
		return
	}
	titles := d.neighborTitles(ctx, center)
	input := BuildGraphInput(center, func(nid string) string { return titles[nid] })

	d.mu.Lock()
	if gen != d.gen || d.closed {
		d.mu.Unlock()
		d.log.Debug("discarding stale graph build", zap.String("id", id))
		return
	}
	d.input = input
	d.positions = nil
	if len(center.ForwardRefs) == 0 && len(center.BackRefs) == 0 && len(center.Children) == 0 {
		d.state = StateEmpty
		d.mu.Unlock()
		d.publish()
		return
	}
	d.state = StateReady
	d.running = true
	// Started under the mutex so a concurrent SetCenter cannot slip its own
	// Start in between the generation check and this call.
	d.engine.Start(input, d.force, func(positions []NodePosition) {
		d.tick(gen, positions)
	})
	d.mu.Unlock()
	d.publish()
}

// Close stops the simulation and detaches the tick callback. Frames stop
// after Close returns.
func (d *GraphDiagram) Close() {
	d.mu.Lock()
	d.closed = true
	d.stopLocked()
	d.mu.Unlock()
}

// tick republishes one engine snapshot. Ticks from a superseded run are
// dropped.
func (d *GraphDiagram) tick(gen uint64, positions []NodePosition) {
	d.mu.Lock()
	if gen != d.gen || d.closed {
		d.mu.Unlock()
		return
	}
	d.positions = positions
	d.mu.Unlock()
	d.publish()
}

// Frame assembles the current positioned-node snapshot.
func (d *GraphDiagram) Frame() Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frameLocked()
}

func (d *GraphDiagram) frameLocked() Frame {
	f := Frame{
		Edges:     d.input.Edges,
		Extent:    d.vp.Container,
		Transform: d.vp.Transform(),
		State:     d.state,
	}
	titles := make(map[string]GraphNode, len(d.input.Nodes))
	for _, n := range d.input.Nodes {
		titles[n.ID] = n
	}
	for _, p := range d.positions {
		gn := titles[p.ID]
		depth := 1
		if gn.IsCenter {
			depth = 0
		}
		f.Nodes = append(f.Nodes, PositionedNode{
			Node: &TreeNode{ID: gn.ID, Title: gn.Title, Depth: depth},
			Box: Rect{
				X:      p.Pos.X - d.nodeW/2,
				Y:      p.Pos.Y - d.nodeH/2,
				Width:  d.nodeW,
				Height: d.nodeH,
			},
		})
	}
	return f
}

func (d *GraphDiagram) publish() {
	d.mu.Lock()
	fn := d.onFrame
	frame := d.frameLocked()
	d.mu.Unlock()
	if fn != nil {
		fn(frame)
	}
}

func (d *GraphDiagram) commitFailure(gen uint64, err error) {
	d.mu.Lock()
	if gen != d.gen || d.closed {
		d.mu.Unlock()
		return
	}
	d.state = StateFailed
	d.err = err
	d.input = GraphInput{}
	d.positions = nil
	d.mu.Unlock()
	d.log.Debug("graph center load failed", zap.Error(err))
	d.publish()
}

// Err returns the load failure when State is StateFailed, else nil.
func (d *GraphDiagram) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// stopLocked halts the engine if it is running. Caller holds d.mu.
func (d *GraphDiagram) stopLocked() {
	if d.running {
		d.engine.Stop()
		d.running = false
	}
}

// pinNode forwards a drag position to the engine.
func (d *GraphDiagram) pinNode(id string, local Vec2) {
	d.mu.Lock()
	running := d.running
	d.mu.Unlock()
	if running {
		d.engine.Pin(id, local)
	}
}

// releaseNode ends a drag: the pin is lifted and ambient motion resumes.
func (d *GraphDiagram) releaseNode(id string) {
	d.mu.Lock()
	running := d.running
	d.mu.Unlock()
	if running {
		d.engine.Release(id)
		d.engine.Reheat()
	}
}

// neighborTitles resolves display titles for every distinct neighbor id.
// A failed lookup just leaves the fallback title in place.
func (d *GraphDiagram) neighborTitles(ctx context.Context, center ContentNode) map[string]string {
	titles := make(map[string]string)
	for _, id := range center.ForwardRefs {
		titles[id] = ""
	}
	for _, id := range center.BackRefs {
		titles[id] = ""
	}
	for id := range titles {
		n, err := d.store.Node(ctx, id)
		if err != nil {
			d.log.Debug("neighbor title lookup failed", zap.String("id", id), zap.Error(err))
			continue
		}
		titles[id] = DisplayTitle(n)
	}
	return titles
}
