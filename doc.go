// Package lattice renders interactive node-link diagrams over a hierarchical,
// externally stored graph of content items: a tidy-tree view of a node's
// descendants and a one-hop relationship view of a node plus everything it
// references and everything that references it.
//
// Lattice owns the layout and interaction logic only. Drawing is delegated to
// a presentation adapter (a reference ebiten adapter lives in
// lattice/render), and content comes from a host-supplied [Store].
//
// # Quick start
//
// Build a tree diagram over a store and react to published frames:
//
//	d := lattice.NewTreeDiagram(store, lattice.TreeConfig{
//		Container: lattice.Vec2{X: 1024, Y: 768},
//	})
//	d.OnFrame(func(f lattice.Frame) { /* hand to the presentation adapter */ })
//	d.OnActivate(func(id string) { /* navigate */ })
//	d.SetCenter(ctx, "node-42")
//
// Raw pointer and wheel events from the host are forwarded to the diagram's
// [Viewport], which interprets them as pan, zoom-to-pointer, node drag, or
// click:
//
//	d.Viewport().PointerDown(ev)
//	d.Viewport().Wheel(ev)
//
// # The two diagram types
//
// [TreeDiagram] runs the asynchronous depth- and fan-out-bounded tree build,
// the deterministic tidy-tree layout, and collapse/expand state. Layout is a
// pure function of (tree, collapsed set, constants) and is recomputed on
// every relevant state change.
//
// [GraphDiagram] feeds a one-hop node/edge set into an external
// [ForceEngine] and republishes the engine's per-tick positions. The engine
// itself (the physics) is a collaborator, not part of this package.
//
// Both diagram types share one [Viewport] implementation: an affine
// {translate, scale} transform with zoom-to-pointer anchoring, canvas-pan
// vs node-drag disambiguation, and click suppression while dragging.
package lattice
