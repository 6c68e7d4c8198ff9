// Package render is an Ebitengine presentation adapter for lattice diagrams.
// It draws published frames and translates raw mouse input into the
// normalized pointer and wheel events the viewport consumes. The core
// library has no rendering dependency; hosts with their own canvas can skip
// this package entirely.
package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/tidegrove/lattice"
)

// connectorSegments is the sampling resolution of each cubic connector.
const connectorSegments = 16

// Diagram is the slice of a lattice diagram the renderer needs. Both
// *lattice.TreeDiagram and *lattice.GraphDiagram satisfy it.
type Diagram interface {
	Frame() lattice.Frame
	Viewport() *lattice.Viewport
}

// Style holds the colors and stroke widths used by Draw.
type Style struct {
	Background     color.Color
	NodeFill       color.Color
	NodeStroke     color.Color
	CenterFill     color.Color
	ConnectorColor color.Color
	StrokeWidth    float32
}

// DefaultStyle returns a dark theme.
func DefaultStyle() Style {
	return Style{
		Background:     color.RGBA{R: 0x1e, G: 0x1e, B: 0x26, A: 0xff},
		NodeFill:       color.RGBA{R: 0x2e, G: 0x34, B: 0x40, A: 0xff},
		NodeStroke:     color.RGBA{R: 0x88, G: 0x92, B: 0xa6, A: 0xff},
		CenterFill:     color.RGBA{R: 0x3b, G: 0x5b, B: 0x92, A: 0xff},
		ConnectorColor: color.RGBA{R: 0x5c, G: 0x64, B: 0x78, A: 0xff},
		StrokeWidth:    1,
	}
}

// Renderer drives one diagram inside an ebiten game loop: call Update from
// the game's Update and Draw from its Draw.
type Renderer struct {
	diagram Diagram
	style   Style

	mouseDown bool
}

// New creates a renderer for the diagram.
func New(d Diagram, style Style) *Renderer {
	return &Renderer{diagram: d, style: style}
}

// Update polls the mouse, forwards events to the viewport, and advances any
// running viewport animation. Call once per tick.
func (r *Renderer) Update() {
	vp := r.diagram.Viewport()
	frame := r.diagram.Frame()

	mx, my := ebiten.CursorPosition()
	sx, sy := float64(mx), float64(my)
	lx, ly := vp.ScreenToLocal(sx, sy)
	target := frame.NodeAt(lx, ly)

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		r.mouseDown = true
		vp.PointerDown(lattice.PointerEvent{ScreenX: sx, ScreenY: sy, TargetNodeID: target})
	}
	if r.mouseDown && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		vp.PointerMove(lattice.PointerEvent{ScreenX: sx, ScreenY: sy, TargetNodeID: target})
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		r.mouseDown = false
		vp.PointerUp(lattice.PointerEvent{ScreenX: sx, ScreenY: sy, TargetNodeID: target})
	}

	if _, wy := ebiten.Wheel(); wy != 0 {
		// Ebiten reports wheel-up as positive; the viewport follows the
		// DOM convention where positive deltas zoom out.
		vp.Wheel(lattice.WheelEvent{ScreenX: sx, ScreenY: sy, DeltaY: -wy})
	}

	vp.Update(1.0 / float32(ebiten.TPS()))
}

// Draw renders the diagram's current frame onto screen.
func (r *Renderer) Draw(screen *ebiten.Image) {
	screen.Fill(r.style.Background)

	frame := r.diagram.Frame()
	vp := r.diagram.Viewport()

	switch frame.State {
	case lattice.StateLoading:
		ebitenutil.DebugPrintAt(screen, "loading...", 8, 8)
		return
	case lattice.StateFailed:
		ebitenutil.DebugPrintAt(screen, "load failed", 8, 8)
		return
	}

	for _, c := range frame.Connectors {
		r.drawConnector(screen, vp, c)
	}
	for _, n := range frame.Nodes {
		r.drawNode(screen, vp, n)
	}

	if frame.State == lattice.StateEmpty && len(frame.Nodes) == 0 {
		ebitenutil.DebugPrintAt(screen, "nothing to show", 8, 8)
	}
}

// drawConnector strokes a horizontal-tangent cubic from the parent's right
// edge to the child's left edge, sampled into line segments.
func (r *Renderer) drawConnector(screen *ebiten.Image, vp *lattice.Viewport, c lattice.Connector) {
	fx, fy := vp.LocalToScreen(c.From.X, c.From.Y)
	tx, ty := vp.LocalToScreen(c.To.X, c.To.Y)
	midX := (fx + tx) / 2

	px, py := fx, fy
	for i := 1; i <= connectorSegments; i++ {
		t := float64(i) / connectorSegments
		x, y := cubicAt(fx, fy, midX, fy, midX, ty, tx, ty, t)
		vector.StrokeLine(screen, float32(px), float32(py), float32(x), float32(y),
			r.style.StrokeWidth, r.style.ConnectorColor, true)
		px, py = x, y
	}
}

func (r *Renderer) drawNode(screen *ebiten.Image, vp *lattice.Viewport, n lattice.PositionedNode) {
	x, y := vp.LocalToScreen(n.Box.X, n.Box.Y)
	w := float32(n.Box.Width * vp.Scale)
	h := float32(n.Box.Height * vp.Scale)

	fill := r.style.NodeFill
	if n.Node.Depth == 0 {
		fill = r.style.CenterFill
	}
	vector.DrawFilledRect(screen, float32(x), float32(y), w, h, fill, true)
	vector.StrokeRect(screen, float32(x), float32(y), w, h, r.style.StrokeWidth, r.style.NodeStroke, true)

	label := n.Node.Title
	if n.HasHiddenChildren {
		label += " [+]"
	}
	ebitenutil.DebugPrintAt(screen, label, int(x)+4, int(y)+int(h)/2-8)
}

// cubicAt evaluates a cubic Bezier at t.
func cubicAt(x0, y0, x1, y1, x2, y2, x3, y3, t float64) (float64, float64) {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return a*x0 + b*x1 + c*x2 + d*x3, a*y0 + b*y1 + c*y2 + d*y3
}
