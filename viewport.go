package lattice

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Default scale clamps. Tree diagrams allow a wider range than the
// relationship graph.
const (
	TreeMinScale  = 0.2
	TreeMaxScale  = 4.0
	GraphMinScale = 0.3
	GraphMaxScale = 3.0
)

const (
	zoomOutFactor = 0.9
	zoomInFactor  = 1.1
)

// viewportMode is the current interaction mode. Modes are mutually exclusive.
type viewportMode uint8

const (
	modeIdle     viewportMode = iota
	modePanning               // pointer held on empty canvas
	modePressed               // pointer held on a node, drag disabled
	modeDragging              // pointer held on a node, drag enabled
)

// dragSession is the transient state between pointer-down and pointer-up.
type dragSession struct {
	nodeID         string
	startScreen    Vec2
	startTranslate Vec2
	moved          bool
}

// scrollAnim holds the active tweens of an animated viewport move.
type scrollAnim struct {
	tweenX, tweenY *gween.Tween
	tweenScale     *gween.Tween
	done           bool
}

// Viewport owns the affine transform of one diagram instance and interprets
// raw pointer events into pan, zoom-to-pointer, node-drag, and click
// decisions. Each open diagram owns exactly one Viewport; the transform is
// never shared.
//
// The transform maps local (diagram) coordinates to screen coordinates:
// screen = local*Scale + Translate.
type Viewport struct {
	// TranslateX and TranslateY are the screen-space offset of the diagram
	// origin.
	TranslateX, TranslateY float64
	// Scale is the zoom factor, clamped to [MinScale, MaxScale].
	Scale float64
	// MinScale and MaxScale bound wheel zooming.
	MinScale, MaxScale float64
	// Container is the size of the screen area the diagram renders into.
	Container Vec2
	// NodeDragEnabled turns pointer-down on a node into a drag session that
	// pins the node (relationship graph). When false, pointer-down on a node
	// only arms a click.
	NodeDragEnabled bool

	// OnActivate fires exactly once per qualifying node click. Suppressed
	// when the pointer moved between down and up.
	OnActivate func(nodeID string)
	// OnNodePin fires on every drag-move with the dragged node's position in
	// local space. The force engine treats the pinned node as fixed.
	OnNodePin func(nodeID string, local Vec2)
	// OnNodeRelease fires once when a node drag ends.
	OnNodeRelease func(nodeID string)
	// OnChange fires whenever the transform changes (pan, zoom, reset,
	// animation step).
	OnChange func()

	mode   viewportMode
	drag   dragSession
	scroll *scrollAnim
}

// NewViewport creates a Viewport at the identity transform with tree-diagram
// scale clamps.
func NewViewport(container Vec2) *Viewport {
	return &Viewport{
		Scale:     1,
		MinScale:  TreeMinScale,
		MaxScale:  TreeMaxScale,
		Container: container,
	}
}

// Reset returns the transform to identity {0, 0, 1} and cancels any running
// animation. Called on center-node change, explicit "reset view", and
// full-screen toggles.
func (v *Viewport) Reset() {
	v.scroll = nil
	v.TranslateX = 0
	v.TranslateY = 0
	v.Scale = 1
	v.changed()
}

// SetContainer updates the container size (e.g. on host resize). The
// transform is kept; only future centering math uses the new size.
func (v *Viewport) SetContainer(size Vec2) {
	v.Container = size
}

// ScreenToLocal converts a screen point into the diagram's untransformed
// coordinate space.
func (v *Viewport) ScreenToLocal(sx, sy float64) (lx, ly float64) {
	return (sx - v.TranslateX) / v.Scale, (sy - v.TranslateY) / v.Scale
}

// LocalToScreen converts a local diagram point to screen space.
func (v *Viewport) LocalToScreen(lx, ly float64) (sx, sy float64) {
	return lx*v.Scale + v.TranslateX, ly*v.Scale + v.TranslateY
}

// PointerDown begins an interaction: panning on empty canvas, a drag or
// armed click on a node. Events arriving mid-gesture (a second button) are
// ignored.
func (v *Viewport) PointerDown(ev PointerEvent) {
	if v.mode != modeIdle || !finite(ev.ScreenX, ev.ScreenY) {
		return
	}
	v.scroll = nil // interacting interrupts any animated move
	v.drag = dragSession{
		nodeID:         ev.TargetNodeID,
		startScreen:    Vec2{X: ev.ScreenX, Y: ev.ScreenY},
		startTranslate: Vec2{X: v.TranslateX, Y: v.TranslateY},
	}
	switch {
	case ev.TargetNodeID == "":
		v.mode = modePanning
	case v.NodeDragEnabled:
		v.mode = modeDragging
	default:
		v.mode = modePressed
	}
}

// PointerMove advances the active gesture. Moves with no active session are
// ignored; they arise from normal pointer-event races.
func (v *Viewport) PointerMove(ev PointerEvent) {
	if !finite(ev.ScreenX, ev.ScreenY) {
		return
	}
	switch v.mode {
	case modePanning:
		// The canvas tracks the pointer 1:1 in screen space.
		v.TranslateX = ev.ScreenX - (v.drag.startScreen.X - v.drag.startTranslate.X)
		v.TranslateY = ev.ScreenY - (v.drag.startScreen.Y - v.drag.startTranslate.Y)
		v.markMoved(ev)
		v.changed()
	case modeDragging:
		v.markMoved(ev)
		if v.drag.moved && v.OnNodePin != nil {
			lx, ly := v.ScreenToLocal(ev.ScreenX, ev.ScreenY)
			v.OnNodePin(v.drag.nodeID, Vec2{X: lx, Y: ly})
		}
	case modePressed:
		v.markMoved(ev)
	}
}

// PointerUp ends the active gesture, firing the click or drag-release
// decision. Ups with no active session are ignored.
func (v *Viewport) PointerUp(ev PointerEvent) {
	mode := v.mode
	drag := v.drag
	switch mode {
	case modeDragging:
		if drag.moved {
			if v.OnNodeRelease != nil {
				v.OnNodeRelease(drag.nodeID)
			}
		} else if v.OnActivate != nil && ev.TargetNodeID == drag.nodeID {
			v.OnActivate(drag.nodeID)
		}
	case modePressed:
		if !drag.moved && v.OnActivate != nil && ev.TargetNodeID == drag.nodeID {
			v.OnActivate(drag.nodeID)
		}
	}
	// Session state is cleared only after up processing completes, so a
	// drag can never leak into a click.
	v.mode = modeIdle
	v.drag = dragSession{}
}

// Wheel zooms toward the pointer. The diagram-space point under the cursor
// stays visually stationary. Ignored mid-drag and for non-finite input.
func (v *Viewport) Wheel(ev WheelEvent) {
	if v.mode == modePanning || v.mode == modeDragging {
		return
	}
	if !finite(ev.ScreenX, ev.ScreenY, ev.DeltaY) || ev.DeltaY == 0 {
		return
	}
	factor := zoomInFactor
	if ev.DeltaY > 0 {
		factor = zoomOutFactor
	}
	newScale := clamp(v.Scale*factor, v.MinScale, v.MaxScale)
	if newScale == v.Scale {
		return
	}
	ratio := newScale / v.Scale
	v.TranslateX = ev.ScreenX - (ev.ScreenX-v.TranslateX)*ratio
	v.TranslateY = ev.ScreenY - (ev.ScreenY-v.TranslateY)*ratio
	v.Scale = newScale
	v.changed()
}

// ScrollTo animates the translate toward (tx, ty) over duration seconds.
// Interrupted by any pointer-down or Reset.
func (v *Viewport) ScrollTo(tx, ty float64, duration float32, easeFn ease.TweenFunc) {
	v.scroll = &scrollAnim{
		tweenX: gween.New(float32(v.TranslateX), float32(tx), duration, easeFn),
		tweenY: gween.New(float32(v.TranslateY), float32(ty), duration, easeFn),
	}
}

// FitTo animates the transform so that a canvas of the given extent fits the
// container with the given padding, centered. The target scale is clamped
// like wheel zoom.
func (v *Viewport) FitTo(extent Vec2, padding float64, duration float32, easeFn ease.TweenFunc) {
	if extent.X <= 0 || extent.Y <= 0 {
		return
	}
	sx := (v.Container.X - 2*padding) / extent.X
	sy := (v.Container.Y - 2*padding) / extent.Y
	scale := clamp(min(sx, sy), v.MinScale, v.MaxScale)
	tx := (v.Container.X - extent.X*scale) / 2
	ty := (v.Container.Y - extent.Y*scale) / 2
	v.scroll = &scrollAnim{
		tweenX:     gween.New(float32(v.TranslateX), float32(tx), duration, easeFn),
		tweenY:     gween.New(float32(v.TranslateY), float32(ty), duration, easeFn),
		tweenScale: gween.New(float32(v.Scale), float32(scale), duration, easeFn),
	}
}

// Update advances any running animated move. dt is in seconds. No-op when
// nothing is animating.
func (v *Viewport) Update(dt float32) {
	if v.scroll == nil {
		return
	}
	x, doneX := v.scroll.tweenX.Update(dt)
	y, doneY := v.scroll.tweenY.Update(dt)
	v.TranslateX = float64(x)
	v.TranslateY = float64(y)
	doneScale := true
	if v.scroll.tweenScale != nil {
		s, d := v.scroll.tweenScale.Update(dt)
		v.Scale = float64(s)
		doneScale = d
	}
	if doneX && doneY && doneScale {
		v.scroll = nil
	}
	v.changed()
}

// markMoved records that the pointer moved while a button was held, which
// suppresses the click on pointer-up.
func (v *Viewport) markMoved(ev PointerEvent) {
	if ev.ScreenX != v.drag.startScreen.X || ev.ScreenY != v.drag.startScreen.Y {
		v.drag.moved = true
	}
}

func (v *Viewport) changed() {
	if v.OnChange != nil {
		v.OnChange()
	}
}
