package lattice

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button (scroll wheel click)
)

// PointerEvent is a normalized pointer event forwarded by the presentation
// adapter. Coordinates are in screen (container) space. TargetNodeID is the
// id of the diagram node under the pointer, or "" for empty canvas.
type PointerEvent struct {
	ScreenX, ScreenY float64
	Button           MouseButton
	TargetNodeID     string
}

// WheelEvent is a normalized scroll-wheel event at a screen position.
// DeltaY > 0 scrolls down (zoom out), DeltaY < 0 scrolls up (zoom in).
type WheelEvent struct {
	ScreenX, ScreenY float64
	DeltaY           float64
}
