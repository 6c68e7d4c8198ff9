package lattice

import "math"

// LayoutConstants are the spacing parameters of the tidy-tree layout.
type LayoutConstants struct {
	// NodeWidth and NodeHeight are the fixed box dimensions of every node.
	NodeWidth, NodeHeight float64
	// VerticalGap separates consecutive sibling boxes.
	VerticalGap float64
	// LevelGap is the x-advance per depth level.
	LevelGap float64
	// Origin offsets the root box from the canvas corner.
	Origin Vec2
	// Margin pads the computed extent on the right and bottom.
	Margin Vec2
}

// DefaultLayoutConstants returns the standard spacing used by the tree diagram.
func DefaultLayoutConstants() LayoutConstants {
	return LayoutConstants{
		NodeWidth:   160,
		NodeHeight:  32,
		VerticalGap: 8,
		LevelGap:    200,
		Origin:      Vec2{X: 40, Y: 40},
		Margin:      Vec2{X: 60, Y: 60},
	}
}

// PositionedNode is a TreeNode plus its laid-out box. A fresh slice of these
// is produced on every layout pass; boxes are never mutated in place.
type PositionedNode struct {
	Node *TreeNode
	Box  Rect
	// HasHiddenChildren marks a collapsed node whose children were skipped.
	HasHiddenChildren bool
}

// Connector is the geometry of one parent→child link: from the parent box's
// right-edge center to the child box's left-edge center. Presentation
// adapters typically draw it as a cubic curve.
type Connector struct {
	SourceID, TargetID string
	From, To           Vec2
}

// TreeLayout is the output of one layout pass.
type TreeLayout struct {
	Nodes      []PositionedNode
	Connectors []Connector
	// Extent is the canvas size needed to show every box plus margin.
	Extent Vec2
}

// Layout positions a collapsible tree left-to-right: each depth level in its
// own column, siblings stacked vertically, a parent vertically centered on
// the true mean of its visible children's centers (clamped to its own start
// y). Pure and deterministic: identical inputs yield bit-identical output,
// so callers may re-run it on every state change.
//
// A collapsed node reports to its parent as a single unit-height leaf; its
// hidden subtree is simply not emitted, so no dangling connectors exist.
func Layout(root *TreeNode, collapsed *CollapsedSet, c LayoutConstants) TreeLayout {
	if root == nil {
		return TreeLayout{}
	}
	p := &layoutPass{collapsed: collapsed, c: c}
	p.place(root, c.Origin.X, c.Origin.Y)

	var maxX, maxY float64
	for _, n := range p.nodes {
		maxX = math.Max(maxX, n.Box.X+n.Box.Width)
		maxY = math.Max(maxY, n.Box.Y+n.Box.Height)
	}
	return TreeLayout{
		Nodes:      p.nodes,
		Connectors: p.connectors,
		Extent:     Vec2{X: maxX + c.Margin.X, Y: maxY + c.Margin.Y},
	}
}

type layoutPass struct {
	collapsed  *CollapsedSet
	c          LayoutConstants
	nodes      []PositionedNode
	connectors []Connector
}

// place lays out n's subtree with its top-left corner at (startX, startY)
// and returns the subtree's total height. Children are computed first but
// the parent is emitted before them (pre-order output).
func (p *layoutPass) place(n *TreeNode, startX, startY float64) float64 {
	idx := len(p.nodes)
	p.nodes = append(p.nodes, PositionedNode{}) // reserve the parent's pre-order slot

	isCollapsed := p.collapsed != nil && p.collapsed.Contains(n.ID)
	if !n.HasChildren() || isCollapsed {
		p.nodes[idx] = PositionedNode{
			Node:              n,
			Box:               Rect{X: startX, Y: startY, Width: p.c.NodeWidth, Height: p.c.NodeHeight},
			HasHiddenChildren: isCollapsed && n.HasChildren(),
		}
		return p.c.NodeHeight
	}

	childX := startX + p.c.LevelGap
	y := startY
	span := 0.0
	childSlots := make([]int, 0, len(n.Children))
	for i, child := range n.Children {
		childSlots = append(childSlots, len(p.nodes))
		h := p.place(child, childX, y)
		y += h
		span += h
		if i < len(n.Children)-1 {
			y += p.c.VerticalGap
			span += p.c.VerticalGap
		}
	}

	// Parent vertical center = mean of the children's box centers.
	centerSum := 0.0
	for _, slot := range childSlots {
		centerSum += p.nodes[slot].Box.Y + p.nodes[slot].Box.Height/2
	}
	top := centerSum/float64(len(childSlots)) - p.c.NodeHeight/2
	if top < startY {
		top = startY
	}
	box := Rect{X: startX, Y: top, Width: p.c.NodeWidth, Height: p.c.NodeHeight}
	p.nodes[idx] = PositionedNode{Node: n, Box: box}

	for _, slot := range childSlots {
		childBox := p.nodes[slot].Box
		p.connectors = append(p.connectors, Connector{
			SourceID: n.ID,
			TargetID: p.nodes[slot].Node.ID,
			From:     Vec2{X: box.X + box.Width, Y: box.Y + box.Height/2},
			To:       Vec2{X: childBox.X, Y: childBox.Y + childBox.Height/2},
		})
	}

	return math.Max(p.c.NodeHeight, span)
}
