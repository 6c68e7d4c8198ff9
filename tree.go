package lattice

import (
	"context"

	"go.uber.org/zap"
)

const (
	defaultMaxDepth  = 4
	defaultMaxFanOut = 30
)

// TreeNode is one node of an immutable tree snapshot produced by a Builder.
// Depth is 0 at the root and parent depth + 1 below; it never exceeds the
// builder's maximum. Children hold at most the builder's fan-out cap, an
// order-preserving prefix of the source node's children.
type TreeNode struct {
	ID       string
	Title    string
	Depth    int
	Children []*TreeNode
}

// HasChildren reports whether the node has any loaded children.
func (n *TreeNode) HasChildren() bool {
	return len(n.Children) > 0
}

// Walk visits the node and every descendant in pre-order.
func (n *TreeNode) Walk(fn func(*TreeNode)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Count returns the number of nodes in the subtree including n.
func (n *TreeNode) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// BuilderConfig configures a Builder. Zero values select the defaults
// (depth 4, fan-out 30, no logging).
type BuilderConfig struct {
	// MaxDepth is the deepest level fetched; the root is depth 0.
	MaxDepth int
	// MaxFanOut caps children per node; excess children are dropped,
	// keeping an order-preserving prefix.
	MaxFanOut int
	// Logger receives debug records for pruned branches. Nil means no logging.
	Logger *zap.Logger
}

// Builder fetches a node's descendants from a Store into a TreeNode snapshot.
//
// Recursion is bounded purely by depth, so a cyclic children relation in the
// store cannot cause non-termination; a node reachable under several
// ancestors is simply fetched once per occurrence.
type Builder struct {
	store     Store
	maxDepth  int
	maxFanOut int
	log       *zap.Logger
}

// NewBuilder creates a Builder over the given store.
func NewBuilder(store Store, cfg BuilderConfig) *Builder {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = defaultMaxDepth
	}
	if cfg.MaxFanOut <= 0 {
		cfg.MaxFanOut = defaultMaxFanOut
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Builder{
		store:     store,
		maxDepth:  cfg.MaxDepth,
		maxFanOut: cfg.MaxFanOut,
		log:       cfg.Logger,
	}
}

// Build fetches rootID and its descendants depth-first and returns the
// complete snapshot. A failed non-root fetch prunes that branch only; a
// failed root fetch returns a *LoadError and no tree. Build never returns a
// partial tree alongside an error.
func (b *Builder) Build(ctx context.Context, rootID string) (*TreeNode, error) {
	cn, err := b.store.Node(ctx, rootID)
	if err != nil {
		return nil, &LoadError{ID: rootID, Err: err}
	}
	return b.assemble(ctx, cn, 0), nil
}

// buildNode fetches one non-root node. Returns nil when the fetch fails or
// depth exceeds the bound; the caller omits nil branches.
func (b *Builder) buildNode(ctx context.Context, id string, depth int) *TreeNode {
	if depth > b.maxDepth {
		return nil
	}
	cn, err := b.store.Node(ctx, id)
	if err != nil {
		b.log.Debug("branch fetch failed, pruning",
			zap.String("id", id), zap.Int("depth", depth), zap.Error(err))
		return nil
	}
	return b.assemble(ctx, cn, depth)
}

// assemble turns a fetched ContentNode into a TreeNode and recurses into at
// most maxFanOut of its children.
func (b *Builder) assemble(ctx context.Context, cn ContentNode, depth int) *TreeNode {
	node := &TreeNode{ID: cn.ID, Title: DisplayTitle(cn), Depth: depth}
	childIDs := cn.Children
	if len(childIDs) > b.maxFanOut {
		childIDs = childIDs[:b.maxFanOut]
	}
	for _, childID := range childIDs {
		if child := b.buildNode(ctx, childID, depth+1); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}
