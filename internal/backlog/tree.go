package backlog

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"scoreservice.app/review/internal/model"
)

// DefaultSiblingConcurrency is how many siblings of one parent are fetched at once.
const DefaultSiblingConcurrency = 8

// TreeOptions controls FetchDocumentTree.
type TreeOptions struct {
	// MaxDepth bounds the walk. 0 fetches the root only, nil walks every descendant.
	MaxDepth *int
	// SiblingConcurrency caps parallel subtree fetches per parent. <= 0 uses DefaultSiblingConcurrency.
	SiblingConcurrency int
}

// Depth is a helper to build TreeOptions inline: backlog.TreeOptions{MaxDepth: backlog.Depth(2)}
func Depth(n int) *int {
	return &n
}

// ancestry is the chain of document ids from the root to the node being
// built. Each call extends its parent's chain without mutating it, so
// sibling subtrees running concurrently never observe each other.
type ancestry struct {
	id     string
	parent *ancestry
}

func (a *ancestry) contains(id string) bool {
	for node := a; node != nil; node = node.parent {
		if node.id == id {
			return true
		}
	}
	return false
}

// FetchDocumentTree builds the tree rooted at rootID. Sibling subtrees are
// fetched concurrently. Any failure aborts the whole build; there is no
// partial result.
func (c *Client) FetchDocumentTree(ctx context.Context, rootID any, opts TreeOptions) (*model.DocumentTreeNode, error) {
	documentID, err := NormalizeDocumentID(rootID)
	if err != nil {
		return nil, err
	}

	maxDepth := -1
	if opts.MaxDepth != nil {
		if *opts.MaxDepth < 0 {
			return nil, ErrInvalidMaxDepth
		}
		maxDepth = *opts.MaxDepth
	}

	limit := opts.SiblingConcurrency
	if limit <= 0 {
		limit = DefaultSiblingConcurrency
	}

	b := &treeBuilder{client: c, maxDepth: maxDepth, limit: limit}
	node, err := b.build(ctx, documentID, nil, 0, true)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "backlog document tree fetched",
		"document_id", documentID,
		"max_depth", maxDepth,
		"documents", node.Count())

	return node, nil
}

type treeBuilder struct {
	client   *Client
	maxDepth int // < 0 means unbounded
	limit    int
}

// build fetches documentID and, depth permitting, its subtree.
func (b *treeBuilder) build(ctx context.Context, documentID string, path *ancestry, depth int, mayHaveChildren bool) (*model.DocumentTreeNode, error) {
	if path.contains(documentID) {
		return nil, &CircularReferenceError{DocumentID: documentID}
	}
	path = &ancestry{id: documentID, parent: path}

	doc, err := b.client.FetchDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	node := &model.DocumentTreeNode{
		Document: *doc,
		Children: []model.DocumentTreeNode{},
	}

	if (b.maxDepth >= 0 && depth >= b.maxDepth) || !mayHaveChildren {
		return node, nil
	}

	summaries, err := b.client.FetchChildren(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return node, nil
	}

	children := make([]model.DocumentTreeNode, len(summaries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.limit)
	for i, summary := range summaries {
		g.Go(func() error {
			childID, err := NormalizeDocumentID(summary.ID)
			if err != nil {
				return &InvalidChildError{ParentID: documentID, Reason: fmt.Sprintf("%q", summary.ID.String())}
			}

			child, err := b.build(gctx, childID, path, depth+1, summary.MayHaveChildren())
			if err != nil {
				return err
			}
			children[i] = *child
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	node.Children = children
	return node, nil
}
