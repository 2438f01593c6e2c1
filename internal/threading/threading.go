// Package threading turns the flat, scope-ordered comment list a backend
// returns into a nested reply tree. It never sorts; display order within
// each level is inherited from the backend.
package threading

import (
	"github.com/commentable-dev/commentable/internal/domain"
	internal_errors "github.com/commentable-dev/commentable/internal/errors"
)

// Thread builds the reply tree for one item scope.
//
// Comments without a parent become top-level nodes in input order. Each
// remaining comment is attached to the node whose commentId equals its
// parentId, again preserving input order among siblings. A comment whose
// parent is absent from the scope (the parent was deleted) is an orphan:
// it is promoted to top level after the true roots rather than dropped.
//
// Creation always references an already-persisted ancestor, so parentId
// chains should be acyclic. A cycle in stored data is still detected and
// reported instead of producing an unreachable subtree.
func Thread(flat []*domain.PublicComment) ([]*domain.PublicComment, error) {
	known := make(map[string]*domain.PublicComment, len(flat))
	for _, c := range flat {
		known[c.CommentID] = c
	}

	roots := []*domain.PublicComment{}
	orphans := []*domain.PublicComment{}
	children := make(map[string][]*domain.PublicComment)
	for _, c := range flat {
		switch {
		case c.ParentID == "":
			roots = append(roots, c)
		case known[c.ParentID] == nil:
			orphans = append(orphans, c)
		default:
			children[c.ParentID] = append(children[c.ParentID], c)
		}
	}

	for _, c := range flat {
		c.Nested = []*domain.PublicComment{}
		if replies, ok := children[c.CommentID]; ok {
			c.Nested = replies
		}
	}
	roots = append(roots, orphans...)

	// Every comment must be reachable from exactly one top-level node;
	// anything left over sits on a parentId cycle.
	if reachable(roots) != len(flat) {
		return nil, internal_errors.DataIntegrity("comment reply chain contains a cycle")
	}
	return roots, nil
}

func reachable(roots []*domain.PublicComment) int {
	seen := make(map[*domain.PublicComment]bool)
	stack := append([]*domain.PublicComment{}, roots...)
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[c] {
			continue
		}
		seen[c] = true
		stack = append(stack, c.Nested...)
	}
	return len(seen)
}
