// Package relationship implements the engine that keeps typed document links
// bidirectionally consistent: every edge A→B has a matching edge B→A with the
// same type and the same relationship ID.
package relationship

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/urbanatlas/docgraph/internal/domain"
	domdoc "github.com/urbanatlas/docgraph/internal/domain/document"
)

const (
	// DefaultTreeDepth is used when a traversal depth is not given.
	DefaultTreeDepth = 3
	// MaxTreeDepth bounds relationship tree expansion.
	MaxTreeDepth = 5
)

// Service is the relationship engine.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// New creates a relationship engine.
func New(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Link creates a bidirectional typed link between two documents. Both
// directed edges share one relationship ID and are written in a single
// storage transaction.
func (s *Service) Link(ctx context.Context, docID, peerID string, relType string) (domdoc.Relationship, error) {
	if docID == peerID {
		return domdoc.Relationship{}, fmt.Errorf("link %s: %w", docID, domain.ErrSelfRelationship)
	}

	t, err := domdoc.ParseRelationType(relType)
	if err != nil {
		return domdoc.Relationship{}, err
	}

	doc, err := s.repo.Get(ctx, docID)
	if err != nil {
		return domdoc.Relationship{}, fmt.Errorf("get document: %w", err)
	}
	peer, err := s.repo.Get(ctx, peerID)
	if err != nil {
		return domdoc.Relationship{}, fmt.Errorf("get peer: %w", err)
	}

	if doc.HasRelationshipWith(peerID, t) {
		return domdoc.Relationship{}, fmt.Errorf(
			"%s and %s already linked as %q: %w", docID, peerID, t, domain.ErrDuplicateRelationship,
		)
	}

	rel := domdoc.Relationship{ID: uuid.NewString(), PeerID: peerID, PeerTitle: peer.Title(), Type: t}
	doc.AddRelationship(rel)
	peer.AddRelationship(domdoc.Relationship{ID: rel.ID, PeerID: docID, PeerTitle: doc.Title(), Type: t})

	if err := s.repo.UpdatePair(ctx, &doc, &peer); err != nil {
		return domdoc.Relationship{}, fmt.Errorf("write link: %w", err)
	}
	return rel, nil
}

// Unlink removes both directed edges of a relationship. A one-sided edge is
// repaired by removing the side that exists, but the inconsistency is
// surfaced as a ConsistencyError instead of being silently ignored.
func (s *Service) Unlink(ctx context.Context, docID, relID string) error {
	doc, err := s.repo.Get(ctx, docID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	rel, ok := doc.RemoveRelationship(relID)
	if !ok {
		return fmt.Errorf("relationship %s on document %s: %w", relID, docID, domain.ErrRelationshipNotFound)
	}

	peer, err := s.repo.Get(ctx, rel.PeerID)
	if err != nil {
		if updErr := s.repo.Update(ctx, &doc); updErr != nil {
			return fmt.Errorf("remove dangling edge: %w", updErr)
		}
		s.logger.Warn("one-sided relationship: peer document missing",
			zap.String("relationship_id", relID),
			zap.String("document_id", docID),
			zap.String("peer_id", rel.PeerID),
		)
		return domain.NewConsistency(fmt.Sprintf(
			"relationship %s: peer document %s no longer exists; dangling edge removed", relID, rel.PeerID,
		))
	}

	if _, ok := peer.RemoveRelationship(relID); !ok {
		if updErr := s.repo.Update(ctx, &doc); updErr != nil {
			return fmt.Errorf("remove dangling edge: %w", updErr)
		}
		s.logger.Warn("one-sided relationship: peer edge missing",
			zap.String("relationship_id", relID),
			zap.String("document_id", docID),
			zap.String("peer_id", rel.PeerID),
		)
		return domain.NewConsistency(fmt.Sprintf(
			"relationship %s: edge missing on peer %s; dangling edge removed", relID, rel.PeerID,
		))
	}

	if err := s.repo.UpdatePair(ctx, &doc, &peer); err != nil {
		return fmt.Errorf("write unlink: %w", err)
	}
	return nil
}

// AvailablePeers returns all documents excluding docID itself and its current
// peers. The result is recomputed on every call since the peer set changes
// after each link.
func (s *Service) AvailablePeers(ctx context.Context, docID string) ([]domdoc.Document, error) {
	doc, err := s.repo.Get(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	excluded := map[string]bool{docID: true}
	for _, rel := range doc.Relationships() {
		excluded[rel.PeerID] = true
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	peers := make([]domdoc.Document, 0, len(all))
	for _, d := range all {
		if !excluded[d.ID()] {
			peers = append(peers, d)
		}
	}
	return peers, nil
}

// Counts returns the number of relationships per type for a document.
func (s *Service) Counts(ctx context.Context, docID string) (map[domdoc.RelationType]int, error) {
	doc, err := s.repo.Get(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	counts := make(map[domdoc.RelationType]int, len(domdoc.RelationTypes))
	for _, rel := range doc.Relationships() {
		counts[rel.Type]++
	}
	return counts, nil
}

// TreeNode is one node of an expanded relationship tree.
type TreeNode struct {
	Document domdoc.Document
	Children []TreeEdge
}

// TreeEdge is a typed edge to a child tree node.
type TreeEdge struct {
	Type domdoc.RelationType
	Node *TreeNode
}

// Tree expands the relationship graph from docID up to maxDepth hops using a
// breadth-first walk with a single shared visited set: the graph may be
// cyclic, and a document fully expanded on one branch is not expanded again
// on another. Depth defaults to DefaultTreeDepth and is capped at
// MaxTreeDepth.
func (s *Service) Tree(ctx context.Context, docID string, maxDepth int) (*TreeNode, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultTreeDepth
	}
	if maxDepth > MaxTreeDepth {
		maxDepth = MaxTreeDepth
	}

	root, err := s.repo.Get(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	byID := make(map[string]domdoc.Document, len(all))
	for _, d := range all {
		byID[d.ID()] = d
	}

	type queueItem struct {
		node  *TreeNode
		depth int
	}

	rootNode := &TreeNode{Document: root}
	visited := map[string]bool{docID: true}
	queue := []queueItem{{node: rootNode, depth: 0}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if item.depth >= maxDepth {
			continue
		}

		for _, rel := range item.node.Document.Relationships() {
			if visited[rel.PeerID] {
				continue
			}
			peer, ok := byID[rel.PeerID]
			if !ok {
				s.logger.Warn("relationship points at missing document",
					zap.String("relationship_id", rel.ID),
					zap.String("document_id", item.node.Document.ID()),
					zap.String("peer_id", rel.PeerID),
				)
				continue
			}
			visited[rel.PeerID] = true
			child := &TreeNode{Document: peer}
			item.node.Children = append(item.node.Children, TreeEdge{Type: rel.Type, Node: child})
			queue = append(queue, queueItem{node: child, depth: item.depth + 1})
		}
	}

	return rootNode, nil
}

// DetachAll removes every relationship of a document from both sides. The
// document service calls this before deletion so peers keep no dangling
// edges. Missing peers are logged and skipped.
func (s *Service) DetachAll(ctx context.Context, docID string) error {
	doc, err := s.repo.Get(ctx, docID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	for _, rel := range doc.Relationships() {
		peer, err := s.repo.Get(ctx, rel.PeerID)
		if err != nil {
			s.logger.Warn("detach: peer document missing",
				zap.String("relationship_id", rel.ID),
				zap.String("peer_id", rel.PeerID),
			)
			continue
		}
		if _, ok := peer.RemoveRelationship(rel.ID); !ok {
			s.logger.Warn("detach: peer edge missing",
				zap.String("relationship_id", rel.ID),
				zap.String("peer_id", rel.PeerID),
			)
			continue
		}
		if err := s.repo.Update(ctx, &peer); err != nil {
			return fmt.Errorf("detach relationship %s: %w", rel.ID, err)
		}
	}
	return nil
}
