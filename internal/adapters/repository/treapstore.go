package repository

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/sitescore/pkg/metrics"
)

// Treap-based, in-memory Ranking implementation.
//
// Ordering: score DESC, then siteID ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the ranking
// from best to worst. Priorities are a hash of the site ID, which keeps the
// tree balanced in expectation even though overall scores cluster in 0..100.

// record is the stored state for one site.
type record struct {
	score int
	grade string
}

// treap node
type node struct {
	id    string
	score int
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID).
func less(aScore int, aID string, bScore int, bID string) bool {
	if aScore != bScore {
		return aScore > bScore // higher score ranks earlier
	}
	return aID < bID // tie-breaker by id asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score int) *node {
	if n == nil {
		return &node{id: id, score: score, prio: xxhash.Sum64String(id), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score int) *node {
	if n == nil {
		return nil
	}
	if score == n.score && id == n.id {
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	} else if less(score, id, n.score, n.id) {
		n.left = deleteNode(n.left, id, score)
	} else {
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, records map[string]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, records, out)
	if len(*out) < limit {
		if rec, ok := records[n.id]; ok {
			*out = append(*out, Entry{SiteID: n.id, Score: rec.score, Grade: rec.grade})
		}
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, records, out)
	}
}

// TreapStore ranks sites in memory.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]record
	// sites per overall score; the number of keys above a score gives its
	// dense rank without walking the tree.
	perScore map[int]int
}

// NewTreapStore constructs an empty ranking.
func NewTreapStore() *TreapStore {
	return &TreapStore{
		byID:     make(map[string]record),
		perScore: make(map[int]int),
	}
}

// Upsert implements Ranking.Upsert with O(log n) expected time.
func (s *TreapStore) Upsert(_ context.Context, siteID string, score int, grade string) (bool, error) {
	s.mu.Lock()
	old, existed := s.byID[siteID]
	if existed && old.score == score && old.grade == grade {
		s.mu.Unlock()
		return false, nil
	}
	if existed {
		s.root = deleteNode(s.root, siteID, old.score)
		s.dropScore(old.score)
	}
	s.byID[siteID] = record{score: score, grade: grade}
	s.root = insert(s.root, siteID, score)
	s.perScore[score]++
	count := len(s.byID)
	s.mu.Unlock()

	if !existed {
		metrics.UpdateRankedSites(count)
	}
	return true, nil
}

// dropScore must be called with s.mu held.
func (s *TreapStore) dropScore(score int) {
	if s.perScore[score] <= 1 {
		delete(s.perScore, score)
		return
	}
	s.perScore[score]--
}

// Rank returns the site's dense rank: 1 + the number of distinct higher scores.
func (s *TreapStore) Rank(_ context.Context, siteID string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[siteID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}

	rank := 1
	for score := range s.perScore {
		if score > rec.score {
			rank++
		}
	}
	return Entry{Rank: rank, SiteID: siteID, Score: rec.score, Grade: rec.grade}, nil
}

// TopN returns the top N entries ordered by score desc.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, s.byID, &out)
	assignRanksWithTies(out)
	return out, nil
}

// Count returns the total number of ranked sites.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// assignRanksWithTies gives equal scores the same rank and the next distinct
// score the next consecutive rank. entries must be in rank order starting
// from the top.
func assignRanksWithTies(entries []Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Score != entries[i-1].Score {
			rank++
		}
		entries[i].Rank = rank
	}
}
