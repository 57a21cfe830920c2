package repository

import (
	"context"
	"hash/fnv"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pitchrecord/internal/domain/model"
	"github.com/okian/pitchrecord/internal/domain/types"
	"github.com/okian/pitchrecord/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Each (season, stat) pair has its own board. Ordering: count DESC, then
// pitcherID ASC. "less" means ranks earlier, so in-order traversal yields
// the leaderboard from best to worst.

// Snapshot is an immutable copy of every season's decision lines.
type Snapshot struct {
	Lines map[string][]types.Line // by season, sorted by pitcher id
	Taken time.Time
}

type boardKey struct {
	season string
	stat   string
}

type board struct {
	root   *node
	counts map[string]int
}

// treap node
type node struct {
	id    string
	count int
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

// less returns true if (aCount, aID) should appear before (bCount, bID).
func less(aCount int, aID string, bCount int, bID string) bool {
	if aCount != bCount {
		return aCount > bCount
	}
	return aID < bID
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

// priority hashes the pitcher id so the tree shape is stable across runs.
func priority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func insert(n *node, id string, count int) *node {
	if n == nil {
		return &node{id: id, count: count, prio: priority(id), size: 1}
	}
	if less(count, id, n.count, n.id) {
		n.left = insert(n.left, id, count)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, count)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, count int) *node {
	if n == nil {
		return nil
	}
	if count == n.count && id == n.id {
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, count)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, count)
		}
	} else if less(count, id, n.count, n.id) {
		n.left = deleteNode(n.left, id, count)
	} else {
		n.right = deleteNode(n.right, id, count)
	}
	fix(n)
	return n
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, out *[]types.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, types.Entry{PitcherID: n.id, Count: n.count})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// collectAll appends all entries in rank order.
func collectAll(n *node, out *[]types.Entry) {
	if n == nil {
		return
	}
	collectAll(n.left, out)
	*out = append(*out, types.Entry{PitcherID: n.id, Count: n.count})
	collectAll(n.right, out)
}

// assignRanksWithTies assigns dense ranks: equal counts share a rank and the
// next distinct count takes the following rank.
func assignRanksWithTies(entries []types.Entry) {
	currentRank := 0
	for i := range entries {
		if i == 0 || entries[i].Count != entries[i-1].Count {
			currentRank++
		}
		entries[i].Rank = currentRank
	}
}

// TreapStore keeps one treap per (season, stat).
type TreapStore struct {
	mu               sync.RWMutex
	boards           map[boardKey]*board
	rows             int
	snapshotInterval time.Duration

	snapshot atomic.Pointer[Snapshot]

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewTreapStore constructs a treap store. A background goroutine rebuilds the
// snapshot every interval until ctx is done or Close is called.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		boards:           make(map[boardKey]*board),
		snapshotInterval: time.Second,
		stopChan:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.snapshot.Store(&Snapshot{Lines: map[string][]types.Line{}, Taken: time.Now()})
	metrics.UpdateStandingsRecords(0)
	if s.snapshotInterval > 0 {
		s.startPeriodicSnapshots(ctx)
	}
	return s
}

func (s *TreapStore) startPeriodicSnapshots(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.snapshotInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Publish()
			}
		}
	}()
}

// Close stops the background snapshot goroutine.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func validStat(stat string) bool { return slices.Contains(model.Stats, stat) }

// Add implements Store.Add in O(log n) expected time.
func (s *TreapStore) Add(ctx context.Context, season, stat, pitcherID string, delta int) (int, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStandingsUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if !validStat(stat) {
		metrics.RecordErrorByComponent("repository", "unknown_stat")
		return 0, ErrUnknownStat
	}

	s.mu.Lock()
	key := boardKey{season: season, stat: stat}
	b, ok := s.boards[key]
	if !ok {
		b = &board{counts: make(map[string]int)}
		s.boards[key] = b
	}
	old, had := b.counts[pitcherID]
	next := old + delta
	if had {
		b.root = deleteNode(b.root, pitcherID, old)
	}
	if next > 0 {
		b.counts[pitcherID] = next
		b.root = insert(b.root, pitcherID, next)
	} else {
		delete(b.counts, pitcherID)
		next = 0
	}
	switch {
	case !had && next > 0:
		s.rows++
	case had && next == 0:
		s.rows--
	}
	if len(b.counts) == 0 {
		delete(s.boards, key)
	}
	rows := s.rows
	s.mu.Unlock()

	metrics.UpdateStandingsRecords(rows)
	return next, nil
}

// Rank returns the pitcher's dense rank on a board.
func (s *TreapStore) Rank(ctx context.Context, season, stat, pitcherID string) (types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStandingsQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if !validStat(stat) {
		return types.Entry{}, ErrUnknownStat
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[boardKey{season: season, stat: stat}]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, ErrNotFound
	}
	if _, ok := b.counts[pitcherID]; !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, ErrNotFound
	}

	all := make([]types.Entry, 0, len(b.counts))
	collectAll(b.root, &all)
	assignRanksWithTies(all)
	for _, e := range all {
		if e.PitcherID == pitcherID {
			return e, nil
		}
	}
	return types.Entry{}, ErrNotFound
}

// TopN returns the first n entries of a board. Ties at the cut are not extended.
func (s *TreapStore) TopN(ctx context.Context, season, stat string, n int) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStandingsQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	if !validStat(stat) {
		return nil, ErrUnknownStat
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[boardKey{season: season, stat: stat}]
	if !ok {
		return []types.Entry{}, nil
	}
	out := make([]types.Entry, 0, min(n, len(b.counts)))
	collectTopN(b.root, n, &out)
	assignRanksWithTies(out)
	return out, nil
}

// Line returns the pitcher's season line. A pitcher with no decisions gets ErrNotFound.
func (s *TreapStore) Line(ctx context.Context, season, pitcherID string) (types.Line, error) {
	s.mu.RLock()
	line := s.lineLocked(season, pitcherID)
	s.mu.RUnlock()
	if line.Decisions() == 0 {
		return line, ErrNotFound
	}
	return line, nil
}

func (s *TreapStore) lineLocked(season, pitcherID string) types.Line {
	get := func(stat string) int {
		if b, ok := s.boards[boardKey{season: season, stat: stat}]; ok {
			return b.counts[pitcherID]
		}
		return 0
	}
	return types.Line{
		Season:    season,
		PitcherID: pitcherID,
		Wins:      get(model.StatWin),
		Losses:    get(model.StatLoss),
		Saves:     get(model.StatSave),
		Holds:     get(model.StatHold),
	}
}

// Seasons lists seasons with at least one row, in league order.
func (s *TreapStore) Seasons(ctx context.Context) []string {
	s.mu.RLock()
	seen := make(map[string]bool)
	for k := range s.boards {
		seen[k.season] = true
	}
	s.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for season := range seen {
		out = append(out, season)
	}
	sortSeasons(out)
	return out
}

// Count returns the number of rows across all boards.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows
}

// Snapshot returns the last published lines for a season.
func (s *TreapStore) Snapshot(season string) []types.Line {
	return s.snapshot.Load().Lines[season]
}

// SnapshotTaken reports when the current snapshot was built.
func (s *TreapStore) SnapshotTaken() time.Time {
	return s.snapshot.Load().Taken
}

// Publish rebuilds and publishes the snapshot.
func (s *TreapStore) Publish() {
	start := time.Now()

	s.mu.RLock()
	pitchers := make(map[string]map[string]bool)
	for k, b := range s.boards {
		ids, ok := pitchers[k.season]
		if !ok {
			ids = make(map[string]bool)
			pitchers[k.season] = ids
		}
		for id := range b.counts {
			ids[id] = true
		}
	}
	lines := make(map[string][]types.Line, len(pitchers))
	for season, ids := range pitchers {
		ls := make([]types.Line, 0, len(ids))
		for id := range ids {
			ls = append(ls, s.lineLocked(season, id))
		}
		sort.Slice(ls, func(i, j int) bool { return ls[i].PitcherID < ls[j].PitcherID })
		lines[season] = ls
	}
	s.mu.RUnlock()

	now := time.Now()
	s.snapshot.Store(&Snapshot{Lines: lines, Taken: now})
	metrics.RecordStandingsSnapshot(float64(time.Since(start).Microseconds())/1000, now.Unix())
}

// sortSeasons orders season ids by their era number, then lexically.
func sortSeasons(seasons []string) {
	sort.Slice(seasons, func(i, j int) bool {
		a, b := model.EraFromSeason(seasons[i]), model.EraFromSeason(seasons[j])
		if a != b {
			return a < b
		}
		return seasons[i] < seasons[j]
	})
}
