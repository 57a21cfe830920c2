// Package service wires the game pipeline and implements the dependencies
// required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/okian/pitchrecord/internal/adapters/gamelog"
	"github.com/okian/pitchrecord/internal/adapters/ledger"
	"github.com/okian/pitchrecord/internal/adapters/mq/queue"
	"github.com/okian/pitchrecord/internal/adapters/mq/worker"
	"github.com/okian/pitchrecord/internal/adapters/repository"
	"github.com/okian/pitchrecord/internal/domain/corrections"
	"github.com/okian/pitchrecord/internal/domain/decision"
	"github.com/okian/pitchrecord/internal/domain/dedupe"
	"github.com/okian/pitchrecord/internal/domain/model"
	"github.com/okian/pitchrecord/internal/domain/reconstruct"
	"github.com/okian/pitchrecord/internal/domain/review"
	"github.com/okian/pitchrecord/internal/domain/types"
	"github.com/okian/pitchrecord/pkg/logger"
	"github.com/okian/pitchrecord/pkg/metrics"
)

const stopTimeout = 30 * time.Second

// GameResult is what the service knows about one processed game.
type GameResult struct {
	Key         model.GameKey     `json:"game"`
	Regular     bool              `json:"regular"`
	Status      string            `json:"status"`
	Decision    model.Decision    `json:"decision"`
	Home        string            `json:"home,omitempty"`
	Away        string            `json:"away,omitempty"`
	HomeScore   int               `json:"home_score"`
	AwayScore   int               `json:"away_score"`
	OutDrift    int               `json:"out_drift"`
	Gaps        []reconstruct.Gap `json:"gaps,omitempty"`
	Corrections []string          `json:"corrections,omitempty"`
	Flags       []review.Flag     `json:"flags,omitempty"`
	Error       string            `json:"error,omitempty"`
	// Trace is filled only by Trace callers.
	Trace []reconstruct.Step `json:"trace,omitempty"`
}

// Summary describes one ProcessSeason batch.
type Summary struct {
	Season     string        `json:"season"`
	Games      int           `json:"games"`
	Duplicates int           `json:"duplicates"`
	Decided    int           `json:"decided"`
	Tied       int           `json:"tied"`
	Invalid    int           `json:"invalid"`
	Flagged    int           `json:"flagged"`
	Duration   time.Duration `json:"duration_ns"`
}

// Service runs games through the queue and worker pool and serves the results.
type Service struct {
	mu sync.RWMutex

	// Core components
	standings   *repository.TreapStore
	deduper     dedupe.Deduper
	queue       *queue.InMemoryQueue
	pool        *worker.Pool
	attributor  *decision.Attributor
	corrections *corrections.Registry
	review      *review.List
	ledger      *ledger.Ledger
	run         ledger.Run

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	includePlayoffs bool
	ledgerPath      string

	// Processed games, guarded by resMu.
	resMu     sync.Mutex
	results   map[model.GameKey]GameResult
	corrected map[model.GameKey][]string
	traces    map[model.GameKey][]reconstruct.Step
	flagged   int

	started bool
	logger  logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   4096,
		dedupeSize:  100_000,
		attributor:  decision.New(),
		corrections: corrections.Default(),
		review:      review.New(),
		results:     make(map[model.GameKey]GameResult),
		corrected:   make(map[model.GameKey][]string),
		traces:      make(map[model.GameKey][]reconstruct.Step),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if s.ledgerPath != "" {
		l, err := ledger.Open(s.ledgerPath)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		run, err := l.BeginRun(ctx)
		if err != nil {
			_ = l.Close()
			return fmt.Errorf("begin run: %w", err)
		}
		s.ledger, s.run = l, run
		s.logger.Info(ctx, "ledger run started", logger.String("run_id", run.ID), logger.String("path", s.ledgerPath))
	}

	s.standings = repository.NewTreapStore(ctx)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.attributor, worker.SinkFunc(s.handle))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Bool("include_playoffs", s.includePlayoffs),
		logger.Bool("corrections", s.corrections != nil),
	)
	return nil
}

// Stop drains the queue and shuts down the service. Read methods keep working.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.standings.Publish()
	_ = s.standings.Close()

	if s.ledger != nil {
		s.resMu.Lock()
		games, flagged := len(s.results), s.flagged
		s.resMu.Unlock()
		if err := s.ledger.FinishRun(ctx, s.run.ID, games, flagged); err != nil {
			s.logger.Error(ctx, "finish ledger run", logger.Error(err))
		}
		if err := s.ledger.Close(); err != nil {
			s.logger.Error(ctx, "close ledger", logger.Error(err))
		}
		s.ledger = nil
	}

	s.started = false
	s.logger.Info(ctx, "service stopped")
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// ProcessSeason decides every game in plays and waits for the batch to finish.
// Games already seen by this service are skipped.
func (s *Service) ProcessSeason(ctx context.Context, season gamelog.Season, plays []model.PlateAppearance) (Summary, error) {
	if !s.isStarted() {
		return Summary{}, ErrNotStarted
	}
	start := time.Now()
	sum := Summary{Season: season.Season}

	var (
		wg   sync.WaitGroup
		keys []model.GameKey
		err  error
	)
	for _, g := range gamelog.GroupGames(plays) {
		if s.deduper.SeenAndRecord(ctx, g.Key) {
			sum.Duplicates++
			metrics.RecordGameDuplicate()
			s.logger.Debug(ctx, "duplicate game skipped", logger.String("game", g.Key.String()))
			continue
		}
		era := g.Era
		if era == 0 {
			era = season.Era
		}
		if era == 0 {
			era = model.EraFromSeason(season.Season)
		}
		regular := s.includePlayoffs || gamelog.IsRegularSeason(g.Session, season.RegularSeasonGames)

		wg.Add(1)
		job := queue.GameJob{Key: g.Key, Era: era, Regular: regular, Plays: s.correct(ctx, g.Key, g.Plays), OnDone: wg.Done}
		if perr := s.queue.Put(ctx, job); perr != nil {
			wg.Done()
			s.deduper.Forget(ctx, g.Key)
			err = fmt.Errorf("queue game %s: %w", g.Key, perr)
			break
		}
		keys = append(keys, g.Key)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return sum, fmt.Errorf("season %s: %w", season.Season, ctx.Err())
	}
	s.standings.Publish()

	s.resMu.Lock()
	for _, k := range keys {
		r, ok := s.results[k]
		if !ok {
			continue
		}
		sum.Games++
		switch r.Status {
		case model.Decided.String():
			sum.Decided++
		case model.Tied.String():
			sum.Tied++
		default:
			sum.Invalid++
		}
		if len(r.Flags) > 0 {
			sum.Flagged++
		}
	}
	s.resMu.Unlock()
	sum.Duration = time.Since(start)

	s.logger.Info(ctx, "season processed",
		logger.String("season", sum.Season),
		logger.Int("games", sum.Games),
		logger.Int("duplicates", sum.Duplicates),
		logger.Int("flagged", sum.Flagged),
		logger.Duration("took", sum.Duration),
	)
	return sum, err
}

// ProcessManifest loads and processes every season in m, in manifest order.
func (s *Service) ProcessManifest(ctx context.Context, m *gamelog.Manifest) ([]Summary, error) {
	out := make([]Summary, 0, len(m.Seasons))
	for _, season := range m.Seasons {
		plays, err := m.Load(season)
		if err != nil {
			return out, err
		}
		sum, err := s.ProcessSeason(ctx, season, plays)
		out = append(out, sum)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// Submit queues one game without waiting. It reports duplicate when the game
// key was already processed; that is not an error.
func (s *Service) Submit(ctx context.Context, key model.GameKey, era int, plays []model.PlateAppearance) (duplicate bool, err error) {
	if !s.isStarted() {
		return false, ErrNotStarted
	}
	if len(plays) == 0 {
		return false, ErrEmptyGame
	}
	if era <= 0 {
		era = model.EraFromSeason(key.Season)
	}

	normalized := make([]model.PlateAppearance, len(plays))
	for i, p := range plays {
		p.Season, p.GameID, p.Seq = key.Season, key.GameID, i
		if p.Era == 0 {
			p.Era = era
		}
		normalized[i] = p
	}

	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordGameDuplicate()
		return true, nil
	}
	job := queue.GameJob{
		Key:     key,
		Era:     era,
		Regular: true,
		Plays:   s.correct(ctx, key, normalized),
		OnDone:  s.standings.Publish,
	}
	if !s.queue.Enqueue(ctx, job) {
		s.deduper.Forget(ctx, key)
		return false, ErrBackpressure
	}
	return false, nil
}

func (s *Service) correct(ctx context.Context, key model.GameKey, plays []model.PlateAppearance) []model.PlateAppearance {
	if s.corrections == nil {
		return plays
	}
	out, applied := s.corrections.Apply(key, plays)
	if len(applied) > 0 {
		metrics.RecordCorrectionsApplied(len(applied))
		s.logger.Debug(ctx, "log corrections applied", logger.String("game", key.String()), logger.Strings("corrections", applied))
		s.resMu.Lock()
		s.corrected[key] = applied
		s.resMu.Unlock()
	}
	return out
}

// handle is the worker sink. It runs concurrently on every worker.
func (s *Service) handle(ctx context.Context, o worker.GameOutcome) error {
	key := o.Job.Key
	res := GameResult{Key: key, Regular: o.Job.Regular, Status: o.Decision.Status.String(), Decision: o.Decision}
	if o.Err != nil {
		res.Error = o.Err.Error()
	}

	if g := o.Game; g != nil {
		res.Home, res.Away = g.Home, g.Away
		res.HomeScore, res.AwayScore = g.HomeScore, g.AwayScore
		res.OutDrift, res.Gaps = g.OutDrift, g.Gaps

		for _, st := range g.Steps {
			metrics.RecordPlayRule(st.Rule)
		}
		for _, gap := range g.Gaps {
			metrics.RecordCoverageGap(strconv.Itoa(gap.Era), gap.Code)
		}
		if len(g.Gaps) > 0 {
			s.logger.Warn(ctx, "plays not covered by any rule",
				logger.String("game", key.String()),
				logger.Int("gaps", len(g.Gaps)),
				logger.String("first_code", g.Gaps[0].Code),
			)
		}
		if g.OutDrift > 0 {
			metrics.RecordOutDrift(g.OutDrift)
			s.logger.Debug(ctx, "logged outs disagree with replay", logger.String("game", key.String()), logger.Int("plays", g.OutDrift))
		}
	}
	metrics.RecordGameProcessed(res.Status)

	res.Flags = review.Check(key, o.Decision, o.Err, len(res.Gaps))
	s.review.Add(res.Flags...)
	for _, f := range res.Flags {
		metrics.RecordReviewFlag(string(f.Reason))
	}

	if o.Err == nil {
		for _, a := range o.Decision.Awards() {
			metrics.RecordDecisionAwarded(a[0])
			if !o.Job.Regular {
				continue
			}
			if _, err := s.standings.Add(ctx, key.Season, a[0], a[1], 1); err != nil {
				return fmt.Errorf("standings %s %s: %w", key, a[0], err)
			}
		}
	}

	s.resMu.Lock()
	res.Corrections = s.corrected[key]
	delete(s.corrected, key)
	s.results[key] = res
	if o.Game != nil {
		s.traces[key] = o.Game.Steps
	}
	if len(res.Flags) > 0 {
		s.flagged++
	}
	s.resMu.Unlock()

	if s.ledger == nil {
		return nil
	}
	if err := s.ledger.RecordGame(ctx, s.run.ID, ledger.GameRecord{Key: key, Decision: o.Decision, Game: o.Game, Err: o.Err}); err != nil {
		return err
	}
	for _, f := range res.Flags {
		if err := s.ledger.RecordFlag(ctx, s.run.ID, f); err != nil {
			return err
		}
	}
	return nil
}

// Game returns a processed game, falling back to the ledger for games from earlier runs.
func (s *Service) Game(ctx context.Context, key model.GameKey) (GameResult, error) {
	s.resMu.Lock()
	r, ok := s.results[key]
	s.resMu.Unlock()
	if ok {
		return r, nil
	}

	s.mu.RLock()
	l := s.ledger
	s.mu.RUnlock()
	if l == nil {
		return GameResult{}, fmt.Errorf("%w: game %s", ErrNotFound, key)
	}
	sd, err := l.GameDecision(ctx, key)
	if errors.Is(err, ledger.ErrNotFound) {
		return GameResult{}, fmt.Errorf("%w: game %s", ErrNotFound, key)
	}
	if err != nil {
		return GameResult{}, err
	}
	gaps, err := l.Gaps(ctx, sd.RunID, key)
	if err != nil {
		return GameResult{}, err
	}
	return GameResult{
		Key:       key,
		Status:    sd.Decision.Status.String(),
		Decision:  sd.Decision,
		Home:      sd.Home,
		Away:      sd.Away,
		HomeScore: sd.HomeScore,
		AwayScore: sd.AwayScore,
		OutDrift:  sd.OutDrift,
		Gaps:      gaps,
		Error:     sd.Error,
	}, nil
}

// Trace returns a game processed by this run together with its play-by-play
// replay. Games known only from the ledger have no trace.
func (s *Service) Trace(ctx context.Context, key model.GameKey) (GameResult, error) {
	s.resMu.Lock()
	r, ok := s.results[key]
	steps, traced := s.traces[key]
	s.resMu.Unlock()
	if !ok || !traced {
		return GameResult{}, fmt.Errorf("%w: trace %s", ErrNotFound, key)
	}
	r.Trace = steps
	return r, nil
}

// Games returns the processed games of a season in game order.
func (s *Service) Games(season string) []GameResult {
	s.resMu.Lock()
	var out []GameResult
	for k, r := range s.results {
		if k.Season == season {
			out = append(out, r)
		}
	}
	s.resMu.Unlock()
	sort.Slice(out, func(i, j int) bool { return review.Less(out[i].Key, out[j].Key) })
	return out
}

// Review returns flagged games, filtered by reason when any are given.
func (s *Service) Review(reasons ...review.Reason) []review.Flag {
	if len(reasons) == 0 {
		return s.review.Flags()
	}
	return s.review.Reasons(reasons...)
}

// TopN returns the top n pitchers for a season and stat.
func (s *Service) TopN(ctx context.Context, season, stat string, n int) ([]types.Entry, error) {
	st, err := s.store()
	if err != nil {
		return nil, err
	}
	return st.TopN(ctx, season, stat, n)
}

// Rank returns a pitcher's rank for a season and stat.
func (s *Service) Rank(ctx context.Context, season, stat, pitcherID string) (types.Entry, error) {
	st, err := s.store()
	if err != nil {
		return types.Entry{}, err
	}
	return st.Rank(ctx, season, stat, pitcherID)
}

// Line returns a pitcher's decision line for a season.
func (s *Service) Line(ctx context.Context, season, pitcherID string) (types.Line, error) {
	st, err := s.store()
	if err != nil {
		return types.Line{}, err
	}
	return st.Line(ctx, season, pitcherID)
}

// Lines returns the last published decision lines for a season.
func (s *Service) Lines(season string) []types.Line {
	st, err := s.store()
	if err != nil {
		return nil
	}
	return st.Snapshot(season)
}

// Seasons lists seasons with standings rows.
func (s *Service) Seasons(ctx context.Context) []string {
	st, err := s.store()
	if err != nil {
		return nil
	}
	return st.Seasons(ctx)
}

func (s *Service) store() (*repository.TreapStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.standings == nil {
		return nil, ErrNotStarted
	}
	return s.standings, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	s.resMu.Lock()
	games, flagged := len(s.results), s.flagged
	s.resMu.Unlock()

	stats := map[string]any{
		"started":          s.started,
		"worker_count":     s.workerCount,
		"queue_size":       s.queueSize,
		"dedupe_size":      s.dedupeSize,
		"include_playoffs": s.includePlayoffs,
		"games_processed":  games,
		"games_flagged":    flagged,
		"corrections":      s.corrections.Len(),
	}
	if s.run.ID != "" {
		stats["run_id"] = s.run.ID
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		rows := s.standings.Count(ctx)
		stats["queue_length"] = queueLen
		stats["standings_rows"] = rows
		stats["seasons"] = s.standings.Seasons(ctx)
		stats["dedupe_entries"] = s.deduper.Size()
		stats["snapshot_taken"] = s.standings.SnapshotTaken().UTC().Format(time.RFC3339)

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStandingsRecords(rows)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateSystem(runtime.NumGoroutine(), mem.HeapAlloc)
	return stats
}
