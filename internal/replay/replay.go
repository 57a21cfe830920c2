package replay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pitchrecord/internal/adapters/gamelog"
	"github.com/okian/pitchrecord/pkg/logger"
)

const (
	defaultWorkers = 4
	defaultTimeout = 10 * time.Second
	defaultWait    = 30 * time.Second
	defaultTopN    = 10
	pollInterval   = 50 * time.Millisecond
)

// ErrInconsistent is returned when the server's standings disagree with each other.
var ErrInconsistent = errors.New("standings inconsistent")

// FromLog converts grouped log games into request bodies.
func FromLog(games []gamelog.Game) []Game {
	out := make([]Game, 0, len(games))
	for _, g := range games {
		body := Game{Season: g.Key.Season, GameID: g.Key.GameID, Era: g.Era, Plays: make([]Play, len(g.Plays))}
		for i, p := range g.Plays {
			body.Plays[i] = Play{
				Inning:       p.InningLabel,
				Session:      p.Session,
				BatterTeam:   p.BatterTeam,
				PitcherTeam:  p.PitcherTeam,
				HitterID:     p.HitterID,
				PitcherID:    p.PitcherID,
				OBC:          p.OBC.Code(),
				Outs:         p.Outs,
				ExactResult:  p.ExactResult,
				LegacyResult: p.LegacyResult,
				Diff:         p.Diff,
				PAType:       p.PAType,
			}
		}
		out = append(out, body)
	}
	return out
}

// Run posts games for one season, waits for the server to decide them and
// checks that its leaderboard, ranks and lines agree.
func Run(ctx context.Context, cfg Config, season string, games []Game) (Stats, error) {
	cfg = withDefaults(cfg)
	log := logger.Get().Named("replay")
	start := time.Now()
	stats := Stats{Games: len(games)}

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := c.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	posted := submitAll(ctx, c, cfg.Workers, games, &stats)
	log.Info(ctx, "games submitted",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
	)

	decided, err := waitDecided(ctx, c, cfg.Wait, posted)
	stats.Decided = decided
	if err != nil {
		return stats, err
	}

	leaders, err := c.leaderboard(ctx, season, cfg.TopN)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return stats, fmt.Errorf("leaderboard: %w", err)
	}
	stats.Leaders = leaders
	if stats.Verified, err = verify(ctx, c, season, leaders); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "replay verified",
		logger.String("season", season),
		logger.Int("decided", stats.Decided),
		logger.Int("verified", stats.Verified),
		logger.Duration("took", stats.Duration),
	)
	return stats, nil
}

func withDefaults(cfg Config) Config {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Wait <= 0 {
		cfg.Wait = defaultWait
	}
	if cfg.TopN <= 0 {
		cfg.TopN = defaultTopN
	}
	return cfg
}

// submitAll posts games from a pool of workers and returns the games the
// server holds afterwards.
func submitAll(ctx context.Context, c *client, workers int, games []Game, stats *Stats) []Game {
	var (
		accepted, duplicate, failed atomic.Int64
		mu                          sync.Mutex
		posted                      = make([]Game, 0, len(games))
		wg                          sync.WaitGroup
	)
	ch := make(chan Game, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range ch {
				dup, err := c.submit(ctx, g)
				switch {
				case err != nil:
					failed.Add(1)
					logger.Get().Named("replay").Warn(ctx, "submit failed",
						logger.String("game", g.Season+"/"+g.GameID), logger.Error(err))
					continue
				case dup:
					duplicate.Add(1)
				default:
					accepted.Add(1)
				}
				mu.Lock()
				posted = append(posted, g)
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(ch)
		for _, g := range games {
			select {
			case <-ctx.Done():
				return
			case ch <- g:
			}
		}
	}()
	wg.Wait()

	stats.Accepted = int(accepted.Load())
	stats.Duplicate = int(duplicate.Load())
	stats.Failed = int(failed.Load())
	return posted
}

// waitDecided polls until every game can be read back or the wait runs out.
func waitDecided(ctx context.Context, c *client, wait time.Duration, games []Game) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	decided := 0
	for _, g := range games {
		for {
			err := c.decided(ctx, g.Season, g.GameID)
			if err == nil {
				decided++
				break
			}
			if !errors.Is(err, ErrNotFound) {
				return decided, fmt.Errorf("game %s/%s: %w", g.Season, g.GameID, err)
			}
			select {
			case <-ctx.Done():
				return decided, fmt.Errorf("game %s/%s not decided: %w", g.Season, g.GameID, ctx.Err())
			case <-time.After(pollInterval):
			}
		}
	}
	return decided, nil
}

// verify checks the leaderboard is ordered and that each row matches the
// pitcher's rank and line.
func verify(ctx context.Context, c *client, season string, leaders []Entry) (int, error) {
	for i := 1; i < len(leaders); i++ {
		if leaders[i].Count > leaders[i-1].Count {
			return 0, fmt.Errorf("%w: row %d (%d) above row %d (%d)",
				ErrInconsistent, i-1, leaders[i-1].Count, i, leaders[i].Count)
		}
	}
	for n, e := range leaders {
		r, err := c.rank(ctx, season, e.PitcherID)
		if err != nil {
			return n, fmt.Errorf("rank %s: %w", e.PitcherID, err)
		}
		if r.Rank != e.Rank || r.Count != e.Count {
			return n, fmt.Errorf("%w: %s is #%d with %d on the board but #%d with %d by rank",
				ErrInconsistent, e.PitcherID, e.Rank, e.Count, r.Rank, r.Count)
		}
		l, err := c.line(ctx, season, e.PitcherID)
		if err != nil {
			return n, fmt.Errorf("line %s: %w", e.PitcherID, err)
		}
		if l.Wins != e.Count {
			return n, fmt.Errorf("%w: %s has %d wins on the board but %d on the line",
				ErrInconsistent, e.PitcherID, e.Count, l.Wins)
		}
	}
	return len(leaders), nil
}
