package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"naval-combat/internal/config"
	"naval-combat/internal/constants"
	"naval-combat/internal/domain"
)

// TimeoutSweeper periodically applies expired turns to live AI matches, so a
// human who walks away still loses after four timeouts. Human-vs-human
// matches are only checked lazily by the next request. It also settles
// finished matches whose profile update failed.
type TimeoutSweeper struct {
	svc      *MatchService
	interval time.Duration
	logger   zerolog.Logger
}

func NewTimeoutSweeper(svc *MatchService, cfg *config.Config, logger zerolog.Logger) *TimeoutSweeper {
	return &TimeoutSweeper{svc: svc, interval: cfg.SweepInterval, logger: logger}
}

// Run sweeps on every tick until ctx is canceled.
func (w *TimeoutSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().Dur("interval", w.interval).Msg("timeout sweeper started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("timeout sweeper stopped")
			return
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error().Err(err).Msg("timeout sweep failed")
			}
		}
	}
}

// Sweep checks every active AI match once and returns how many turns were
// charged. Failures on single matches are logged and do not stop the sweep.
// Finished matches whose settlement failed are retried afterwards.
func (w *TimeoutSweeper) Sweep(ctx context.Context) (int, error) {
	n, err := w.chargeTimeouts(ctx)
	if err != nil {
		return n, err
	}
	if err := w.retrySettlements(ctx); err != nil {
		return n, err
	}
	return n, nil
}

func (w *TimeoutSweeper) chargeTimeouts(ctx context.Context) (int, error) {
	listCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	ids, err := w.svc.matches.ListActiveAIMatchIDs(listCtx)
	cancel()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	charged := make([]bool, len(ids))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(constants.SweepConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			out, err := w.svc.CheckTurnTimeout(gCtx, id)
			if err != nil && !errors.Is(err, domain.ErrMatchNotFound) {
				w.logger.Warn().Err(err).Str("match_id", id.String()).Msg("timeout check failed")
			}
			charged[i] = out.Charged
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	n := 0
	for _, c := range charged {
		if c {
			n++
		}
	}
	if n > 0 {
		w.logger.Info().Int("matches", len(ids)).Int("charged", n).Msg("sweep charged timeouts")
	}
	return n, nil
}

func (w *TimeoutSweeper) retrySettlements(ctx context.Context) error {
	listCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	ids, err := w.svc.matches.ListUnsettledMatchIDs(listCtx)
	cancel()
	if err != nil {
		return err
	}

	settled := 0
	for _, id := range ids {
		ok, err := w.svc.SettleMatch(ctx, id)
		if err != nil {
			w.logger.Warn().Err(err).Str("match_id", id.String()).Msg("settlement retry failed")
			continue
		}
		if ok {
			settled++
		}
	}
	if settled > 0 {
		w.logger.Info().Int("pending", len(ids)).Int("settled", settled).Msg("sweep settled matches")
	}
	return nil
}
