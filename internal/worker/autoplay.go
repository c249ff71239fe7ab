// Package worker advances stored saves in the background.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"studiosim/internal/game"
	"studiosim/internal/random"
	"studiosim/internal/store"
)

// Autoplay advances every save in a store by one week per pass.
type Autoplay struct {
	store store.Store
	seed  int64
	log   *slog.Logger
}

// NewAutoplay takes the base seed; each save is reseeded per week from it,
// and a zero seed draws fresh randomness every pass.
func NewAutoplay(st store.Store, seed int64, logger *slog.Logger) *Autoplay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Autoplay{store: st, seed: seed, log: logger}
}

// RunOnce steps each save once. A broken save is logged and skipped; the
// returned error joins every failure.
func (a *Autoplay) RunOnce(ctx context.Context) (int, error) {
	names, err := a.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list saves: %w", err)
	}
	advanced := 0
	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return advanced, err
		}
		if err := a.advance(ctx, name); err != nil {
			a.log.Error("autoplay failed", "save", name, "err", err)
			errs = append(errs, err)
			continue
		}
		advanced++
	}
	return advanced, errors.Join(errs...)
}

func (a *Autoplay) advance(ctx context.Context, name string) error {
	log := a.log.With("save", name)
	sim, err := game.LoadGame(ctx, a.store, name, game.DecodeOptions{}, nil, log)
	if err != nil {
		return err
	}
	seed, err := random.ForTick(a.seed, sim.WeekIndex())
	if err != nil {
		return err
	}
	sim.Reseed(game.NewRand(seed))
	report := sim.RunStep()
	if err := game.SaveGame(ctx, a.store, name, sim); err != nil {
		return err
	}
	log.Info("save advanced", "week", sim.Week, "year", sim.Year, "cash", sim.Studio.Cash, "releases", len(report.Releases))
	return nil
}
