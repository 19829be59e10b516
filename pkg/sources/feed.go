package sources

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/sudorandom/dc-globe/pkg/globe"
	"github.com/sudorandom/dc-globe/pkg/logging"
	"github.com/sudorandom/dc-globe/pkg/utils"
)

// SnapshotKey is where the last good facility list is stored.
const SnapshotKey = "facilities"

type Fetcher interface {
	Fetch(ctx context.Context) ([]globe.Facility, error)
}

type Snapshots interface {
	Save(key string, v any, savedAt time.Time) error
	Load(key string, v any) (time.Time, error)
}

// Feed fetches facilities, keeps the snapshot current and delivers each
// dataset to the render loop. When the first fetch fails the last snapshot
// is delivered instead.
type Feed struct {
	Source    Fetcher
	Snapshots Snapshots // optional
	Interval  time.Duration

	log zerolog.Logger
}

func NewFeed(src Fetcher, snapshots Snapshots, interval time.Duration) *Feed {
	return &Feed{Source: src, Snapshots: snapshots, Interval: interval, log: logging.Component("feed")}
}

// Once fetches a single dataset, falling back to the snapshot on failure.
// The bool reports whether the data came from the snapshot.
func (f *Feed) Once(ctx context.Context) ([]globe.Facility, bool, error) {
	facilities, err := f.Source.Fetch(ctx)
	if err == nil {
		f.save(facilities)
		return facilities, false, nil
	}
	if f.Snapshots == nil {
		return nil, false, err
	}

	var cached []globe.Facility
	savedAt, serr := f.Snapshots.Load(SnapshotKey, &cached)
	if serr != nil {
		if !errors.Is(serr, utils.ErrNoSnapshot) {
			f.log.Warn().Err(serr).Msg("Failed to read snapshot")
		}
		return nil, false, err
	}
	f.log.Warn().Err(err).Time("saved_at", savedAt).Int("facilities", len(cached)).Msg("Fetch failed, using snapshot")
	return cached, true, nil
}

func (f *Feed) save(facilities []globe.Facility) {
	if f.Snapshots == nil {
		return
	}
	if err := f.Snapshots.Save(SnapshotKey, facilities, time.Now()); err != nil {
		f.log.Warn().Err(err).Msg("Failed to save snapshot")
	}
}

// Run delivers datasets to out until ctx is done. Only the newest
// undelivered dataset is kept, so a slow consumer never blocks the feed.
// out must have a buffer of at least one and Run must be its only sender.
// With no interval Run returns after the first attempt.
func (f *Feed) Run(ctx context.Context, out chan []globe.Facility) {
	delivered := false
	attempt := func() {
		var (
			facilities []globe.Facility
			err        error
		)
		if delivered {
			facilities, err = f.Source.Fetch(ctx)
			if err == nil {
				f.save(facilities)
			}
		} else {
			facilities, _, err = f.Once(ctx)
		}
		if err != nil {
			if ctx.Err() == nil {
				f.log.Error().Err(err).Msg("Facility fetch failed")
			}
			return
		}
		deliver(out, facilities)
		delivered = true
	}

	attempt()
	if f.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(f.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			attempt()
		}
	}
}

func deliver[T any](out chan T, v T) {
	select {
	case out <- v:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	out <- v
}
