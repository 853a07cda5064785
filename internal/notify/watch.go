package notify

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Watch loads an initial snapshot and hands it to fn, then reloads and calls
// fn again after every event until ctx is done. Events that arrive while a
// reload is pending are coalesced into one reload. A failed reload is logged
// and the previous snapshot stays current.
func Watch[T any](ctx context.Context, sub Subscriber, load func(context.Context) (T, error), fn func(T)) error {
	events, err := sub.Subscribe(ctx)
	if err != nil {
		return eris.Wrap(err, "notify: watch subscribe")
	}

	snap, err := load(ctx)
	if err != nil {
		return eris.Wrap(err, "notify: watch initial load")
	}
	fn(snap)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return nil
			}
			drained := drain(events)
			snap, err := load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				zap.L().Error("notify: watch reload failed",
					zap.String("kind", string(e.Kind)),
					zap.String("id", e.ID),
					zap.Error(err),
				)
				continue
			}
			zap.L().Debug("notify: snapshot reloaded",
				zap.String("kind", string(e.Kind)),
				zap.String("op", string(e.Op)),
				zap.Int("coalesced", drained),
			)
			fn(snap)
		}
	}
}

func drain(events <-chan Event) int {
	n := 0
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}
