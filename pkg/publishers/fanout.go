package publishers

import (
	"context"
	"errors"
	"fmt"
)

// Fanout delivers each event to every publisher and joins the failures.
type Fanout struct {
	pubs []Publisher
	log  Logger
}

// NewFanout wraps pubs. A Fanout with no publishers is a no-op.
func NewFanout(pubs []Publisher, log Logger) *Fanout {
	return &Fanout{pubs: pubs, log: ensureLogger(log)}
}

// Len is the number of publishers.
func (f *Fanout) Len() int {
	if f == nil {
		return 0
	}
	return len(f.pubs)
}

// Publish attempts every publisher even when earlier ones fail.
func (f *Fanout) Publish(ctx context.Context, evt Event) error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, pub := range f.pubs {
		if err := pub.Publish(ctx, evt); err != nil {
			f.log.WarnObj("publisher failed", "publisher_error", map[string]any{
				"publisher": pub.ID(),
				"type":      pub.Type(),
				"event_id":  evt.ID,
				"error":     err.Error(),
			})
			errs = append(errs, fmt.Errorf("%s: %w", pub.ID(), err))
		}
	}
	return errors.Join(errs...)
}
