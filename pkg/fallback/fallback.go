// Package fallback runs an ordered list of interchangeable strategies until one succeeds.
package fallback

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoStrategies is returned by Run when the chain is empty.
var ErrNoStrategies = errors.New("no strategies configured")

// Strategy is one provider or model in a chain.
type Strategy[I, O any] interface {
	Name() string
	Attempt(ctx context.Context, in I) (O, error)
}

// Func adapts a plain function into a Strategy.
type Func[I, O any] struct {
	Label string
	Fn    func(ctx context.Context, in I) (O, error)
}

func (f Func[I, O]) Name() string { return f.Label }

func (f Func[I, O]) Attempt(ctx context.Context, in I) (O, error) { return f.Fn(ctx, in) }

// Observer is told about every failed attempt.
type Observer func(name string, err error)

// Result reports which strategy produced the output.
type Result[O any] struct {
	Value    O
	Strategy string
	Attempts int
}

// Run attempts each strategy in order and returns the first success. Strategies after the winner
// are never attempted. When every strategy fails, the error of the last attempt is returned alone.
// A cancelled context stops the chain before the next attempt.
func Run[I, O any](ctx context.Context, chain []Strategy[I, O], in I, observe Observer) (Result[O], error) {
	var res Result[O]
	if len(chain) == 0 {
		return res, ErrNoStrategies
	}

	var lastErr error
	for _, s := range chain {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				return res, err
			}
			return res, fmt.Errorf("%w (last error: %v)", err, lastErr)
		}

		res.Attempts++
		out, err := s.Attempt(ctx, in)
		if err == nil {
			res.Value = out
			res.Strategy = s.Name()
			return res, nil
		}
		lastErr = err
		if observe != nil {
			observe(s.Name(), err)
		}
	}
	return res, lastErr
}
