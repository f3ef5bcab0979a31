package loan

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"underwriting-engine/internal/pkg/apperrors"
)

const (
	DefaultIDMin         int64 = 1000
	DefaultIDMax         int64 = 10000
	DefaultIDMaxAttempts       = 32
)

// ErrIDSpaceExhausted is retryable: loans settle and IDs free up.
var ErrIDSpaceExhausted = fmt.Errorf("%w: no unused loan id found within the attempt budget", apperrors.ErrUnavailable)

type IDExistsFunc func(ctx context.Context, loanID int64) (bool, error)

// IDGenerator draws loan IDs uniformly from [min, max] and rejects IDs that
// are already taken. It gives up after maxAttempts draws.
type IDGenerator struct {
	min, max    int64
	maxAttempts int
	exists      IDExistsFunc
	draw        func(n int64) int64
	logger      *slog.Logger
}

func NewIDGenerator(exists IDExistsFunc, min, max int64, maxAttempts int, logger *slog.Logger) (*IDGenerator, error) {
	if exists == nil {
		return nil, fmt.Errorf("%w: id existence check cannot be nil", apperrors.ErrInvalidArgument)
	}
	if min <= 0 || max < min {
		return nil, fmt.Errorf("%w: invalid loan id range [%d, %d]", apperrors.ErrInvalidArgument, min, max)
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultIDMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IDGenerator{
		min:         min,
		max:         max,
		maxAttempts: maxAttempts,
		exists:      exists,
		draw:        rand.Int63n,
		logger:      logger.With("component", "LoanIDGenerator"),
	}, nil
}

// WithSource replaces the random source; n is the exclusive upper bound of
// the draw.
func (g *IDGenerator) WithSource(draw func(n int64) int64) *IDGenerator {
	g.draw = draw
	return g
}

func (g *IDGenerator) MaxAttempts() int {
	return g.maxAttempts
}

// Next returns an ID not currently present in the loan store.
func (g *IDGenerator) Next(ctx context.Context) (int64, error) {
	span := g.max - g.min + 1
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		candidate := g.min + g.draw(span)
		taken, err := g.exists(ctx, candidate)
		if err != nil {
			return 0, fmt.Errorf("failed to check loan id %d: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		g.logger.DebugContext(ctx, "Loan id collision, drawing again", slog.Int64("candidate", candidate), slog.Int("attempt", attempt))
	}
	g.logger.ErrorContext(ctx, "Loan id space exhausted", slog.Int("attempts", g.maxAttempts), slog.Int64("min", g.min), slog.Int64("max", g.max))
	return 0, fmt.Errorf("%w: %d attempts over [%d, %d]", ErrIDSpaceExhausted, g.maxAttempts, g.min, g.max)
}
