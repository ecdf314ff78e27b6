package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// BlockRange is an inclusive span of blocks fetched in one eth_getLogs call.
type BlockRange struct {
	From uint64
	To   uint64
}

// Blocks returns the number of blocks in the range.
func (b BlockRange) Blocks() uint64 {
	return b.To - b.From + 1
}

// SplitRange cuts [from, to] into consecutive batches of at most size blocks.
func SplitRange(from, to, size uint64) ([]BlockRange, error) {
	if size == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to block %d is before from block %d", to, from)
	}

	span := to - from
	count := span/size + 1
	batches := make([]BlockRange, 0, count)
	for i := uint64(0); i < count; i++ {
		start := from + i*size
		end := to
		if span-i*size >= size {
			end = start + size - 1
		}
		batches = append(batches, BlockRange{From: start, To: end})
	}
	return batches, nil
}

const maxRetryDelay = 30 * time.Second

// retryPolicy retries node calls with doubling delays capped at maxRetryDelay.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	logger     *zap.Logger
}

func newRetryPolicy(maxRetries int, baseDelay time.Duration, logger *zap.Logger) retryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return retryPolicy{maxRetries: maxRetries, baseDelay: baseDelay, logger: logger}
}

func (p retryPolicy) do(ctx context.Context, op string, fn func(context.Context) error) error {
	delay := p.baseDelay
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt > p.maxRetries {
			return fmt.Errorf("%s: giving up after %d attempts: %w", op, attempt, err)
		}
		p.logger.Warn("rpc call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}
