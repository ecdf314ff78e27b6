package storage

import (
	"context"

	"puzzleScope/internal/model"
)

// Storage defines a sink for archived game logs.
type Storage interface {
	PutLogBatch(ctx context.Context, logs []model.LogRecord) error
}
