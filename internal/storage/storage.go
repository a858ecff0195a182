package storage

import "hubswap/internal/model"

// Storage defines a sink for replay output.
type Storage interface {
	PutLogBatch(logs []model.LogRecord) error
	PutResults(results []model.OpResult) error
}
