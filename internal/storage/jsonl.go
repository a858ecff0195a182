package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"hubswap/internal/model"
)

// JsonlStorage appends encoded event logs and operation results to two JSONL
// files. An empty path disables that stream.
type JsonlStorage struct {
	logsPath    string
	resultsPath string
	mu          sync.Mutex
}

func NewJsonlStorage(logsPath, resultsPath string) *JsonlStorage {
	return &JsonlStorage{logsPath: logsPath, resultsPath: resultsPath}
}

// PutLogBatch appends a batch of log records as JSON lines.
func (s *JsonlStorage) PutLogBatch(logs []model.LogRecord) error {
	items := make([]interface{}, len(logs))
	for i := range logs {
		items[i] = logs[i]
	}
	return s.appendLines(s.logsPath, items)
}

// PutResults appends a batch of operation results as JSON lines.
func (s *JsonlStorage) PutResults(results []model.OpResult) error {
	items := make([]interface{}, len(results))
	for i := range results {
		items[i] = results[i]
	}
	return s.appendLines(s.resultsPath, items)
}

func (s *JsonlStorage) appendLines(path string, items []interface{}) error {
	if path == "" || len(items) == 0 {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, item := range items {
		line, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
