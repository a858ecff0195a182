package replay

import "fmt"

// LineRange is an inclusive range of operation lines.
type LineRange struct {
	From uint64
	To   uint64
}

// SplitRange splits a line range into batches of size batchSize.
func SplitRange(from, to, batchSize uint64) ([]LineRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to line must be >= from line")
	}

	ranges := make([]LineRange, 0, (to-from)/batchSize+1)
	for start := from; ; start += batchSize {
		end := to
		if to-start >= batchSize {
			end = start + batchSize - 1
		}
		ranges = append(ranges, LineRange{From: start, To: end})
		if end == to {
			break
		}
	}
	return ranges, nil
}
