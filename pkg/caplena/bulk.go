package caplena

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrBulkAppendFailed = errors.New("bulk append failed")
	ErrNoRows           = errors.New("no rows to append")
)

// The rows bulk endpoint caps the number of rows accepted per request.
const DefaultRowBatchSize = 20

// BulkResult captures the outcome of a single appended batch.
type BulkResult struct {
	// Batch is the zero-based index of the batch within the upload.
	Batch int
	// Rows is the number of rows carried by this batch.
	Rows int
	// Task holds the queue status returned by the API for this batch.
	Task map[string]interface{}
	// Error is the failure for this batch, nil on success.
	Error error
	// Duration is the wall time spent on this batch.
	Duration time.Duration
}

// BulkAppender uploads large row sets to a project, split into batches the
// rows endpoint accepts, with bounded concurrency across batches.
type BulkAppender struct {
	projects    *ProjectsController
	batchSize   int
	concurrency int
}

// BulkOption configures a BulkAppender.
type BulkOption func(*BulkAppender)

// WithBatchSize overrides the number of rows per request. Values above the
// endpoint cap are lowered to it.
func WithBatchSize(size int) BulkOption {
	return func(b *BulkAppender) {
		if size > 0 && size <= DefaultRowBatchSize {
			b.batchSize = size
		}
	}
}

// WithConcurrency sets how many batches may be in flight at once.
func WithConcurrency(concurrency int) BulkOption {
	return func(b *BulkAppender) {
		if concurrency > 0 {
			b.concurrency = concurrency
		}
	}
}

// NewBulkAppender creates a bulk appender on top of a projects controller.
func NewBulkAppender(projects *ProjectsController, opts ...BulkOption) *BulkAppender {
	appender := &BulkAppender{
		projects:    projects,
		batchSize:   DefaultRowBatchSize,
		concurrency: 1,
	}

	for _, opt := range opts {
		opt(appender)
	}

	return appender
}

// Append splits rows into batches and posts each through the rows bulk
// endpoint. All batches are attempted regardless of individual failures; the
// per-batch outcomes are always returned, alongside an ErrBulkAppendFailed
// naming the failed batch indexes when any batch failed.
func (b *BulkAppender) Append(ctx context.Context, projectID string, rows []map[string]interface{}) ([]BulkResult, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	batches := b.split(rows)
	results := make([]BulkResult, len(batches))

	var waitGroup sync.WaitGroup

	semaphore := make(chan struct{}, b.concurrency)

	for index, batch := range batches {
		waitGroup.Add(1)

		go func(index int, batch []map[string]interface{}) {
			defer waitGroup.Done()

			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			start := time.Now()
			task, err := b.projects.AppendRows(ctx, projectID, batch)
			results[index] = BulkResult{
				Batch:    index,
				Rows:     len(batch),
				Task:     task,
				Error:    err,
				Duration: time.Since(start),
			}
		}(index, batch)
	}

	waitGroup.Wait()

	var failed []int

	for _, result := range results {
		if result.Error != nil {
			failed = append(failed, result.Batch)
		}
	}

	if len(failed) > 0 {
		return results, fmt.Errorf("%w: %d of %d batches failed: %v", ErrBulkAppendFailed, len(failed), len(batches), failed)
	}

	return results, nil
}

// split cuts rows into consecutive batches of at most batchSize rows.
func (b *BulkAppender) split(rows []map[string]interface{}) [][]map[string]interface{} {
	batches := make([][]map[string]interface{}, 0, (len(rows)+b.batchSize-1)/b.batchSize)

	for start := 0; start < len(rows); start += b.batchSize {
		end := start + b.batchSize
		if end > len(rows) {
			end = len(rows)
		}

		batches = append(batches, rows[start:end])
	}

	return batches
}
