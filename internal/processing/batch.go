package processing

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"docextract/internal/ocr"
	"docextract/pkg/models"
)

// DefaultWorkers is the batch concurrency used when none is given.
const DefaultWorkers = 4

// BatchItem is the outcome for one file of a batch. Exactly one of Result
// and Err is set.
type BatchItem struct {
	Index  int     `json:"index" yaml:"index"`
	Path   string  `json:"path" yaml:"path"`
	Result *Result `json:"result,omitempty" yaml:"result,omitempty"`
	Err    error   `json:"-" yaml:"-"`
	Error  string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the file was processed without error.
func (b BatchItem) OK() bool {
	return b.Err == nil
}

// ProgressFunc is called after each file completes. done counts finished
// files; calls are serialized.
type ProgressFunc func(done, total int, item BatchItem)

type batchJob struct {
	Index int
	Path  string
}

// ProcessAll processes paths with a pool of workers. Results keep the order
// of paths; a failing file does not stop the others.
func (s *Service) ProcessAll(ctx context.Context, paths []string, expected *models.DocumentFamily, workers int, progress ProgressFunc) []BatchItem {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan batchJob, len(paths))
	results := make([]BatchItem, len(paths))

	var processedCount int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range jobs {
				s.log.Debug().
					Int("worker", workerID).
					Str("file", job.Path).
					Int("index", job.Index+1).
					Msg("Worker processing document")

				item := BatchItem{Index: job.Index, Path: job.Path}
				if err := ctx.Err(); err != nil {
					item.Err = err
				} else {
					item.Result, item.Err = s.Process(ctx, Request{Path: job.Path, Expected: expected})
				}
				if item.Err != nil {
					item.Error = item.Err.Error()
				}

				results[job.Index] = item

				mu.Lock()
				processedCount++
				if progress != nil {
					progress(processedCount, len(paths), item)
				}
				mu.Unlock()
			}
		}(w + 1)
	}

	for i, path := range paths {
		jobs <- batchJob{Index: i, Path: path}
	}
	close(jobs)

	wg.Wait()

	return results
}

// CollectFiles expands inputs into document paths. Directories contribute
// their supported files (sorted, not recursive); plain files are kept as is
// so that validation reports unsupported ones.
func CollectFiles(inputs []string) ([]string, error) {
	const op = "CollectFiles"

	var files []string
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, WrapProcessingError(op, in, ErrFileNotFound)
		}
		if !info.IsDir() {
			files = append(files, in)
			continue
		}

		entries, err := os.ReadDir(in)
		if err != nil {
			return nil, WrapProcessingError(op, in, err)
		}

		var found []string
		for _, e := range entries {
			if e.IsDir() || !ocr.IsSupportedExtension(filepath.Ext(e.Name())) {
				continue
			}
			if strings.HasPrefix(e.Name(), ".") {
				continue
			}
			found = append(found, filepath.Join(in, e.Name()))
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}
