package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"reelshelf/internal/filesystem"
	"reelshelf/internal/logging"
	"reelshelf/internal/mediatypes"
	"reelshelf/internal/metrics"
)

// File is one video file found under a library root.
type File struct {
	Path    string
	Size    int64
	ModTime time.Time
	// Inode and Device are zero on platforms without them.
	Inode  uint64
	Device uint64
}

// ModTimeNS returns the modification time in nanoseconds since the epoch.
func (f File) ModTimeNS() int64 {
	return f.ModTime.UnixNano()
}

// Config controls a scan.
type Config struct {
	Roots []string
	// IgnoreRules are case-insensitive substrings matched against the
	// forward-slash form of each candidate path.
	IgnoreRules []string
	// Workers bounds the stat pool. Values <= 1 stat sequentially.
	Workers int
	Retry   filesystem.RetryConfig
}

// Scanner walks library roots and stats the video files it finds.
type Scanner struct {
	config Config

	statFailures atomic.Int64
}

// New creates a Scanner.
func New(config Config) *Scanner {
	if config.Retry == (filesystem.RetryConfig{}) {
		config.Retry = filesystem.DefaultRetryConfig()
	}
	return &Scanner{config: config}
}

// Scan enumerates and stats video files under every root. Missing roots are
// skipped. Files whose stat fails are logged and left out of the result.
// Order is unspecified when more than one worker is used. The only error
// returned is the context's.
func (s *Scanner) Scan(ctx context.Context) ([]File, error) {
	start := time.Now()
	s.statFailures.Store(0)

	var candidates []string
	for _, root := range s.config.Roots {
		found, err := s.walkRoot(ctx, root)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, found...)
	}

	workers := s.config.Workers
	if workers < 1 {
		workers = 1
	}
	metrics.ScannerWorkers.Set(float64(workers))

	var files []File
	if workers == 1 {
		files = s.statSequential(ctx, candidates)
	} else {
		files = s.statParallel(ctx, candidates, workers)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	metrics.ScannerFilesFound.Add(float64(len(files)))
	logging.Info("Scan found %d video files under %d roots in %v (stat failures: %d, workers: %d)",
		len(files), len(s.config.Roots), time.Since(start), s.statFailures.Load(), workers)

	return files, nil
}

// StatFailures returns the number of files skipped by the last Scan because stat failed.
func (s *Scanner) StatFailures() int64 {
	return s.statFailures.Load()
}

func (s *Scanner) walkRoot(ctx context.Context, root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		logging.Debug("Skipping library root %s: not an accessible directory", root)
		return nil, nil
	}

	var found []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && mediatypes.IsPrunedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.accept(path, d.Name()) {
			return nil
		}
		found = append(found, path)
		return nil
	})
	if err != nil && !errors.Is(err, fs.SkipAll) {
		return nil, err
	}
	return found, nil
}

// accept applies the built-in exclusions, the extension filter, and the
// caller's ignore rules, in that order.
func (s *Scanner) accept(path, name string) bool {
	if mediatypes.IsSkippedFile(name) {
		return false
	}
	if !mediatypes.IsVideo(filepath.Ext(name)) {
		return false
	}
	return !MatchesIgnoreRule(path, s.config.IgnoreRules)
}

// MatchesIgnoreRule reports whether any non-empty rule is a case-insensitive
// substring of the path normalized to forward slashes.
func MatchesIgnoreRule(path string, rules []string) bool {
	normalized := strings.ToLower(filepath.ToSlash(path))
	for _, rule := range rules {
		rule = strings.ToLower(strings.TrimSpace(filepath.ToSlash(rule)))
		if rule == "" {
			continue
		}
		if strings.Contains(normalized, rule) {
			return true
		}
	}
	return false
}

func (s *Scanner) statSequential(ctx context.Context, paths []string) []File {
	files := make([]File, 0, len(paths))
	for _, path := range paths {
		if ctx.Err() != nil {
			return files
		}
		if f, ok := s.statFile(path); ok {
			files = append(files, f)
		}
	}
	return files
}

func (s *Scanner) statParallel(ctx context.Context, paths []string, workers int) []File {
	jobs := make(chan string, workers*4)
	results := make(chan File, workers*4)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logging.Debug("Stat worker %d started", id)
			for path := range jobs {
				if ctx.Err() != nil {
					continue
				}
				if f, ok := s.statFile(path); ok {
					results <- f
				}
			}
		}(i)
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	files := make([]File, 0, len(paths))
	for f := range results {
		files = append(files, f)
	}
	return files
}

func (s *Scanner) statFile(path string) (File, bool) {
	info, err := filesystem.StatWithRetry(path, s.config.Retry)
	if err != nil {
		s.statFailures.Add(1)
		metrics.ScannerStatFailures.Inc()
		logging.Warn("Skipping %s: stat failed: %v", path, err)
		return File{}, false
	}

	f := File{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	f.Inode, f.Device = fileIdentity(info)
	return f, true
}
