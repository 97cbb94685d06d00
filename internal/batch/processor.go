package batch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gla2smd/internal/convert"
	"gla2smd/internal/logger"
	"gla2smd/internal/preview"
)

// Config holds all shared settings for a batch run.
type Config struct {
	InputDir  string
	OutputDir string
	Convert   convert.Options
	Compress  bool // write .smd.zst
	Workers   int

	// Preview, when non-nil, also renders frame 0 of each file next to its
	// SMD output in PreviewFormat.
	Preview       *preview.Options
	PreviewFormat string

	// ProgressInterval is how often progress is logged; zero means 2s.
	ProgressInterval time.Duration
}

// Result holds the outcome of converting one file.
type Result struct {
	Input    string `json:"input"` // relative to InputDir
	Output   string `json:"output,omitempty"`
	Preview  string `json:"preview,omitempty"`
	Name     string `json:"name,omitempty"`
	Frames   int    `json:"frames"`
	Bones    int    `json:"bones"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// Discover lists every *.gla and *.gla.zst file under dir, relative to dir,
// in lexical order.
func Discover(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if strings.HasSuffix(name, ".gla") || strings.HasSuffix(name, ".gla.zst") {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch: scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Run converts all files using a worker pool. Results are in input order.
// Cancelling ctx stops handing out new files; files not started are reported
// as failed with the context error.
func Run(ctx context.Context, cfg Config, files []string) []Result {
	log := logger.FromContext(ctx)
	total := len(files)
	results := make([]Result, total)
	var processed, failed atomic.Int64

	workers := max(cfg.Workers, 1)
	interval := cfg.ProgressInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					log.Info("progress",
						"done", p,
						"total", total,
						"failed", failed.Load(),
						"files_per_sec", fmt.Sprintf("%.1f", float64(p)/elapsed),
					)
				}
			}
		}
	}()

	// Worker pool
	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = processFile(ctx, cfg, files[idx])
				if !results[idx].Success {
					failed.Add(1)
				}
				processed.Add(1)
			}
		}()
	}

	// Send work
	next := 0
send:
	for ; next < total; next++ {
		select {
		case jobs <- next:
		case <-ctx.Done():
			break send
		}
	}
	close(jobs)

	wg.Wait()
	close(done)

	for i := next; i < total; i++ {
		results[i] = Result{Input: files[i], Error: ctx.Err().Error()}
	}

	log.Info("batch finished",
		"total", total,
		"failed", countFailed(results),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return results
}

func countFailed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}

func processFile(ctx context.Context, cfg Config, rel string) Result {
	start := time.Now()
	res := Result{Input: rel}

	fail := func(err error) Result {
		res.Error = err.Error()
		res.Duration = time.Since(start).Round(time.Microsecond).String()
		logger.FromContext(ctx).Warn("conversion failed", "input", rel, "error", err)
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	outRel := filepath.Join(filepath.Dir(rel), convert.OutputName(rel))
	if cfg.Compress {
		outRel += ".zst"
	}

	anim, err := convert.File(ctx, filepath.Join(cfg.InputDir, rel), filepath.Join(cfg.OutputDir, outRel), cfg.Convert)
	if err != nil {
		return fail(err)
	}
	res.Output = filepath.ToSlash(outRel)
	res.Name = anim.Header.Name
	res.Frames = anim.NumFrames()
	res.Bones = anim.NumBones()

	if cfg.Preview != nil && anim.NumFrames() > 0 {
		format := cfg.PreviewFormat
		if format == "" {
			format = preview.FormatWebP
		}
		img, err := preview.Render(anim, 0, *cfg.Preview)
		if err != nil {
			return fail(err)
		}
		prevRel := strings.TrimSuffix(filepath.Join(filepath.Dir(rel), convert.OutputName(rel)), ".smd") + "." + format
		if err := preview.Save(filepath.Join(cfg.OutputDir, prevRel), img, format); err != nil {
			return fail(err)
		}
		res.Preview = filepath.ToSlash(prevRel)
	}

	res.Success = true
	res.Duration = time.Since(start).Round(time.Microsecond).String()
	return res
}
