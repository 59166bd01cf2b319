// Package application orchestrates file discovery, importing, and
// linking into complete trace runs.
package application

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/reqtrace/internal/infrastructure/config"
	"github.com/felixgeelhaar/reqtrace/internal/infrastructure/storage"
	"github.com/felixgeelhaar/reqtrace/pkg/domain/item"
	"github.com/felixgeelhaar/reqtrace/pkg/domain/trace"
	"github.com/felixgeelhaar/reqtrace/pkg/importer"
	"github.com/felixgeelhaar/reqtrace/pkg/importer/tag"
)

// RunRecord captures one trace run with its operational metadata.
// The embedded result alone stays deterministic; run id and timing
// live here so repeated runs over identical inputs still produce
// byte-identical reports.
type RunRecord struct {
	RunID        string        `json:"run_id"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	FilesScanned int           `json:"files_scanned"`
	Result       *trace.Result `json:"result"`
}

// TraceService runs the full pipeline: discover artifact files, parse
// them, and link the items into a coverage graph.
type TraceService struct {
	root     string
	cfg      *config.Config
	reader   *storage.Reader
	importer *importer.Importer
	logger   *slog.Logger
	workers  int
}

func NewTraceService(root string, cfg *config.Config, logger *slog.Logger) *TraceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TraceService{
		root:     root,
		cfg:      cfg,
		reader:   storage.NewReader(),
		importer: importer.New(impliedTypes(cfg)...),
		logger:   logger,
		workers:  runtime.NumCPU(),
	}
}

// impliedTypes converts the configured test-type mapping into
// covers-only tag rules, sorted for a deterministic rule order.
func impliedTypes(cfg *config.Config) []tag.ImpliedType {
	keys := make([]string, 0, len(cfg.TestTypes))
	for k := range cfg.TestTypes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rules := make([]tag.ImpliedType, 0, len(keys))
	for _, k := range keys {
		rules = append(rules, tag.ImpliedType{PathContains: k, Type: cfg.TestTypes[k]})
	}
	return rules
}

type discoveredFile struct {
	path string // relative to the service root, slash-separated
	kind importer.FileKind
}

// Discover walks the configured directories and returns the artifact
// files to trace, sorted by path.
func (s *TraceService) Discover() ([]discoveredFile, error) {
	seen := make(map[string]importer.FileKind)

	for _, dir := range s.cfg.SpecDirs {
		if err := s.walk(dir, []string{"**/*.md", "**/*.markdown"}, seen); err != nil {
			return nil, err
		}
	}
	for _, dir := range s.cfg.SourceDirs {
		if err := s.walk(dir, s.cfg.SourcePatterns, seen); err != nil {
			return nil, err
		}
	}

	files := make([]discoveredFile, 0, len(seen))
	for path, kind := range seen {
		files = append(files, discoveredFile{path: path, kind: kind})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	return files, nil
}

func (s *TraceService) walk(dir string, patterns []string, seen map[string]importer.FileKind) error {
	base := filepath.Join(s.root, dir)
	info, err := os.Stat(base)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("configured directory does not exist", "dir", dir)
			return nil
		}
		return fmt.Errorf("failed to inspect %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	return filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if s.excluded(rel) || !matchesAny(patterns, rel) {
			return nil
		}
		if _, ok := seen[rel]; !ok {
			seen[rel] = importer.KindForPath(rel)
		}
		return nil
	})
}

func (s *TraceService) excluded(rel string) bool {
	return matchesAny(s.cfg.ExcludePatterns, rel)
}

func matchesAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}

type fileResult struct {
	items   []item.SpecificationItem
	defects []trace.Defect
}

// Run executes a complete trace over the configured tree.
func (s *TraceService) Run(ctx context.Context) (*RunRecord, error) {
	started := time.Now()

	files, err := s.Discover()
	if err != nil {
		return nil, fmt.Errorf("file discovery failed: %w", err)
	}

	results, err := s.importAll(ctx, files)
	if err != nil {
		return nil, err
	}

	var items []item.SpecificationItem
	var defects []trace.Defect
	for _, r := range results {
		items = append(items, r.items...)
		defects = append(defects, r.defects...)
	}

	s.warnUnknownTypes(items)

	result, err := trace.Link(items, defects...)
	if err != nil {
		return nil, fmt.Errorf("linking failed: %w", err)
	}

	return &RunRecord{
		RunID:        uuid.NewString(),
		StartedAt:    started,
		Duration:     time.Since(started),
		FilesScanned: len(files),
		Result:       result,
	}, nil
}

// importAll parses files concurrently. Results land in a slice
// indexed by file position so the merge order never depends on
// scheduling.
func (s *TraceService) importAll(ctx context.Context, files []discoveredFile) ([]fileResult, error) {
	results := make([]fileResult, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.importOne(ctx, files[i])
			}
		}()
	}

	for i := range files {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *TraceService) importOne(ctx context.Context, f discoveredFile) fileResult {
	data, err := s.reader.ReadFile(ctx, filepath.Join(s.root, filepath.FromSlash(f.path)))
	if err != nil {
		s.logger.Warn("skipping unreadable file", "path", f.path, "error", err)
		return fileResult{}
	}

	items, defects := s.importer.ImportFile(f.path, string(data), f.kind)
	return fileResult{items: items, defects: defects}
}

// warnUnknownTypes flags artifact types outside the configured
// allow-list. These are configuration smells, not defects.
func (s *TraceService) warnUnknownTypes(items []item.SpecificationItem) {
	if len(s.cfg.ArtifactTypes) == 0 {
		return
	}
	allowed := make(map[string]bool, len(s.cfg.ArtifactTypes))
	for _, t := range s.cfg.ArtifactTypes {
		allowed[t] = true
	}

	warned := make(map[string]bool)
	for _, it := range items {
		if !allowed[it.ID.Type] && !warned[it.ID.Type] {
			warned[it.ID.Type] = true
			s.logger.Warn("artifact type not in configured allow-list",
				"type", it.ID.Type, "first_seen", it.Origin.String())
		}
	}
}
