package filewalker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ui-translator/internal/classify"
	"ui-translator/internal/extract"
	"ui-translator/internal/textutil"
	"ui-translator/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// AssetSuffixes are file-like endings that mark a fragment as a file name
// rather than copy.
var AssetSuffixes = []string{".xlsx", ".csv", ".json", ".pdf", ".png", ".jpg"}

// IsNoise reports whether a fragment that passed classification should still
// be dropped: it names an asset file, or it is wrapped in [] or {}.
func IsNoise(fragment string) bool {
	for _, suffix := range AssetSuffixes {
		if strings.HasSuffix(fragment, suffix) {
			return true
		}
	}
	if strings.HasPrefix(fragment, "[") && strings.HasSuffix(fragment, "]") {
		return true
	}
	return strings.HasPrefix(fragment, "{") && strings.HasSuffix(fragment, "}")
}

// SeenSet records fragments case-insensitively for the lifetime of one walk.
type SeenSet struct {
	seen map[string]struct{}
}

// NewSeenSet creates an empty set.
func NewSeenSet() *SeenSet {
	return &SeenSet{seen: make(map[string]struct{})}
}

// Has reports whether a fragment with the same lowercase form was added.
func (s *SeenSet) Has(fragment string) bool {
	_, ok := s.seen[strings.ToLower(fragment)]
	return ok
}

// Add records the lowercase form of fragment.
func (s *SeenSet) Add(fragment string) {
	s.seen[strings.ToLower(fragment)] = struct{}{}
}

// Len returns the number of distinct lowercase forms recorded.
func (s *SeenSet) Len() int {
	return len(s.seen)
}

// FileFragments is the ordered list of fragments one file contributed.
type FileFragments struct {
	Path      string   `json:"path"`
	Fragments []string `json:"fragments"`
}

// Result is the outcome of one directory walk. Files are in visit order and
// every entry has at least one fragment.
type Result struct {
	Root  string
	Files []FileFragments
	// Scanned counts files that passed the extension check.
	Scanned int
	// Skipped counts files dropped because they could not be read.
	Skipped int
}

// Map returns the result as a path -> fragments mapping.
func (r *Result) Map() map[string][]string {
	m := make(map[string][]string, len(r.Files))
	for _, f := range r.Files {
		m[f.Path] = f.Fragments
	}
	return m
}

// Strings flattens all fragments in file visit order.
func (r *Result) Strings() []string {
	var out []string
	for _, f := range r.Files {
		out = append(out, f.Fragments...)
	}
	return out
}

// CharCount is the total rune count of all fragments.
func (r *Result) CharCount() int {
	return textutil.CharCount(r.Strings())
}

// MarshalJSON encodes the result as a JSON object keyed by path, keeping
// visit order.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Files {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, f.Path); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, f.Fragments); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode scan result: %w", err)
	}
	// Encode terminates each value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// Options configures a Walker. Zero values select the defaults.
type Options struct {
	Extensions         []string
	TemplateExtensions []string
	Classifier         *classify.Classifier
	// Workers > 1 reads and extracts files concurrently. Fragments are still
	// merged in traversal order, so the output matches a sequential walk.
	Workers int
	Logger  *zerolog.Logger
}

// Walker traverses directories and collects deduplicated fragments.
type Walker struct {
	scanner *Scanner
	workers int
	logger  zerolog.Logger
}

// NewWalker creates a Walker from opts.
func NewWalker(opts Options) *Walker {
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	extractor := extract.NewExtractor(opts.Classifier, opts.TemplateExtensions)
	return &Walker{
		scanner: NewScanner(opts.Extensions, extractor, logger),
		workers: opts.Workers,
		logger:  logger,
	}
}

// Scanner returns the file scanner used by the walker.
func (w *Walker) Scanner() *Scanner {
	return w.scanner
}

// Walk lists the files under root that pass the extension check, in
// traversal order.
func (w *Walker) Walk(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s: %w", root, ErrNotDirectory)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if w.scanner.Accepts(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	w.logger.Debug().Int("count", len(files)).Str("root", root).Msg("Discovered files")
	return files, nil
}

// ScanDirectory walks root and returns every file's surviving fragments.
// Fragments are deduplicated case-insensitively across the whole tree; the
// first file visited keeps a shared fragment.
func (w *Walker) ScanDirectory(ctx context.Context, root string) (*Result, error) {
	files, err := w.Walk(root)
	if err != nil {
		return nil, err
	}

	scans, err := w.scanAll(ctx, files)
	if err != nil {
		return nil, err
	}

	result := &Result{Root: root}
	seen := NewSeenSet()
	for _, scan := range scans {
		collect(result, seen, scan)
	}

	w.logger.Info().
		Str("root", root).
		Int("scanned", result.Scanned).
		Int("skipped", result.Skipped).
		Int("files", len(result.Files)).
		Int("fragments", seen.Len()).
		Msg("Directory scan complete")

	return result, nil
}

func (w *Walker) scanAll(ctx context.Context, files []string) ([]FileScan, error) {
	if w.workers <= 1 {
		scans := make([]FileScan, 0, len(files))
		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			scans = append(scans, w.scanner.ScanFile(path))
		}
		return scans, nil
	}

	pool := worker.NewPool[string, FileScan]("scan", w.workers, func(ctx context.Context, path string) (FileScan, error) {
		return w.scanner.ScanFile(path), nil
	})
	tasks := pool.Execute(ctx, files)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scans := make([]FileScan, len(tasks))
	for i, task := range tasks {
		scans[i] = task.Result
	}
	return scans, nil
}

// collect applies the tree-wide filters to one file's fragments.
func collect(result *Result, seen *SeenSet, scan FileScan) {
	result.Scanned++
	if scan.Skipped() {
		result.Skipped++
		return
	}

	var kept []string
	for _, fragment := range scan.Fragments {
		if seen.Has(fragment) || IsNoise(fragment) {
			continue
		}
		seen.Add(fragment)
		kept = append(kept, fragment)
	}

	if len(kept) > 0 {
		result.Files = append(result.Files, FileFragments{Path: scan.Path, Fragments: kept})
	}
}
