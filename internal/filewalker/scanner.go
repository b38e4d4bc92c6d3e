package filewalker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"ui-translator/internal/extract"

	"github.com/rs/zerolog"
)

// DefaultExtensions lists the file types scanned when none are configured.
var DefaultExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".html", ".vue", ".py"}

// ErrInvalidUTF8 is recorded for files whose content is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("content is not valid UTF-8")

// ErrNotDirectory is returned when the scan root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// FileScan is the outcome of scanning one file. Err is set when the file
// could not be read, in which case Fragments is empty.
type FileScan struct {
	Path      string
	Fragments []string
	Err       error
}

// Skipped reports whether the file was dropped because of a read failure.
func (fs FileScan) Skipped() bool {
	return fs.Err != nil
}

// Scanner filters files by extension and extracts fragments from them.
type Scanner struct {
	extensions map[string]bool
	extractor  *extract.Extractor
	logger     zerolog.Logger
}

// NewScanner creates a scanner. Extension matching is exact and case
// sensitive; nil extensions selects DefaultExtensions.
func NewScanner(extensions []string, extractor *extract.Extractor, logger zerolog.Logger) *Scanner {
	if extensions == nil {
		extensions = DefaultExtensions
	}
	if extractor == nil {
		extractor = extract.NewExtractor(nil, nil)
	}
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		set[ext] = true
	}
	return &Scanner{
		extensions: set,
		extractor:  extractor,
		logger:     logger,
	}
}

// Accepts reports whether path has one of the configured extensions.
func (s *Scanner) Accepts(path string) bool {
	return s.extensions[fileExt(path)]
}

// ScanFile reads path and extracts its fragments. Read failures are logged
// and returned in FileScan.Err; they never abort the caller.
func (s *Scanner) ScanFile(path string) FileScan {
	result := FileScan{Path: path}
	if !s.Accepts(path) {
		return result
	}

	content, err := readText(path)
	if err != nil {
		s.logger.Error().Err(err).Str("file", path).Msg("Error reading file")
		result.Err = err
		return result
	}

	result.Fragments = s.extractor.Extract(content, path)
	s.logger.Debug().Str("file", path).Int("fragments", len(result.Fragments)).Msg("Scanned file")
	return result
}

// readText loads a file as UTF-8 text with newlines normalised to \n.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("decode %s: %w", filepath.Base(path), ErrInvalidUTF8)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}

// fileExt returns the extension of the last path element. Leading dots of
// the name do not start an extension, so ".vue" has none.
func fileExt(path string) string {
	name := strings.TrimLeft(filepath.Base(path), ".")
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return name[idx:]
}
