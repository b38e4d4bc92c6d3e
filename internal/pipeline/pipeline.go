// Package pipeline runs extraction, filtering, translation and persistence
// end to end.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"ui-translator/internal/export"
	"ui-translator/internal/filewalker"
	"ui-translator/internal/textutil"
	"ui-translator/internal/translation"

	"github.com/rs/zerolog/log"
)

// Scanner produces the per-file fragment mapping for a directory.
type Scanner interface {
	ScanDirectory(ctx context.Context, root string) (*filewalker.Result, error)
}

// Filter keeps the user-facing strings.
type Filter interface {
	Filter(ctx context.Context, texts []string) ([]string, error)
}

// Cache stores translations across runs.
type Cache interface {
	Get(ctx context.Context, sourceText, targetLang string) (string, bool)
	Set(ctx context.Context, sourceText, targetLang, translated string) error
}

// GraphExporter mirrors results into a graph store.
type GraphExporter interface {
	ExportScan(ctx context.Context, result *filewalker.Result) error
	ExportTranslations(ctx context.Context, lang string, records []export.TranslationRecord) error
}

// Options wires the pipeline's collaborators. Cache and Graph are optional.
type Options struct {
	Scanner    Scanner
	Filter     Filter
	Translator translation.Translator
	Cache      Cache
	Graph      GraphExporter
	OutputDir  string
}

// Pipeline extracts, filters and translates UI strings of a source tree.
type Pipeline struct {
	scanner    Scanner
	filter     Filter
	translator translation.Translator
	cache      Cache
	graph      GraphExporter
	outputDir  string
}

// Report summarizes one run.
type Report struct {
	Files      int
	Strings    int
	Characters int
	Filtered   int
	Cached     int
	Translated int
	Failed     int
	Missing    int
	CSVPath    string
}

// New creates a pipeline from opts.
func New(opts Options) *Pipeline {
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	return &Pipeline{
		scanner:    opts.Scanner,
		filter:     opts.Filter,
		translator: opts.Translator,
		cache:      opts.Cache,
		graph:      opts.Graph,
		outputDir:  opts.OutputDir,
	}
}

func (p *Pipeline) path(rel string) string {
	return filepath.Join(p.outputDir, rel)
}

// Run executes the complete pipeline on dir.
func (p *Pipeline) Run(ctx context.Context, dir, targetLang string, saveIntermediates bool) (*Report, error) {
	log.Info().Str("directory", dir).Msg("Scanning directory")

	// Step 1: extract.
	result, err := p.scanner.ScanDirectory(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("scan directory: %w", err)
	}
	all := result.Strings()
	report := &Report{
		Files:      len(result.Files),
		Strings:    len(all),
		Characters: textutil.CharCount(all),
	}
	log.Info().
		Int("strings", report.Strings).
		Int("files", report.Files).
		Int("characters", report.Characters).
		Msg("Extracted strings")

	if saveIntermediates {
		if err := export.SaveJSON(p.path(export.ExtractedJSON), result); err != nil {
			return nil, err
		}
	}

	// Step 2: filter.
	filtered, err := p.filter.Filter(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("filter strings: %w", err)
	}
	report.Filtered = len(filtered)
	log.Info().Int("filtered", report.Filtered).Msg("Filtered to user-facing strings")

	if saveIntermediates {
		if filtered == nil {
			filtered = []string{}
		}
		if err := export.SaveJSON(p.path(export.FilteredJSON), export.Filtered{Filtered: filtered}); err != nil {
			return nil, err
		}
	}

	// Step 3: translate.
	records := p.translate(ctx, filtered, targetLang, report)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 4: save.
	jsonPath := p.path(export.TranslationsJSON)
	if err := export.SaveTranslations(jsonPath, records); err != nil {
		return nil, err
	}
	report.CSVPath = p.path(export.CSVPath(targetLang))
	if err := export.WriteJSONToCSV(jsonPath, report.CSVPath); err != nil {
		return nil, fmt.Errorf("convert to CSV: %w", err)
	}

	// Step 5: graph.
	if p.graph != nil {
		if err := p.graph.ExportScan(ctx, result); err != nil {
			log.Error().Err(err).Msg("Graph export failed")
		} else if err := p.graph.ExportTranslations(ctx, targetLang, records); err != nil {
			log.Error().Err(err).Msg("Graph export failed")
		}
	}

	log.Info().
		Int("files", report.Files).
		Int("strings", report.Strings).
		Int("filtered", report.Filtered).
		Int("cached", report.Cached).
		Int("translated", report.Translated).
		Int("failed", report.Failed).
		Int("missing", report.Missing).
		Str("csv", report.CSVPath).
		Msg("Pipeline complete")

	return report, nil
}

// translate builds one record per text, in order. Cached translations are
// reused and only the rest is sent to the translator; successful results
// are written back to the cache.
func (p *Pipeline) translate(ctx context.Context, texts []string, targetLang string, report *Report) []export.TranslationRecord {
	known := make(map[string]string, len(texts))
	queued := make(map[string]bool)
	var pending []string

	for _, text := range texts {
		if _, ok := known[text]; ok || queued[text] {
			continue
		}
		if p.cache != nil {
			if v, ok := p.cache.Get(ctx, text, targetLang); ok {
				known[text] = v
				report.Cached++
				continue
			}
		}
		queued[text] = true
		pending = append(pending, text)
	}

	if len(pending) > 0 {
		log.Info().Int("strings", len(pending)).Int("cached", report.Cached).Msg("Translating strings")
		fresh := p.translator.BatchTranslate(ctx, pending, targetLang)
		for _, text := range pending {
			v, ok := fresh[text]
			if !ok {
				continue
			}
			known[text] = v
			if strings.HasPrefix(v, translation.ErrorPrefix) {
				report.Failed++
				continue
			}
			report.Translated++
			if p.cache != nil {
				if err := p.cache.Set(ctx, text, targetLang, v); err != nil {
					log.Warn().Err(err).Str("text", textutil.Truncate(text, 30)).Msg("Failed to cache translation")
				}
			}
		}
	}

	records := make([]export.TranslationRecord, 0, len(texts))
	for _, text := range texts {
		v, ok := known[text]
		if !ok {
			v = export.TranslationMissing
			report.Missing++
		}
		records = append(records, export.TranslationRecord{English: text, Translation: v})
	}
	return records
}
