// Package graph mirrors scan and translation results into Neo4j as
// (:SourceFile)-[:CONTAINS]->(:Fragment)-[:TRANSLATED_AS]->(:Translation).
package graph

import (
	"context"
	"fmt"
	"strings"

	"ui-translator/internal/export"
	"ui-translator/internal/filewalker"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

const mergeScan = `
UNWIND $rows AS row
MERGE (f:SourceFile {path: row.path})
MERGE (s:Fragment {key: row.key})
ON CREATE SET s.text = row.text
MERGE (f)-[c:CONTAINS]->(s)
SET c.position = row.position`

const mergeTranslations = `
UNWIND $rows AS row
MERGE (s:Fragment {key: row.key})
ON CREATE SET s.text = row.text
MERGE (t:Translation {text: row.translation, lang: $lang})
MERGE (s)-[:TRANSLATED_AS {lang: $lang}]->(t)`

// Exporter writes pipeline results to the graph.
type Exporter struct {
	driver neo4j.DriverWithContext
}

// NewExporter creates a new graph exporter.
func NewExporter(driver neo4j.DriverWithContext) *Exporter {
	return &Exporter{driver: driver}
}

// FragmentKey is the node identity of a fragment: the text lowercased, the
// same normalization the walker deduplicates on.
func FragmentKey(text string) string {
	return strings.ToLower(text)
}

// EnsureSchema creates constraints on the Neo4j database.
func (e *Exporter) EnsureSchema(ctx context.Context) error {
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (f:SourceFile) REQUIRE f.path IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (s:Fragment) REQUIRE s.key IS UNIQUE",
	}

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

// ExportScan merges every file of a scan result with the fragments it
// contributed.
func (e *Exporter) ExportScan(ctx context.Context, result *filewalker.Result) error {
	rows := ScanRows(result)
	if len(rows) == 0 {
		return nil
	}

	session := e.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	if _, err := session.Run(ctx, mergeScan, map[string]any{"rows": rows}); err != nil {
		return fmt.Errorf("export scan: %w", err)
	}

	log.Info().Int("files", len(result.Files)).Int("fragments", len(rows)).Msg("Exported scan to graph")
	return nil
}

// ExportTranslations links fragments to their translation in lang. Records
// whose translation failed or is missing are left out.
func (e *Exporter) ExportTranslations(ctx context.Context, lang string, records []export.TranslationRecord) error {
	rows := TranslationRows(records)
	if len(rows) == 0 {
		return nil
	}

	session := e.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	params := map[string]any{"rows": rows, "lang": strings.ToUpper(lang)}
	if _, err := session.Run(ctx, mergeTranslations, params); err != nil {
		return fmt.Errorf("export translations: %w", err)
	}

	log.Info().Int("translations", len(rows)).Str("lang", lang).Msg("Exported translations to graph")
	return nil
}

// ScanRows flattens a scan result into UNWIND parameters.
func ScanRows(result *filewalker.Result) []any {
	if result == nil {
		return nil
	}
	var rows []any
	for _, f := range result.Files {
		for i, text := range f.Fragments {
			rows = append(rows, map[string]any{
				"path":     f.Path,
				"key":      FragmentKey(text),
				"text":     text,
				"position": int64(i),
			})
		}
	}
	return rows
}

// TranslationRows turns translation records into UNWIND parameters.
func TranslationRows(records []export.TranslationRecord) []any {
	var rows []any
	for _, r := range records {
		if !r.Translated() {
			continue
		}
		rows = append(rows, map[string]any{
			"key":         FragmentKey(r.English),
			"text":        r.English,
			"translation": r.Translation,
		})
	}
	return rows
}
