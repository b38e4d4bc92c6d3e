package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Occurrence is a source file containing a fragment.
type Occurrence struct {
	Path        string
	Text        string
	Translation string
}

// Querier reads the exported graph back.
type Querier struct {
	driver neo4j.DriverWithContext
}

// NewQuerier creates a new graph querier.
func NewQuerier(driver neo4j.DriverWithContext) *Querier {
	return &Querier{driver: driver}
}

// FindFragment returns the files containing text (matched on FragmentKey),
// with its translation in lang when one was exported.
func (q *Querier) FindFragment(ctx context.Context, text, lang string) ([]Occurrence, error) {
	session := q.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (f:SourceFile)-[:CONTAINS]->(s:Fragment {key: $key})
		OPTIONAL MATCH (s)-[:TRANSLATED_AS {lang: $lang}]->(t:Translation)
		RETURN f.path AS path, s.text AS text, t.text AS translation
		ORDER BY path
	`, map[string]any{
		"key":  FragmentKey(text),
		"lang": strings.ToUpper(lang),
	})
	if err != nil {
		return nil, fmt.Errorf("find fragment: %w", err)
	}

	var out []Occurrence
	for result.Next(ctx) {
		record := result.Record()
		path, _ := record.Get("path")
		found, _ := record.Get("text")
		translation, _ := record.Get("translation")
		out = append(out, Occurrence{
			Path:        asString(path),
			Text:        asString(found),
			Translation: asString(translation),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("find fragment: %w", err)
	}

	log.Debug().Int("occurrences", len(out)).Msg("Graph query complete")
	return out, nil
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
