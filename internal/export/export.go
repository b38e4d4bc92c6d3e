// Package export persists pipeline results as JSON and CSV files.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ui-translator/internal/translation"

	"github.com/rs/zerolog/log"
)

// Output locations, relative to the output directory.
const (
	ExtractedJSON    = "json_files/extracted_strings.json"
	FilteredJSON     = "json_files/filtered_strings.json"
	TranslationsJSON = "json_files/translations.json"
)

// TranslationMissing marks a filtered string the translator returned nothing for.
const TranslationMissing = "TRANSLATION_MISSING"

// CSVPath returns the CSV output location for a target language.
func CSVPath(targetLang string) string {
	return filepath.Join("csv_files", "english_"+strings.ToLower(targetLang)+"_strings.csv")
}

// TranslationRecord pairs a source string with its translation. The JSON
// keys stay "english" and "french" whatever the target language, so
// existing spreadsheets keep their columns.
type TranslationRecord struct {
	English     string `json:"english"`
	Translation string `json:"french"`
}

// Translated reports whether the record holds a real translation.
func (r TranslationRecord) Translated() bool {
	return r.Translation != TranslationMissing && !strings.HasPrefix(r.Translation, translation.ErrorPrefix)
}

// Filtered is the shape of the filtered strings file.
type Filtered struct {
	Filtered []string `json:"filtered"`
}

// SaveJSON writes v as 4-space indented JSON without HTML escaping,
// creating parent directories as needed.
func SaveJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	log.Info().Str("path", path).Msg("Data saved")
	return nil
}

// SaveTranslations writes translation records as a JSON array.
func SaveTranslations(path string, records []TranslationRecord) error {
	if records == nil {
		records = []TranslationRecord{}
	}
	if err := SaveJSON(path, records); err != nil {
		return err
	}
	log.Info().Int("translations", len(records)).Str("path", path).Msg("Translations saved")
	return nil
}

// WriteJSONToCSV converts a JSON array of flat objects into CSV. The header
// is the first object's keys in file order; missing fields are written
// empty. An empty array logs a warning and writes nothing.
func WriteJSONToCSV(jsonPath, csvPath string) error {
	f, err := os.Open(jsonPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", jsonPath, err)
	}
	defer f.Close()

	records, err := readObjects(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", jsonPath, err)
	}
	if len(records) == 0 {
		log.Warn().Str("path", jsonPath).Msg("No data found")
		return nil
	}

	header := records[0].keys
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, header)
	for i, rec := range records {
		for _, k := range rec.keys {
			if !contains(header, k) {
				return fmt.Errorf("record %d: field %q not in header", i, k)
			}
		}
		row := make([]string, len(header))
		for j, k := range header {
			row[j] = rec.values[k]
		}
		rows = append(rows, row)
	}

	if err := os.MkdirAll(filepath.Dir(csvPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	out, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", csvPath, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	w.UseCRLF = true
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write CSV: %w", err)
	}

	log.Info().Str("json", jsonPath).Str("csv", csvPath).Int("rows", len(records)).Msg("CSV written")
	return nil
}

type object struct {
	keys   []string
	values map[string]string
}

// readObjects decodes a JSON array of objects, keeping key order.
func readObjects(r io.Reader) ([]object, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("expected JSON array")
	}

	var out []object
	for dec.More() {
		obj, err := readObject(dec)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func readObject(dec *json.Decoder) (object, error) {
	obj := object{values: make(map[string]string)}

	tok, err := dec.Token()
	if err != nil {
		return obj, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return obj, fmt.Errorf("expected JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return obj, err
		}
		key, ok := tok.(string)
		if !ok {
			return obj, fmt.Errorf("expected object key, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return obj, err
		}
		if _, seen := obj.values[key]; !seen {
			obj.keys = append(obj.keys, key)
		}
		obj.values[key] = cellValue(raw)
	}

	if _, err := dec.Token(); err != nil {
		return obj, err
	}
	return obj, nil
}

// cellValue renders a JSON value for a CSV cell: strings unquoted, null
// empty, anything else as its JSON text.
func cellValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
