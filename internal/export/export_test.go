package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "json_files", "filtered_strings.json")

	require.NoError(t, SaveJSON(path, Filtered{Filtered: []string{"Terms & <Conditions>", "Café"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"filtered\": [\n        \"Terms & <Conditions>\",\n        \"Café\"\n    ]\n}\n", string(data))
}

func TestSaveTranslations_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "translations.json")

	require.NoError(t, SaveTranslations(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestTranslationRecord_Translated(t *testing.T) {
	assert.True(t, TranslationRecord{English: "Save", Translation: "Enregistrer"}.Translated())
	assert.False(t, TranslationRecord{English: "Save", Translation: TranslationMissing}.Translated())
	assert.False(t, TranslationRecord{English: "Save", Translation: "Error: timeout"}.Translated())
}

func TestCSVPath(t *testing.T) {
	assert.Equal(t, filepath.Join("csv_files", "english_fr_strings.csv"), CSVPath("FR"))
}

func TestWriteJSONToCSV_Translations(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, TranslationsJSON)
	csvPath := filepath.Join(dir, CSVPath("fr"))

	require.NoError(t, SaveTranslations(jsonPath, []TranslationRecord{
		{English: "Save", Translation: "Enregistrer"},
		{English: "Hello, world", Translation: "Bonjour, \"monde\""},
	}))
	require.NoError(t, WriteJSONToCSV(jsonPath, csvPath))

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "english,french\r\nSave,Enregistrer\r\n\"Hello, world\",\"Bonjour, \"\"monde\"\"\"\r\n", string(data))
}

func TestWriteJSONToCSV_KeyOrderAndMissingFields(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "in.json")
	csvPath := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[
		{"zeta": "1", "alpha": 2, "mid": null},
		{"alpha": true, "zeta": "z"}
	]`), 0644))

	require.NoError(t, WriteJSONToCSV(jsonPath, csvPath))

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "zeta,alpha,mid\r\n1,2,\r\nz,true,\r\n", string(data))
}

func TestWriteJSONToCSV_UnknownField(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"a":"1"},{"a":"2","b":"3"}]`), 0644))

	err := WriteJSONToCSV(jsonPath, filepath.Join(dir, "out.csv"))
	assert.ErrorContains(t, err, `field "b" not in header`)
}

func TestWriteJSONToCSV_Empty(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out.csv")

	for _, content := range []string{`[]`, `null`, ``} {
		jsonPath := filepath.Join(dir, "in.json")
		require.NoError(t, os.WriteFile(jsonPath, []byte(content), 0644))

		require.NoError(t, WriteJSONToCSV(jsonPath, csvPath), "content %q", content)
		assert.NoFileExists(t, csvPath)
	}
}

func TestWriteJSONToCSV_Errors(t *testing.T) {
	dir := t.TempDir()

	err := WriteJSONToCSV(filepath.Join(dir, "missing.json"), filepath.Join(dir, "out.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	jsonPath := filepath.Join(dir, "obj.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"a":"1"}`), 0644))
	assert.ErrorContains(t, WriteJSONToCSV(jsonPath, filepath.Join(dir, "out.csv")), "expected JSON array")
}
