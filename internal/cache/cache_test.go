package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslationCache_MemoryOnly(t *testing.T) {
	ctx := context.Background()
	c := NewTranslationCache(nil)

	assert.False(t, c.Persistent())
	require.NoError(t, c.EnsureSchema(ctx))
	require.NoError(t, c.Preload(ctx, "FR"))

	_, ok := c.Get(ctx, "Save", "FR")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "Save", "FR", "Enregistrer"))
	got, ok := c.Get(ctx, "Save", "fr")
	assert.True(t, ok)
	assert.Equal(t, "Enregistrer", got)

	_, ok = c.Get(ctx, "Save", "DE")
	assert.False(t, ok, "languages are cached separately")
	assert.Equal(t, 1, c.Len())
}

func TestTranslationCache_SetBatch(t *testing.T) {
	ctx := context.Background()
	c := NewTranslationCache(nil)

	require.NoError(t, c.SetBatch(ctx, "DE", map[string]string{
		"Save":   "Speichern",
		"Cancel": "Abbrechen",
	}))

	got, ok := c.Get(ctx, "Cancel", "DE")
	assert.True(t, ok)
	assert.Equal(t, "Abbrechen", got)
	assert.Equal(t, 2, c.Len())
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("Save", "fr"), Key("Save", "FR"))
	assert.NotEqual(t, Key("Save", "FR"), Key("Save", "DE"))
	assert.Len(t, Key("Save", "FR"), 64)
}
