package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Hash(""))
	assert.NotEqual(t, Hash("Save"), Hash("save"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Hello", Truncate("Hello", 5))
	assert.Equal(t, "Hel...", Truncate("Hello", 3))
	assert.Equal(t, "Ça...", Truncate("Ça va bien", 2))
}

func TestCharCount(t *testing.T) {
	assert.Equal(t, 0, CharCount(nil))
	assert.Equal(t, 9, CharCount([]string{"Save", "Prêt!"}))
}

func TestBatchCount(t *testing.T) {
	assert.Equal(t, 0, BatchCount(0, 30))
	assert.Equal(t, 1, BatchCount(30, 30))
	assert.Equal(t, 2, BatchCount(31, 30))
	assert.Equal(t, 3, BatchCount(3, 0))
}
