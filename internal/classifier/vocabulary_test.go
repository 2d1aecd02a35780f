package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadVocabularyEmptyPathReturnsDefaults(t *testing.T) {
	vocab, err := LoadVocabulary("")
	require.NoError(t, err)

	assert.Equal(t, DefaultVocabulary(), vocab)
}

func TestLoadVocabularyOverridesSelectively(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	content := `
deposit:
  - aufladung
default_category: misc
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	vocab, err := LoadVocabulary(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"aufladung"}, vocab.Deposit)
	assert.Equal(t, "misc", vocab.DefaultCategory)
	// Untouched tables keep their defaults.
	assert.Equal(t, DefaultVocabulary().Drinks, vocab.Drinks)
	assert.Equal(t, DefaultVocabulary().PaidTokens, vocab.PaidTokens)
}

func TestLoadVocabularyMissingFile(t *testing.T) {
	_, err := LoadVocabulary(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadVocabularyMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("deposit: [unclosed"), 0o600))

	_, err := LoadVocabulary(path)
	assert.Error(t, err)
}
