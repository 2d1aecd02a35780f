package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vocabulary holds the keyword tables that drive row classification.
// The zero value is unusable; start from DefaultVocabulary or a YAML file.
type Vocabulary struct {
	// Deposit tokens classify a row as a payment ("Guthaben", "Einzahlung").
	Deposit []string `yaml:"deposit"`
	// Drinks tokens classify a row as a beverage consumption, unless an
	// exclusion token also matches.
	Drinks []string `yaml:"drinks"`
	// Exclusions override drink matches: bulk purchases like "Kasten Bier"
	// are fines for buying a case, not personal consumption.
	Exclusions []string `yaml:"exclusions"`
	// Categories maps a beverage category to its keywords.
	Categories map[string][]string `yaml:"categories"`
	// DefaultCategory is used when no category keyword matches.
	DefaultCategory string `yaml:"default_category"`
	// PaidTokens and UnpaidTokens are recognized paid-status spellings.
	PaidTokens   []string `yaml:"paid_tokens"`
	UnpaidTokens []string `yaml:"unpaid_tokens"`
	// Placeholders are player names that mark a row as unattributable.
	Placeholders []string `yaml:"placeholders"`
}

// DefaultVocabulary returns the built-in German vocabulary used by the
// club's ledger exports.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Deposit:    []string{"guthaben", "einzahlung"},
		Drinks:     []string{"bier", "weizen", "radler", "cola", "spezi", "wasser", "limo", "softdrink", "schnaps", "sekt", "wein"},
		Exclusions: []string{"kasten", "kiste", "fass", "träger"},
		Categories: map[string][]string{
			"beer":   {"bier", "weizen", "radler"},
			"soft":   {"cola", "spezi", "wasser", "limo", "softdrink"},
			"liquor": {"schnaps", "sekt", "wein"},
		},
		DefaultCategory: "sonstiges",
		PaidTokens:      []string{"paid", "bezahlt", "ja", "yes", "true", "wahr", "x"},
		UnpaidTokens:    []string{"no", "nein", "offen", "unbezahlt", "false", "falsch"},
		Placeholders:    []string{"unknown", "unbekannt"},
	}
}

// LoadVocabulary reads a vocabulary from a YAML file. Empty tables fall
// back to the built-in defaults, so a file can override selectively. An
// empty path returns the defaults unchanged.
func LoadVocabulary(path string) (Vocabulary, error) {
	if path == "" {
		return DefaultVocabulary(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("error reading vocabulary file: %w", err)
	}

	var vocab Vocabulary
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return Vocabulary{}, fmt.Errorf("error parsing vocabulary file: %w", err)
	}

	defaults := DefaultVocabulary()
	if len(vocab.Deposit) == 0 {
		vocab.Deposit = defaults.Deposit
	}
	if len(vocab.Drinks) == 0 {
		vocab.Drinks = defaults.Drinks
	}
	if len(vocab.Exclusions) == 0 {
		vocab.Exclusions = defaults.Exclusions
	}
	if len(vocab.Categories) == 0 {
		vocab.Categories = defaults.Categories
	}
	if vocab.DefaultCategory == "" {
		vocab.DefaultCategory = defaults.DefaultCategory
	}
	if len(vocab.PaidTokens) == 0 {
		vocab.PaidTokens = defaults.PaidTokens
	}
	if len(vocab.UnpaidTokens) == 0 {
		vocab.UnpaidTokens = defaults.UnpaidTokens
	}
	if len(vocab.Placeholders) == 0 {
		vocab.Placeholders = defaults.Placeholders
	}

	return vocab, nil
}
