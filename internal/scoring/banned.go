package scoring

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed banned_terms.json
var defaultBannedJSON []byte

// DefaultBannedTerms returns the built-in compliance list.
func DefaultBannedTerms() []string {
	terms, err := parseBannedTerms(defaultBannedJSON)
	if err != nil {
		panic(fmt.Sprintf("scoring: embedded banned terms: %v", err))
	}
	return terms
}

// LoadBannedTerms reads a banned-term file. An empty path yields the built-in list.
// The file holds either a JSON array of terms or an object of category -> terms.
func LoadBannedTerms(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultBannedTerms(), nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read banned terms: %w", err)
	}
	terms, err := parseBannedTerms(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal banned terms: %w", err)
	}
	return terms, nil
}

func parseBannedTerms(data []byte) ([]string, error) {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		return cleanTerms(list), nil
	}
	var grouped map[string][]string
	if err := json.Unmarshal(data, &grouped); err != nil {
		return nil, err
	}
	categories := make([]string, 0, len(grouped))
	for k := range grouped {
		categories = append(categories, k)
	}
	sort.Strings(categories)
	for _, k := range categories {
		list = append(list, grouped[k]...)
	}
	return cleanTerms(list), nil
}

func cleanTerms(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, term := range raw {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		key := strings.ToLower(term)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, term)
	}
	return out
}
