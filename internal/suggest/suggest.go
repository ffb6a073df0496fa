// Package suggest finds near matches for mistyped equipment names and CLI
// flags. Equipment uses fzf-style fuzzy matching with an edit-distance
// fallback; flags use edit distance only.
package suggest

import (
	"sort"
	"strings"

	"github.com/maprix/maprix/internal/models"
	"github.com/sahilm/fuzzy"
)

const maxSuggestions = 3

// levenshtein calculates the edit distance between two strings
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}

// assetSource adapts asset names for the fuzzy library.
type assetSource []models.Asset

func (s assetSource) String(i int) string { return models.NormalizeName(s[i].Name) }
func (s assetSource) Len() int            { return len(s) }

// Equipment returns up to three registered names close to name, best first.
func Equipment(name string, assets []models.Asset) []string {
	query := models.NormalizeName(name)
	if query == "" || len(assets) == 0 {
		return nil
	}

	var result []string
	seen := make(map[string]bool)
	add := func(n string) {
		if !seen[n] && len(result) < maxSuggestions {
			seen[n] = true
			result = append(result, n)
		}
	}

	matches := fuzzy.FindFrom(query, assetSource(assets))
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	for _, m := range matches {
		add(assets[m.Index].Name)
	}

	names := make([]string, len(assets))
	for i, a := range assets {
		names[i] = a.Name
	}
	for _, n := range closest(query, names, models.NormalizeName) {
		add(n)
	}
	return result
}

type scored struct {
	value string
	score int
}

// closest returns candidates within the edit budget, lowest distance first.
func closest(query string, candidates []string, norm func(string) string) []string {
	var found []scored
	maxDist := max(2, len(query)/3)
	for _, c := range candidates {
		if d := levenshtein(query, norm(c)); d <= maxDist {
			found = append(found, scored{c, d})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].score < found[j].score })

	var result []string
	for i := 0; i < len(found) && i < maxSuggestions; i++ {
		result = append(result, found[i].value)
	}
	return result
}

// Flag finds similar flags from a list of valid flags
// Returns suggestions sorted by similarity (best first)
func Flag(unknown string, validFlags []string) []string {
	unknown = strings.TrimLeft(unknown, "-")
	var found []scored
	maxDist := max(3, len(unknown)/2)
	for _, valid := range validFlags {
		if d := levenshtein(unknown, strings.TrimLeft(valid, "-")); d <= maxDist {
			found = append(found, scored{valid, d})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].score < found[j].score })

	var result []string
	for i := 0; i < len(found) && i < maxSuggestions; i++ {
		result = append(result, found[i].value)
	}
	return result
}

// CommonFlagAliases maps commonly attempted flags to their correct names
var CommonFlagAliases = map[string]string{
	"obs":         "--observation, -o",
	"observacao":  "--observation, -o",
	"note":        "--observation, -o",
	"latitude":    "--lat",
	"longitude":   "--lon",
	"equipamento": "use: maprix login <equipment> <operator>",
	"operador":    "use: maprix login <equipment> <operator>",
	"url":         "--server",
	"version":     "use: maprix version",
	"v":           "use: maprix version",
}

// GetFlagHint returns a hint for a commonly misused flag
func GetFlagHint(flag string) string {
	flag = strings.ToLower(strings.TrimLeft(flag, "-"))
	return CommonFlagAliases[flag]
}
