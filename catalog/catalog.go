// Package catalog filters and orders the tool list in memory.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"toolrent-cli/api"
)

type SortOrder string

const (
	SortRelevance SortOrder = "relevance"
	SortPriceAsc  SortOrder = "price-asc"
	SortPriceDesc SortOrder = "price-desc"
)

func ParseSortOrder(value string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(value))) {
	case "", SortRelevance:
		return SortRelevance, nil
	case SortPriceAsc:
		return SortPriceAsc, nil
	case SortPriceDesc:
		return SortPriceDesc, nil
	}
	return "", fmt.Errorf("invalid sort %q (expected relevance, price-asc or price-desc)", value)
}

type Query struct {
	Search     string
	Category   string
	Sort       SortOrder
	IgnoreCase bool
}

// Filter returns the tools whose name or description contains q.Search and
// whose category equals q.Category when set. Matching is case-sensitive
// unless q.IgnoreCase is set. The input slice is left untouched.
func Filter(tools []api.Tool, q Query) []api.Tool {
	needle := q.Search
	if q.IgnoreCase {
		needle = strings.ToLower(needle)
	}

	result := make([]api.Tool, 0, len(tools))
	for _, tool := range tools {
		if q.Category != "" && tool.Category != q.Category {
			continue
		}
		if needle != "" && !matches(tool, needle, q.IgnoreCase) {
			continue
		}
		result = append(result, tool)
	}

	switch q.Sort {
	case SortPriceAsc:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].DailyPrice < result[j].DailyPrice
		})
	case SortPriceDesc:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].DailyPrice > result[j].DailyPrice
		})
	}
	return result
}

func matches(tool api.Tool, needle string, ignoreCase bool) bool {
	name, description := tool.Name, tool.Description
	if ignoreCase {
		name = strings.ToLower(name)
		description = strings.ToLower(description)
	}
	return strings.Contains(name, needle) || strings.Contains(description, needle)
}

// Categories returns the distinct non-empty categories, sorted.
func Categories(tools []api.Tool) []string {
	set := map[string]struct{}{}
	for _, tool := range tools {
		if tool.Category == "" {
			continue
		}
		set[tool.Category] = struct{}{}
	}
	categories := make([]string, 0, len(set))
	for c := range set {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}
