package components

import (
	"strings"

	"github.com/rebeliceyang/lazydb/internal/models"
)

// SearchQuery represents a parsed table list filter
type SearchQuery struct {
	Pattern    string // The search pattern (after removing prefix/type)
	Negate     bool   // True if query starts with !
	TypeFilter models.TreeNodeType
}

// Type prefix mappings, longest first so "db:" is not read as "d"
var typePrefixes = []struct {
	prefix   string
	nodeType models.TreeNodeType
}{
	{"database:", models.TreeNodeTypeDatabase},
	{"schema:", models.TreeNodeTypeSchema},
	{"table:", models.TreeNodeTypeTable},
	{"db:", models.TreeNodeTypeDatabase},
	{"s:", models.TreeNodeTypeSchema},
	{"t:", models.TreeNodeTypeTable},
}

// ParseSearchQuery parses a filter string into structured form
// Examples:
//   - "user" → {Pattern: "user"}
//   - "!tmp" → {Pattern: "tmp", Negate: true}
//   - "s:aud" → {Pattern: "aud", TypeFilter: schema}
func ParseSearchQuery(query string) SearchQuery {
	q := SearchQuery{}

	if strings.HasPrefix(query, "!") {
		q.Negate = true
		query = query[1:]
	}

	queryLower := strings.ToLower(query)
	for _, p := range typePrefixes {
		if strings.HasPrefix(queryLower, p.prefix) {
			q.TypeFilter = p.nodeType
			query = query[len(p.prefix):]
			break
		}
	}

	q.Pattern = query
	return q
}

// FuzzyMatch performs case-insensitive subsequence matching and returns the
// byte positions of the matched characters
func FuzzyMatch(pattern, target string) (bool, []int) {
	if pattern == "" {
		return true, []int{}
	}

	patternLower := strings.ToLower(pattern)
	targetLower := strings.ToLower(target)

	positions := make([]int, 0, len(pattern))
	patternIdx := 0

	for i := 0; i < len(targetLower) && patternIdx < len(patternLower); i++ {
		if targetLower[i] == patternLower[patternIdx] {
			positions = append(positions, i)
			patternIdx++
		}
	}

	if patternIdx == len(patternLower) {
		return true, positions
	}
	return false, nil
}

// FilterTree returns the matching nodes as a flat list in tree order. Without a
// type prefix only tables are considered.
func FilterTree(root *models.TreeNode, query SearchQuery) []*models.TreeNode {
	var matches []*models.TreeNode

	wantType := query.TypeFilter
	if wantType == "" {
		wantType = models.TreeNodeTypeTable
	}

	var traverse func(node *models.TreeNode)
	traverse = func(node *models.TreeNode) {
		if node == nil {
			return
		}

		if node.Type == wantType {
			matched, _ := FuzzyMatch(query.Pattern, node.Label)
			if matched != query.Negate {
				matches = append(matches, node)
			}
		}

		for _, child := range node.Children {
			traverse(child)
		}
	}

	traverse(root)
	return matches
}
