package components

import (
	"testing"

	"github.com/rebeliceyang/lazydb/internal/models"
)

func TestParseSearchQuery_Simple(t *testing.T) {
	q := ParseSearchQuery("plan")

	if q.Pattern != "plan" {
		t.Errorf("expected pattern 'plan', got '%s'", q.Pattern)
	}
	if q.Negate {
		t.Error("expected Negate=false")
	}
	if q.TypeFilter != "" {
		t.Errorf("expected empty TypeFilter, got '%s'", q.TypeFilter)
	}
}

func TestParseSearchQuery_NegateWithType(t *testing.T) {
	q := ParseSearchQuery("!s:audit")

	if q.Pattern != "audit" {
		t.Errorf("expected pattern 'audit', got '%s'", q.Pattern)
	}
	if !q.Negate {
		t.Error("expected Negate=true")
	}
	if q.TypeFilter != models.TreeNodeTypeSchema {
		t.Errorf("expected schema filter, got '%s'", q.TypeFilter)
	}
}

func TestParseSearchQuery_LongPrefix(t *testing.T) {
	q := ParseSearchQuery("DB:shop")

	if q.Pattern != "shop" {
		t.Errorf("expected pattern 'shop', got '%s'", q.Pattern)
	}
	if q.TypeFilter != models.TreeNodeTypeDatabase {
		t.Errorf("expected database filter, got '%s'", q.TypeFilter)
	}
}

func TestFuzzyMatch_Subsequence(t *testing.T) {
	match, positions := FuzzyMatch("pcr", "plan_check_run")

	if !match {
		t.Error("expected match")
	}
	if len(positions) != 3 || positions[0] != 0 || positions[1] != 5 || positions[2] != 11 {
		t.Errorf("expected positions [0 5 11], got %v", positions)
	}
}

func TestFuzzyMatch_NoMatch(t *testing.T) {
	if match, _ := FuzzyMatch("xyz", "plan_check_run"); match {
		t.Error("expected no match")
	}
}

func TestFuzzyMatch_CaseInsensitive(t *testing.T) {
	if match, _ := FuzzyMatch("USR", "users"); !match {
		t.Error("expected match")
	}
}

func createFilterTestTree() *models.TreeNode {
	return models.BuildDatabaseTree([]models.Database{{
		Name: "app",
		Tables: []models.TableRef{
			{Database: "app", Schema: "public", Name: "users"},
			{Database: "app", Schema: "public", Name: "user_roles"},
			{Database: "app", Schema: "public", Name: "teams"},
			{Database: "app", Schema: "audit", Name: "user_events"},
		},
	}})
}

func labels(nodes []*models.TreeNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Label
	}
	return out
}

func TestFilterTree_TablesByDefault(t *testing.T) {
	matches := FilterTree(createFilterTestTree(), ParseSearchQuery("user"))

	got := labels(matches)
	want := []string{"users", "user_roles", "user_events"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
			break
		}
	}
}

func TestFilterTree_IncludesCollapsedSchemas(t *testing.T) {
	matches := FilterTree(createFilterTestTree(), ParseSearchQuery("events"))

	if len(matches) != 1 || matches[0].Label != "user_events" {
		t.Errorf("expected user_events from the collapsed audit schema, got %v", labels(matches))
	}
}

func TestFilterTree_Negate(t *testing.T) {
	matches := FilterTree(createFilterTestTree(), ParseSearchQuery("!user"))

	if len(matches) != 1 || matches[0].Label != "teams" {
		t.Errorf("expected only teams, got %v", labels(matches))
	}
}

func TestFilterTree_SchemaPrefix(t *testing.T) {
	matches := FilterTree(createFilterTestTree(), ParseSearchQuery("s:aud"))

	if len(matches) != 1 || matches[0].Type != models.TreeNodeTypeSchema {
		t.Errorf("expected the audit schema, got %v", labels(matches))
	}
}
