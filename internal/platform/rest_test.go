package platform

import (
	"strings"
	"testing"
)

func TestQueryPath(t *testing.T) {
	c := New("https://backend.test", "anon", nil)

	q := c.From("profiles").Select("*").Neq("id", "me")
	path := q.Path()
	if !strings.HasPrefix(path, "/rest/v1/profiles?") {
		t.Fatalf("path = %q", path)
	}
	if !strings.Contains(path, "select=%2A") && !strings.Contains(path, "select=*") {
		t.Errorf("missing select: %q", path)
	}
	if !strings.Contains(path, "id=neq.me") {
		t.Errorf("missing neq filter: %q", path)
	}
}

func TestQueryOrderAndLimit(t *testing.T) {
	c := New("https://backend.test", "anon", nil)
	path := c.From("messages").Order("created_at", true).Limit(30).Path()
	if !strings.Contains(path, "order=created_at.asc") {
		t.Errorf("missing ascending order: %q", path)
	}
	if !strings.Contains(path, "limit=30") {
		t.Errorf("missing limit: %q", path)
	}

	path = c.From("messages").Order("created_at", false).Path()
	if !strings.Contains(path, "order=created_at.desc") {
		t.Errorf("missing descending order: %q", path)
	}
}

func TestBetweenFilter(t *testing.T) {
	got := BetweenFilter("a", "b")
	want := "and(sender_id.eq.a,recipient_id.eq.b),and(sender_id.eq.b,recipient_id.eq.a)"
	if got != want {
		t.Errorf("BetweenFilter = %q, want %q", got, want)
	}
}
