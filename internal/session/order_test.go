package session

import "testing"

func ids(ss []Session) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.ID
	}
	return out
}

func TestSortByCreatedDesc_ParsesMixedZones(t *testing.T) {
	// Lexicographic order would put "b" first; by instant "a" is newer.
	ss := []Session{
		{ID: "b", CreatedAt: "2024-01-01T10:00:00+00:00"},
		{ID: "a", CreatedAt: "2024-01-01T09:30:00-02:00"},
		{ID: "c", CreatedAt: "2023-12-31T23:59:59.123456"},
	}
	SortByCreatedDesc(ss)
	got := ids(ss)
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestSortByCreatedDesc_FallsBackToStrings(t *testing.T) {
	ss := []Session{
		{ID: "1", CreatedAt: "alpha"},
		{ID: "2", CreatedAt: "2024-01-01T00:00:00Z"},
		{ID: "3", CreatedAt: "zulu"},
	}
	SortByCreatedDesc(ss)
	got := ids(ss)
	want := []string{"3", "1", "2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestSortByCreatedDesc_TiesBreakOnID(t *testing.T) {
	ss := []Session{
		{ID: "z", CreatedAt: "2024-01-01T00:00:00Z"},
		{ID: "a", CreatedAt: "2024-01-01T00:00:00Z"},
	}
	SortByCreatedDesc(ss)
	if ss[0].ID != "a" {
		t.Fatalf("expected tie broken by id, got %v", ids(ss))
	}
}
