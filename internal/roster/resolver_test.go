package roster

import (
	"sort"
	"testing"
)

func TestResolverShortensUniqueRosterNames(t *testing.T) {
	r := NewResolver([]string{"Alice-Illidan", "Bob-Illidan"}, nil)

	if got, ok := r.Resolve("Alice-Illidan"); !ok || got != "Alice" {
		t.Errorf("Resolve(Alice-Illidan) = %q, %v; want Alice, true", got, ok)
	}
	// Sheet values without a realm suffix still resolve.
	if got, ok := r.Resolve("Bob"); !ok || got != "Bob" {
		t.Errorf("Resolve(Bob) = %q, %v; want Bob, true", got, ok)
	}
	if got, ok := r.Resolve("Bob-Illidan"); !ok || got != "Bob" {
		t.Errorf("Resolve(Bob-Illidan) = %q, %v; want Bob, true", got, ok)
	}
}

func TestResolverRecordsAmbiguousNames(t *testing.T) {
	r := NewResolver([]string{"Alice-Illidan", "Alice-Stormrage"}, nil)

	if _, ok := r.Resolve("Alice-Illidan"); ok {
		t.Error("ambiguous full name should not resolve")
	}
	if _, ok := r.Resolve("Alice-Stormrage"); ok {
		t.Error("ambiguous full name should not resolve")
	}
	if _, ok := r.Resolve("Alice"); ok {
		t.Error("ambiguous display should not resolve")
	}

	unresolved := r.Unresolved()
	sort.Strings(unresolved)
	want := []string{"Alice", "Alice-Illidan", "Alice-Stormrage"}
	if len(unresolved) != len(want) {
		t.Fatalf("unresolved = %v, want %v", unresolved, want)
	}
	for i := range want {
		if unresolved[i] != want[i] {
			t.Fatalf("unresolved = %v, want %v", unresolved, want)
		}
	}
}

func TestResolverUsesAltMappingForUnknownMain(t *testing.T) {
	r := NewResolver([]string{"Alice-Illidan"}, map[string]string{"Alty-Illidan": "Bob-Illidan"})

	if _, ok := r.Resolve("Alty-Illidan"); ok {
		t.Error("alias to unknown main should not resolve")
	}
	// The alias target is recorded, not the alias, so the operator sees
	// which roster entry is missing.
	unresolved := r.Unresolved()
	if len(unresolved) != 1 || unresolved[0] != "Bob-Illidan" {
		t.Errorf("unresolved = %v, want [Bob-Illidan]", unresolved)
	}
}

func TestResolverAcceptsShortRosterMains(t *testing.T) {
	r := NewResolver([]string{"Alice"}, nil)

	if got, ok := r.Resolve("Alice"); !ok || got != "Alice" {
		t.Errorf("Resolve(Alice) = %q, %v", got, ok)
	}
	if got, ok := r.Resolve("Alice-Illidan"); !ok || got != "Alice" {
		t.Errorf("Resolve(Alice-Illidan) = %q, %v", got, ok)
	}
}

func TestResolverMapsLongAliasTargetsToShortMain(t *testing.T) {
	r := NewResolver([]string{"Alice"}, map[string]string{"OldAlice-Illidan": "Alice-Illidan"})

	if got, ok := r.Resolve("OldAlice-Illidan"); !ok || got != "Alice" {
		t.Errorf("Resolve(OldAlice-Illidan) = %q, %v; want Alice, true", got, ok)
	}
}

func TestResolverResolvesAliasBase(t *testing.T) {
	r := NewResolver([]string{"Alice-Illidan"}, map[string]string{"Alty-Stormrage": "Alice-Illidan"})

	if got, ok := r.Resolve("Alty"); !ok || got != "Alice" {
		t.Errorf("Resolve(Alty) = %q, %v; want Alice, true", got, ok)
	}
}

func TestResolverAccumulatesAcrossCalls(t *testing.T) {
	r := NewResolver([]string{"Alice-Illidan"}, nil)

	r.Resolve("Stranger-Illidan")
	r.Resolve("Drifter-Illidan")
	r.Resolve("Alice")

	if got := len(r.Unresolved()); got != 2 {
		t.Errorf("len(Unresolved()) = %d, want 2", got)
	}
}

func TestResolverDisplays(t *testing.T) {
	r := NewResolver([]string{"Alice-Illidan", "Bob-Illidan", "Eve-A", "Eve-B"}, nil)

	displays := r.Displays()
	if len(displays) != 2 {
		t.Fatalf("len(Displays()) = %d, want 2", len(displays))
	}
	for _, want := range []string{"Alice", "Bob"} {
		if _, ok := displays[want]; !ok {
			t.Errorf("Displays() missing %q", want)
		}
	}
}
