package language

import "testing"

func TestLookup(t *testing.T) {
	rt, ok := Lookup("python")
	if !ok {
		t.Fatal("Lookup(python) not found")
	}
	if rt.Version != "3.10.0" {
		t.Errorf("Version = %q, want %q", rt.Version, "3.10.0")
	}

	if _, ok := Lookup("cobol"); ok {
		t.Error("Lookup(cobol) should not be found")
	}
}

func TestAll_SortedAndComplete(t *testing.T) {
	all := All()
	if len(all) != 10 {
		t.Fatalf("len(All()) = %d, want 10", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Errorf("All() not sorted at %d: %q >= %q", i, all[i-1].ID, all[i].ID)
		}
	}
}

func TestRequiresSubscription(t *testing.T) {
	if RequiresSubscription(Free) {
		t.Errorf("%s must be free", Free)
	}
	for _, id := range []string{"python", "go", "typescript", ""} {
		if !RequiresSubscription(id) {
			t.Errorf("RequiresSubscription(%q) = false, want true", id)
		}
	}
}
