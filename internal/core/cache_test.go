package core

import (
	"fmt"
	"testing"
	"time"
)

func TestLRUTableEvictsLeastRecentlyUsed(t *testing.T) {
	table := newLRUTable(3, time.Minute)

	table.put("a", 1)
	table.put("b", 2)
	table.put("c", 3)

	// Touch "a" so "b" becomes the least recently used entry.
	if _, ok := table.get("a"); !ok {
		t.Fatal("expected hit for a")
	}

	if evicted := table.put("d", 4); evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if _, ok := table.get("b"); ok {
		t.Error("b should have been evicted as least recently used")
	}
	if _, ok := table.get("a"); !ok {
		t.Error("a should have survived eviction")
	}
	if table.len() != 3 {
		t.Errorf("table size = %d, want 3", table.len())
	}
}

func TestLRUTableNeverExceedsBound(t *testing.T) {
	table := newLRUTable(5, time.Minute)
	for i := 0; i < 50; i++ {
		table.put(fmt.Sprintf("key-%d", i), i)
		if table.len() > 5 {
			t.Fatalf("table size %d exceeds bound 5 after insert %d", table.len(), i)
		}
	}
}

func TestLRUTableExpiry(t *testing.T) {
	table := newLRUTable(10, time.Minute)
	current := time.Unix(1000, 0)
	table.setClock(func() time.Time { return current })

	table.put("a", 1)
	if _, ok := table.get("a"); !ok {
		t.Fatal("expected hit before expiry")
	}

	current = current.Add(2 * time.Minute)
	if _, ok := table.get("a"); ok {
		t.Error("expected miss after expiry")
	}
	if table.len() != 0 {
		t.Errorf("expired entry not removed on access, size = %d", table.len())
	}
}

func TestLRUTableSweep(t *testing.T) {
	table := newLRUTable(10, time.Minute)
	current := time.Unix(1000, 0)
	table.setClock(func() time.Time { return current })

	table.put("a", 1)
	table.put("b", 2)
	current = current.Add(30 * time.Second)
	table.put("c", 3)

	current = current.Add(45 * time.Second)
	if removed := table.sweep(); removed != 2 {
		t.Errorf("sweep removed %d entries, want 2", removed)
	}
	if _, ok := table.get("c"); !ok {
		t.Error("unexpired entry removed by sweep")
	}
}
