package session

import (
	"testing"
	"time"
)

func TestSetGetDelete(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set(1, "page", 3)
	if v, ok := c.GetInt(1, "page"); !ok || v != 3 {
		t.Fatalf("GetInt = %v, %v; want 3, true", v, ok)
	}
	if _, ok := c.Get(1, "other"); ok {
		t.Fatal("unexpected value for unset key")
	}
	if _, ok := c.Get(2, "page"); ok {
		t.Fatal("unexpected value for other user")
	}

	c.Delete(1, "page")
	if _, ok := c.Get(1, "page"); ok {
		t.Fatal("value survived Delete")
	}
}

func TestClearDropsAllKeys(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set(1, "a", 1)
	c.Set(1, "b", 2)
	c.Clear(1)
	if _, ok := c.Get(1, "a"); ok {
		t.Fatal("value survived Clear")
	}
}

func TestStaleEntriesEvicted(t *testing.T) {
	c := NewCache(10 * time.Millisecond)
	c.Set(1, "page", 3)
	time.Sleep(25 * time.Millisecond)

	// Touching another user triggers lazy eviction of the stale entry.
	c.Set(2, "page", 1)
	if _, ok := c.Get(1, "page"); ok {
		t.Fatal("stale entry was not evicted")
	}
}

func TestGetIntRejectsWrongType(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set(1, "page", "three")
	if _, ok := c.GetInt(1, "page"); ok {
		t.Fatal("GetInt accepted a non-int value")
	}
}
