package cache

import (
	"testing"
	"time"

	"stoneyard/models"
)

func TestSessionCacheRoundTrip(t *testing.T) {
	c := NewSessionCache()
	s := models.Session{ID: "tok-1", StaffID: 7, ExpiresAt: time.Now().Add(time.Hour)}
	c.Add(s)

	got, ok := c.Find("tok-1")
	if !ok || got.StaffID != 7 {
		t.Fatalf("find: got %+v ok=%v", got, ok)
	}

	c.Delete("tok-1")
	if _, ok := c.Find("tok-1"); ok {
		t.Fatal("expected token gone after delete")
	}
}

func TestSessionCacheSweep(t *testing.T) {
	c := NewSessionCache()
	now := time.Now()
	c.Add(models.Session{ID: "live", ExpiresAt: now.Add(time.Hour)})
	c.Add(models.Session{ID: "stale-1", ExpiresAt: now.Add(-time.Minute)})
	c.Add(models.Session{ID: "stale-2", ExpiresAt: now.Add(-2 * time.Hour)})

	if n := c.Sweep(now); n != 2 {
		t.Fatalf("swept %d, want 2", n)
	}
	if _, ok := c.Find("live"); !ok {
		t.Fatal("live session must survive sweep")
	}
	if _, ok := c.Find("stale-1"); ok {
		t.Fatal("stale session must be swept")
	}
}
