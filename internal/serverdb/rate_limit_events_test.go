package serverdb

import (
	"testing"
	"time"
)

func TestInsertRateLimitEvent(t *testing.T) {
	db := newTestDB(t)
	if err := db.InsertRateLimitEvent("192.168.1.1", "ingest"); err != nil {
		t.Fatalf("insert rate limit event: %v", err)
	}

	events, err := db.RecentRateLimitEvents(10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.IP != "192.168.1.1" {
		t.Errorf("expected ip 192.168.1.1, got %s", e.IP)
	}
	if e.EndpointClass != "ingest" {
		t.Errorf("expected endpoint_class ingest, got %s", e.EndpointClass)
	}
}

func TestRecentRateLimitEventsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	db.InsertRateLimitEvent("1.1.1.1", "ingest")
	db.InsertRateLimitEvent("2.2.2.2", "other")
	db.InsertRateLimitEvent("3.3.3.3", "other")

	events, err := db.RecentRateLimitEvents(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].IP != "3.3.3.3" || events[1].IP != "2.2.2.2" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestCleanupRateLimitEvents(t *testing.T) {
	db := newTestDB(t)

	const dtFmt = "2006-01-02 15:04:05"
	now := time.Now().UTC()
	old := now.Add(-48 * time.Hour).Format(dtFmt)
	recent := now.Add(-1 * time.Hour).Format(dtFmt)

	db.conn.Exec(`INSERT INTO rate_limit_events (ip, endpoint_class, created_at) VALUES (?, ?, ?)`, "1.1.1.1", "ingest", old)
	db.conn.Exec(`INSERT INTO rate_limit_events (ip, endpoint_class, created_at) VALUES (?, ?, ?)`, "2.2.2.2", "other", recent)
	db.InsertRateLimitEvent("3.3.3.3", "other")

	deleted, err := db.CleanupRateLimitEvents(24 * time.Hour)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}

	events, err := db.RecentRateLimitEvents(10)
	if err != nil {
		t.Fatalf("query after cleanup: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 remaining events, got %d", len(events))
	}
}

func TestCleanupRateLimitEvents_NothingToDelete(t *testing.T) {
	db := newTestDB(t)
	db.InsertRateLimitEvent("1.1.1.1", "ingest")

	deleted, err := db.CleanupRateLimitEvents(24 * time.Hour)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("expected 0 deleted, got %d", deleted)
	}
}
