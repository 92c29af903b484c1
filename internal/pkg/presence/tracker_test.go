package presence

import (
	"testing"
	"time"
)

func rec(userID string) Record {
	return Record{UserID: userID, DisplayName: userID, OnlineAt: time.Now().UTC()}
}

func TestJoinReportsFirstSessionOnly(t *testing.T) {
	tr := NewTracker()

	if !tr.Join(rec("alice")) {
		t.Fatalf("expected first session to bring the user online")
	}
	if tr.Join(rec("alice")) {
		t.Fatalf("expected second session not to re-announce")
	}
	if tr.OnlineCount() != 1 {
		t.Fatalf("expected one distinct user online, got %d", tr.OnlineCount())
	}
}

func TestLeaveReportsLastSessionOnly(t *testing.T) {
	tr := NewTracker()
	tr.Join(rec("alice"))
	tr.Join(rec("alice"))

	if tr.Leave("alice") {
		t.Fatalf("expected user to stay online while a session remains")
	}
	if !tr.IsOnline("alice") {
		t.Fatalf("expected alice online with one session left")
	}
	if !tr.Leave("alice") {
		t.Fatalf("expected last leave to take the user offline")
	}
	if tr.IsOnline("alice") {
		t.Fatalf("expected alice offline after last session left")
	}
}

func TestLeaveUnknownUserIsNoop(t *testing.T) {
	tr := NewTracker()
	if tr.Leave("ghost") {
		t.Fatalf("expected leave of unknown user to report nothing")
	}
}

func TestSnapshotAndBulkStatus(t *testing.T) {
	tr := NewTracker()
	tr.Join(rec("alice"))
	tr.Join(rec("bob"))

	snap := tr.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected two members in snapshot, got %d", len(snap))
	}

	status := tr.BulkStatus([]string{"alice", "bob", "carol"})
	if !status["alice"] || !status["bob"] || status["carol"] {
		t.Fatalf("unexpected bulk status: %v", status)
	}
}

func TestSyncReplacesMembership(t *testing.T) {
	tr := NewTracker()
	tr.Join(rec("alice"))

	tr.Sync([]Record{rec("bob"), rec("carol")})
	if tr.IsOnline("alice") {
		t.Fatalf("expected alice dropped by sync")
	}
	if !tr.IsOnline("bob") || !tr.IsOnline("carol") {
		t.Fatalf("expected synced members online")
	}
}
