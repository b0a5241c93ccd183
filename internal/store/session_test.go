package store

import (
	"context"
	"testing"
	"time"
)

func TestSessionCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	us, ss := NewUserStore(db), NewSessionStore(db)
	ctx := context.Background()
	u := mustCreateUser(t, us, "alice@example.com", "Alice")

	sess, err := ss.Create(ctx, u.ID, time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}
	if sess.UserID != u.ID {
		t.Errorf("user_id = %d, want %d", sess.UserID, u.ID)
	}

	got, err := ss.GetByToken(ctx, sess.Token)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Fatalf("get session = %+v, want id %d", got, sess.ID)
	}

	missing, err := ss.GetByToken(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("unknown token = (%v, %v), want (nil, nil)", missing, err)
	}
}

func TestSessionExpired(t *testing.T) {
	db := setupTestDB(t)
	us, ss := NewUserStore(db), NewSessionStore(db)
	ctx := context.Background()
	u := mustCreateUser(t, us, "alice@example.com", "Alice")

	expired, _ := ss.Create(ctx, u.ID, -time.Minute)
	live, _ := ss.Create(ctx, u.ID, time.Hour)

	got, err := ss.GetByToken(ctx, expired.Token)
	if err != nil {
		t.Fatalf("get expired: %v", err)
	}
	if got != nil {
		t.Error("expired session should not be returned")
	}

	n, err := ss.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	if got, _ := ss.GetByToken(ctx, live.Token); got == nil {
		t.Error("live session should survive cleanup")
	}
}

func TestSessionDelete(t *testing.T) {
	db := setupTestDB(t)
	us, ss := NewUserStore(db), NewSessionStore(db)
	ctx := context.Background()
	u := mustCreateUser(t, us, "alice@example.com", "Alice")

	sess, _ := ss.Create(ctx, u.ID, time.Hour)
	if err := ss.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := ss.GetByToken(ctx, sess.Token); got != nil {
		t.Error("deleted session should not be returned")
	}
}
