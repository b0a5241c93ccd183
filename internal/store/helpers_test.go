package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/choreshare/internal/database"
	"github.com/dukerupert/choreshare/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustCreateUser(t *testing.T, us *UserStore, email, name string) *model.User {
	t.Helper()
	u, err := us.Create(context.Background(), email, name, "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func mustCreateHouse(t *testing.T, hs *HouseStore, name string, creatorID int64) *model.House {
	t.Helper()
	h, err := hs.Create(context.Background(), name, creatorID)
	if err != nil {
		t.Fatalf("create house: %v", err)
	}
	return h
}
