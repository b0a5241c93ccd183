package store

import (
	"database/sql"
	"errors"
	"time"
)

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrInviteCodeNotFound   = errors.New("invite code not found")
	ErrAlreadyInHouse       = errors.New("user already belongs to a house")
	ErrCreatorMustStay      = errors.New("house creator cannot leave while other members remain")
	ErrWeekAlreadyGenerated = errors.New("assignments already generated for week")
	ErrNotAssignee          = errors.New("assignment belongs to another user")
	ErrNotPending           = errors.New("assignment is not pending")
	ErrAlreadyPurchased     = errors.New("item already purchased")
)

type scanner interface {
	Scan(...any) error
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullInt64Ptr(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
