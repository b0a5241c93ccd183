package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"strings"

	"github.com/dukerupert/choreshare/internal/model"
)

const (
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	inviteCodeLength   = 6
	inviteCodeAttempts = 10
)

type HouseStore struct {
	db *sql.DB
}

func NewHouseStore(db *sql.DB) *HouseStore {
	return &HouseStore{db: db}
}

func scanHouse(s scanner) (*model.House, error) {
	var h model.House
	err := s.Scan(&h.ID, &h.Name, &h.InviteCode, &h.CreatedBy, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const houseCols = `id, name, invite_code, created_by, created_at`

// GenerateInviteCode returns a random 6-character code from [A-Z0-9].
func GenerateInviteCode() (string, error) {
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	var b strings.Builder
	for i := 0; i < inviteCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate invite code: %w", err)
		}
		b.WriteByte(inviteCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// Create inserts a house and makes the creator its first member in one
// transaction. The creator must not already belong to a house.
func (s *HouseStore) Create(ctx context.Context, name string, creatorID int64) (*model.House, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT house_id FROM users WHERE id = ?`, creatorID).Scan(&current)
	if err != nil {
		return nil, fmt.Errorf("get creator: %w", err)
	}
	if current.Valid {
		return nil, ErrAlreadyInHouse
	}

	code, err := uniqueInviteCode(ctx, tx)
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO houses (name, invite_code, created_by) VALUES (?, ?, ?)`,
		name, code, creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert house: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET house_id = ? WHERE id = ?`, id, creatorID); err != nil {
		return nil, fmt.Errorf("set creator house: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(ctx, id)
}

func uniqueInviteCode(ctx context.Context, tx *sql.Tx) (string, error) {
	for i := 0; i < inviteCodeAttempts; i++ {
		code, err := GenerateInviteCode()
		if err != nil {
			return "", err
		}
		var exists int
		err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM houses WHERE invite_code = ?`, code).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("check invite code: %w", err)
		}
		if exists == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("no unique invite code after %d attempts", inviteCodeAttempts)
}

func (s *HouseStore) GetByID(ctx context.Context, id int64) (*model.House, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+houseCols+` FROM houses WHERE id = ?`, id)
	h, err := scanHouse(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get house: %w", err)
	}

	members, err := s.memberIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	h.Members = members
	return h, nil
}

func (s *HouseStore) GetByInviteCode(ctx context.Context, code string) (*model.House, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM houses WHERE invite_code = ?`, strings.ToUpper(strings.TrimSpace(code)),
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get house by invite code: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *HouseStore) memberIDs(ctx context.Context, houseID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users WHERE house_id = ? ORDER BY id ASC`, houseID)
	if err != nil {
		return nil, fmt.Errorf("list member ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListIDs returns every house id in ascending order.
func (s *HouseStore) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM houses ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list house ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan house id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Join adds the user to the house owning the invite code. Joining the house
// the user already belongs to is a no-op.
func (s *HouseStore) Join(ctx context.Context, userID int64, inviteCode string) (*model.House, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var houseID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM houses WHERE invite_code = ?`, strings.ToUpper(strings.TrimSpace(inviteCode)),
	).Scan(&houseID)
	if err == sql.ErrNoRows {
		return nil, ErrInviteCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find house: %w", err)
	}

	var current sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT house_id FROM users WHERE id = ?`, userID).Scan(&current); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if current.Valid && current.Int64 != houseID {
		return nil, ErrAlreadyInHouse
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET house_id = ? WHERE id = ?`, houseID, userID); err != nil {
		return nil, fmt.Errorf("set user house: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(ctx, houseID)
}

// Leave removes the user from their house. The creator may only leave as the
// last member, and the house is deleted once its last member leaves.
// It returns the id of the house left, or 0 if the user had none.
func (s *HouseStore) Leave(ctx context.Context, userID int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT house_id FROM users WHERE id = ?`, userID).Scan(&current); err != nil {
		return 0, fmt.Errorf("get user: %w", err)
	}
	if !current.Valid {
		return 0, nil
	}
	houseID := current.Int64

	var createdBy int64
	if err := tx.QueryRowContext(ctx, `SELECT created_by FROM houses WHERE id = ?`, houseID).Scan(&createdBy); err != nil {
		return 0, fmt.Errorf("get house: %w", err)
	}

	var members int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE house_id = ?`, houseID).Scan(&members); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}

	if createdBy == userID && members > 1 {
		return 0, ErrCreatorMustStay
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET house_id = NULL WHERE id = ?`, userID); err != nil {
		return 0, fmt.Errorf("clear user house: %w", err)
	}
	if members <= 1 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM houses WHERE id = ?`, houseID); err != nil {
			return 0, fmt.Errorf("delete house: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return houseID, nil
}

func (s *HouseStore) Rename(ctx context.Context, id int64, name string) (*model.House, error) {
	_, err := s.db.ExecContext(ctx, `UPDATE houses SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return nil, fmt.Errorf("rename house: %w", err)
	}
	return s.GetByID(ctx, id)
}
