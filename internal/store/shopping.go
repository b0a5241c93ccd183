package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/dukerupert/choreshare/internal/model"
)

type ShoppingStore struct {
	db *sql.DB
}

func NewShoppingStore(db *sql.DB) *ShoppingStore {
	return &ShoppingStore{db: db}
}

func scanShoppingItem(s scanner) (*model.ShoppingItem, error) {
	var item model.ShoppingItem
	var purchasedBy sql.NullInt64
	var purchasedAt sql.NullTime

	err := s.Scan(
		&item.ID, &item.HouseID, &item.Name, &item.Quantity, &item.RequestedBy,
		&item.RequestedByName, &item.Status, &purchasedBy, &purchasedAt, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if purchasedBy.Valid {
		item.PurchasedBy = &purchasedBy.Int64
	}
	if purchasedAt.Valid {
		item.PurchasedAt = &purchasedAt.Time
	}
	return &item, nil
}

const shoppingCols = `id, house_id, name, quantity, requested_by, requested_by_name, status, purchased_by, purchased_at, created_at`

func (s *ShoppingStore) Create(ctx context.Context, houseID int64, name string, quantity int, requestedBy int64, requestedByName string) (*model.ShoppingItem, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO shopping_items (house_id, name, quantity, requested_by, requested_by_name) VALUES (?, ?, ?, ?, ?)`,
		houseID, name, quantity, requestedBy, requestedByName,
	)
	if err != nil {
		return nil, fmt.Errorf("insert shopping item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ShoppingStore) GetByID(ctx context.Context, id int64) (*model.ShoppingItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shoppingCols+` FROM shopping_items WHERE id = ?`, id)
	item, err := scanShoppingItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping item: %w", err)
	}
	return item, nil
}

// List returns a house's items, pending first then newest first. An empty
// status lists every item.
func (s *ShoppingStore) List(ctx context.Context, houseID int64, status model.ShoppingStatus) ([]model.ShoppingItem, error) {
	where := sq.Eq{"house_id": houseID}
	if status != "" {
		where["status"] = string(status)
	}
	query, args, err := sq.Select(shoppingCols).From("shopping_items").
		Where(where).
		OrderBy("CASE status WHEN 'pending' THEN 0 ELSE 1 END", "created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build shopping query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	var items []model.ShoppingItem
	for rows.Next() {
		item, err := scanShoppingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Purchase marks a pending item purchased. Returns nil, nil if the item does
// not exist.
func (s *ShoppingStore) Purchase(ctx context.Context, id, userID int64, at time.Time) (*model.ShoppingItem, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}
	if existing.Status == model.ShoppingPurchased {
		return nil, ErrAlreadyPurchased
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE shopping_items SET status = ?, purchased_by = ?, purchased_at = ? WHERE id = ? AND status = ?`,
		model.ShoppingPurchased, userID, at.UTC(), id, model.ShoppingPending,
	)
	if err != nil {
		return nil, fmt.Errorf("purchase item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrAlreadyPurchased
	}
	return s.GetByID(ctx, id)
}

func (s *ShoppingStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM shopping_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete shopping item: %w", err)
	}
	return nil
}
