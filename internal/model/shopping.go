package model

import "time"

type ShoppingStatus string

const (
	ShoppingPending   ShoppingStatus = "pending"
	ShoppingPurchased ShoppingStatus = "purchased"
)

type ShoppingItem struct {
	ID              int64          `json:"id"`
	HouseID         int64          `json:"house_id"`
	Name            string         `json:"name"`
	Quantity        int            `json:"quantity"`
	RequestedBy     int64          `json:"requested_by"`
	RequestedByName string         `json:"requested_by_name"`
	Status          ShoppingStatus `json:"status"`
	PurchasedBy     *int64         `json:"purchased_by"`
	PurchasedAt     *time.Time     `json:"purchased_at"`
	CreatedAt       time.Time      `json:"created_at"`
}
