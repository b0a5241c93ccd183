package model

import "time"

type House struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	InviteCode string    `json:"invite_code"`
	CreatedBy  int64     `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	Members    []int64   `json:"members"`
}

// HasMember reports whether userID currently belongs to the house.
func (h *House) HasMember(userID int64) bool {
	for _, id := range h.Members {
		if id == userID {
			return true
		}
	}
	return false
}
