package model

import "time"

type ChoreCategory string

const (
	CategoryKitchen    ChoreCategory = "kitchen"
	CategoryBathroom   ChoreCategory = "bathroom"
	CategoryLivingRoom ChoreCategory = "living_room"
	CategoryBedroom    ChoreCategory = "bedroom"
	CategoryTrash      ChoreCategory = "trash"
	CategoryOutdoor    ChoreCategory = "outdoor"
	CategoryOther      ChoreCategory = "other"
)

func (c ChoreCategory) Valid() bool {
	switch c {
	case CategoryKitchen, CategoryBathroom, CategoryLivingRoom, CategoryBedroom,
		CategoryTrash, CategoryOutdoor, CategoryOther:
		return true
	}
	return false
}

type Frequency string

const (
	FrequencyOnce    Frequency = "once"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyCustom  Frequency = "custom"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyCustom:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Chore struct {
	ID               int64         `json:"id"`
	HouseID          int64         `json:"house_id"`
	Name             string        `json:"name"`
	Category         ChoreCategory `json:"category"`
	Description      string        `json:"description"`
	EstimatedMinutes int           `json:"estimated_minutes"`
	Frequency        Frequency     `json:"frequency"`
	RepeatDays       []int         `json:"repeat_days"`
	StartDate        time.Time     `json:"start_date"`
	EndDate          *time.Time    `json:"end_date"`
	Priority         Priority      `json:"priority"`
	AssignedTo       *int64        `json:"assigned_to"`
	Deleted          bool          `json:"deleted"`
	CreatedAt        time.Time     `json:"created_at"`
}
