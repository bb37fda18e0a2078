package models

import (
	"time"

	"github.com/google/uuid"
)

// Progress window keys
const (
	WindowTotal   = "total-progress"
	WindowMonthly = "monthly-progress"
	WindowWeekly  = "weekly-progress"
	WindowDaily   = "daily-progress"
)

// Windows lists every window key in reporting order
var Windows = []string{WindowTotal, WindowMonthly, WindowWeekly, WindowDaily}

// Progress is the pair of counters reported for a window
type Progress struct {
	Learned int `json:"learned"`
	Added   int `json:"added"`
}

// Snapshot maps window keys to counters
type Snapshot map[string]Progress

// OwnerProgress is one row of a per-owner grouped count
type OwnerProgress struct {
	OwnerUserAccountID uuid.UUID `db:"owner_user_account_id"`
	Learned            int       `db:"learned"`
	Added              int       `db:"added"`
}

// ProgressMessage is broadcast once a day for every owner
type ProgressMessage struct {
	OwnerUserAccountID uuid.UUID `json:"ownerUserAccountId"`
	Progress           Snapshot  `json:"progress"`
	Timestamp          time.Time `json:"timestamp"`
}
