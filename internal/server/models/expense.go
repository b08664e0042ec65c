package models

import "time"

// Expense is a single spending record owned by a user. ReceiptKey is the
// object-storage key of an attached receipt, empty when none was uploaded.
type Expense struct {
	ID          string
	UserID      string
	Amount      float64
	Description string
	Category    string
	ReceiptKey  string
	CreatedAt   time.Time
}
