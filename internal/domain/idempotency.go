package domain

import "time"

// Idempotency records the outcome of a previously processed POST, keyed by
// (scope, key). A retry with the same Idempotency-Key replays RecordID instead
// of admitting the scan again.
type Idempotency struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Scope     string    `gorm:"type:varchar(160);not null;uniqueIndex:ux_idem_scope_key,priority:1"`
	Key       string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_idem_scope_key,priority:2"`
	RecordID  uint      `gorm:"not null"`
	Status    int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
