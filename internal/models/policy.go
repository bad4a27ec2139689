package models

import "time"

// PermissionPolicy grants one permission action to one role. Authorization
// is a lookup over these rows, not annotations on handlers.
type PermissionPolicy struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Role      string    `gorm:"size:20;not null;uniqueIndex:idx_policies_role_action" json:"role"`
	Action    string    `gorm:"size:64;not null;uniqueIndex:idx_policies_role_action" json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

func (PermissionPolicy) TableName() string { return "permission_policies" }
