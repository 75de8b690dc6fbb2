package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mesaboardhq/mesaboard-backend/pkg/enums"
)

// Restaurant is the tenant entity owned by a kitchen_owner profile.
type Restaurant struct {
	ID             uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name           string                 `gorm:"type:text;not null" json:"name"`
	Slug           string                 `gorm:"type:text;not null;uniqueIndex" json:"slug"`
	OwnerProfileID uuid.UUID              `gorm:"type:uuid;column:owner_profile_id;not null" json:"owner_profile_id"`
	Status         enums.RestaurantStatus `gorm:"type:text;not null;default:'pending'" json:"status"`
	ApprovedAt     *time.Time             `gorm:"column:approved_at" json:"approved_at,omitempty"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
