package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mesaboardhq/mesaboard-backend/pkg/enums"
)

// Profile is the application-level record for one credential-store identity.
// Exactly one row exists per auth subject id.
type Profile struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AuthID       uuid.UUID  `gorm:"type:uuid;column:auth_id;not null;uniqueIndex" json:"auth_id"`
	Email        string     `gorm:"type:text;not null;uniqueIndex" json:"email"`
	FullName     string     `gorm:"column:full_name;not null" json:"full_name"`
	Role         enums.Role `gorm:"type:text;not null" json:"role"`
	RestaurantID *uuid.UUID `gorm:"type:uuid;column:restaurant_id" json:"restaurant_id,omitempty"`
	IsActive     bool       `gorm:"column:is_active;not null;default:false" json:"is_active"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
