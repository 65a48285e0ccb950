package model

import (
	"time"

	"github.com/google/uuid"
)

// Favorite records a user bookmarking a trend product. The count of
// favorites per product feeds into the engagement score component.
type Favorite struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	CreatedAt time.Time
}

// InitMeta initializes the favorite metadata including ID and timestamp.
func (f *Favorite) InitMeta() {
	f.ID = uuid.New()
	f.CreatedAt = time.Now().UTC()
}
