package entity

import (
	"time"

	"github.com/google/uuid"
)

// Item is a row in the `items` table. Every item belongs to one user.
type Item struct {
	ID          uuid.UUID `db:"id"`
	Title       string    `db:"title"`
	Description *string   `db:"description"`
	OwnerID     uuid.UUID `db:"owner_id"`
	CreatedAt   time.Time `db:"created_at"`
}

type ItemPublic struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	OwnerID     uuid.UUID `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type ItemsPublic struct {
	Data  []ItemPublic `json:"data"`
	Count int          `json:"count"`
}

func (i *Item) Public() ItemPublic {
	return ItemPublic{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		OwnerID:     i.OwnerID,
		CreatedAt:   i.CreatedAt,
	}
}

// ItemCreate carries no owner; the caller becomes the owner.
type ItemCreate struct {
	Title       string  `json:"title" validate:"required,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

type ItemUpdate struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}
