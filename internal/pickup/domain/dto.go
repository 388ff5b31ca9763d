package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ---------------- DTO triple ----------------

type PickupDTO struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Liters      float64    `json:"liters"`
	Status      string     `json:"status"`
	CollectedAt *time.Time `json:"collected_at,omitempty"`
	Note        string     `json:"note,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Owner       *Owner     `json:"owner,omitempty"`
}

type PickupCreate struct {
	UserID      uuid.UUID  `json:"user_id" binding:"required"`
	Liters      float64    `json:"liters" binding:"required,gt=0"`
	Status      string     `json:"status"`
	CollectedAt *time.Time `json:"collected_at,omitempty"`
	Note        string     `json:"note"`
}

// PickupUpdate uses pointer fields: nil means "leave untouched".
type PickupUpdate struct {
	Liters      *float64   `json:"liters,omitempty"`
	Status      *string    `json:"status,omitempty"`
	CollectedAt *time.Time `json:"collected_at,omitempty"`
	Note        *string    `json:"note,omitempty"`
}

// ---------------- Mapper ----------------

type PickupMapper struct{}

// ToDTO rejects rows whose status is empty; those predate the status
// column and are dropped by tolerant list mapping.
func (PickupMapper) ToDTO(p *Pickup) (*PickupDTO, error) {
	if p.Status == "" {
		return nil, fmt.Errorf("%w: pickup %s has no status", ErrInvalidPickup, p.ID)
	}
	return &PickupDTO{
		ID:          p.ID,
		UserID:      p.UserID,
		Liters:      p.Liters,
		Status:      p.Status,
		CollectedAt: p.CollectedAt,
		Note:        p.Note,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Owner:       p.Owner,
	}, nil
}

func (PickupMapper) ToMap(p *Pickup) map[string]any {
	return map[string]any{
		"id":           p.ID.String(),
		"user_id":      p.UserID.String(),
		"liters":       p.Liters,
		"status":       p.Status,
		"collected_at": p.CollectedAt,
		"note":         p.Note,
		"created_at":   p.CreatedAt,
		"updated_at":   p.UpdatedAt,
	}
}

func (PickupMapper) Key(d *PickupDTO) string { return d.ID.String() }

func (PickupMapper) CreateData(c *PickupCreate) map[string]any {
	status := c.Status
	if status == "" {
		status = StatusRequested
	}
	return map[string]any{
		"user_id":      c.UserID.String(),
		"liters":       c.Liters,
		"status":       status,
		"collected_at": c.CollectedAt,
		"note":         c.Note,
	}
}

func (PickupMapper) UpdateData(u *PickupUpdate) map[string]any {
	data := make(map[string]any)
	if u.Liters != nil {
		data["liters"] = *u.Liters
	}
	if u.Status != nil {
		data["status"] = *u.Status
	}
	if u.CollectedAt != nil {
		data["collected_at"] = *u.CollectedAt
	}
	if u.Note != nil {
		data["note"] = *u.Note
	}
	return data
}
