package model

import (
	"time"
)

type MissionDTO struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    Point     `json:"location"`
	Status      Status    `json:"status"`
	Deleted     bool      `json:"deleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func ToMissionDTO(m *Mission) *MissionDTO {
	if m == nil {
		return nil
	}

	return &MissionDTO{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Description: m.Description,
		Location:    Point{Lon: m.Lon, Lat: m.Lat},
		Status:      m.Status,
		Deleted:     m.Deleted,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func ToMissionsDTO(missions []*Mission) []*MissionDTO {
	res := make([]*MissionDTO, len(missions))

	for i, m := range missions {
		res[i] = ToMissionDTO(m)
	}

	return res
}

type ChangeDTO struct {
	Type       string    `json:"type"`
	MissionID  string    `json:"missionId"`
	OwnerID    string    `json:"ownerId"`
	FromStatus Status    `json:"fromStatus,omitempty"`
	ToStatus   Status    `json:"toStatus,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func ToChangeDTO(c *Change) *ChangeDTO {
	if c == nil {
		return nil
	}

	return &ChangeDTO{
		Type:       c.Type,
		MissionID:  c.MissionID,
		OwnerID:    c.OwnerID,
		FromStatus: c.FromStatus,
		ToStatus:   c.ToStatus,
		CreatedAt:  c.CreatedAt,
	}
}
