package model

import (
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusActive, StatusCancelled},
	StatusActive:    {StatusPaused, StatusCompleted, StatusCancelled},
	StatusPaused:    {StatusActive, StatusCompleted, StatusCancelled},
	StatusCompleted: nil,
	StatusCancelled: nil,
}

func ParseStatus(s string) (Status, bool) {
	st := Status(s)

	_, ok := transitions[st]

	return st, ok
}

func (s Status) Valid() bool {
	_, ok := transitions[s]

	return ok
}

// CanTransition reports whether s -> to is an edge of the status machine.
// completed and cancelled are terminal.
func (s Status) CanTransition(to Status) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}

	return false
}

func AllStatuses() []Status {
	return []Status{StatusPending, StatusActive, StatusPaused, StatusCompleted, StatusCancelled}
}

type Mission struct {
	ID          string `gorm:"primaryKey"`
	OwnerID     string `gorm:"index"`
	Title       string
	Description string
	Lon         float64   `gorm:"index:idx_missions_lon_lat"`
	Lat         float64   `gorm:"index:idx_missions_lon_lat"`
	Status      Status    `gorm:"index"`
	Deleted     bool      `gorm:"index"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

type Point struct {
	Lon float64 `json:"longitude"`
	Lat float64 `json:"latitude"`
}

// MissionPatch holds the fields a mission owner may edit. Immutable
// attributes (owner, status, deleted flag, timestamps) have no
// representation here, so a patch cannot touch them.
type MissionPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Location    *Point  `json:"location"`
}

func (p *MissionPatch) Fields() map[string]any {
	res := make(map[string]any)

	if p == nil {
		return res
	}

	if p.Title != nil {
		res["title"] = *p.Title
	}

	if p.Description != nil {
		res["description"] = *p.Description
	}

	if p.Location != nil {
		res["lon"] = p.Location.Lon
		res["lat"] = p.Location.Lat
	}

	return res
}
