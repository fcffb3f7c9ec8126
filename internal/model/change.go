package model

import (
	"fmt"
	"time"
)

const (
	ChangeCreate = "CREATE"
	ChangeUpdate = "UPDATE"
	ChangeStatus = "STATUS"
	ChangeDelete = "DELETE"
)

// Change is an audit record, one row per mission mutation.
type Change struct {
	ID         uint      `gorm:"primaryKey"`
	CreatedAt  time.Time `gorm:"index"`
	Type       string
	MissionID  string `gorm:"index"`
	OwnerID    string
	FromStatus Status
	ToStatus   Status
}

func (c *Change) String() string {
	if c == nil {
		return "nil"
	}

	return fmt.Sprintf("%s, mission: %s, owner: %s", c.Type, c.MissionID, c.OwnerID)
}
