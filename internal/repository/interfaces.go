package repository

import (
	"context"

	"github.com/fieldops/missiond/internal/model"
)

type UserRepository interface {
	Start() error
	Stop()
	CheckUserAuth(user, password string) bool
	GetUser(username string) *model.User
}

// Sender delivers notification messages. Fire and forget, failures are
// the sender's problem.
type Sender interface {
	Send(ctx context.Context, address, subject, body string) error
}

// BlobStore accepts a byte buffer and returns a stable URL.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}
