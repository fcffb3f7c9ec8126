package database

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"gorm.io/gorm"

	"github.com/fieldops/missiond/internal/model"
)

type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

type DialFunc func() (*gorm.DB, error)

// attempt is one in-flight connect shared by every waiter.
type attempt struct {
	done chan struct{}
	db   *gorm.DB
	err  error
}

// Connector owns the single database handle. Lazy connect, at most one
// in-flight attempt: concurrent EnsureConnected callers during a dial all
// wait for the same outcome.
type Connector struct {
	logger *slog.Logger
	dial   DialFunc

	mu      sync.Mutex
	state   atomic.Int32
	db      *gorm.DB
	current *attempt
}

func NewConnector(dial DialFunc) *Connector {
	return &Connector{
		logger: slog.Default().With("logger", "connector"),
		dial:   dial,
	}
}

func (c *Connector) State() ConnState {
	if c == nil {
		return StateDisconnected
	}

	return ConnState(c.state.Load())
}

// IsReady is a non-blocking readiness check. Correctness always comes
// from EnsureConnected.
func (c *Connector) IsReady() bool {
	return c.State() == StateConnected
}

// EnsureConnected returns the live handle, dialing if needed. On failure
// every waiter gets the same *model.ConnectionError.
func (c *Connector) EnsureConnected(ctx context.Context) (*gorm.DB, error) {
	c.mu.Lock()

	if c.db != nil {
		db := c.db
		c.mu.Unlock()

		return db, nil
	}

	if c.current == nil {
		c.current = &attempt{done: make(chan struct{})}
		c.state.Store(int32(StateConnecting))

		go c.connect(c.current)
	}

	att := c.current
	c.mu.Unlock()

	select {
	case <-att.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if att.err != nil {
		return nil, att.err
	}

	return att.db, nil
}

func (c *Connector) connect(att *attempt) {
	db, err := c.dial()

	c.mu.Lock()

	if err != nil {
		att.err = &model.ConnectionError{Cause: err}
		c.state.Store(int32(StateDisconnected))
		c.logger.Error("connect failed", slog.Any("error", err))
	} else {
		att.db = db
		c.db = db
		c.state.Store(int32(StateConnected))
		c.logger.Info("connected")
	}

	c.current = nil
	c.mu.Unlock()

	close(att.done)
}

// MarkDown is the driver-fault path: a dead connection observed by a
// caller flips the state so the next EnsureConnected redials.
func (c *Connector) MarkDown(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return
	}

	c.logger.Warn("connection marked down", slog.Any("error", err))
	c.closeLocked()
}

// Disconnect tears down gracefully. Never returns an error, only logs.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return
	}

	c.logger.Info("disconnecting")
	c.closeLocked()
}

// Reconnect forces a teardown and dials again.
func (c *Connector) Reconnect(ctx context.Context) (*gorm.DB, error) {
	c.Disconnect()

	return c.EnsureConnected(ctx)
}

func (c *Connector) closeLocked() {
	if sqlDB, err := c.db.DB(); err == nil {
		if err1 := sqlDB.Close(); err1 != nil {
			c.logger.Warn("close error", slog.Any("error", err1))
		}
	}

	c.db = nil
	c.state.Store(int32(StateDisconnected))
}
