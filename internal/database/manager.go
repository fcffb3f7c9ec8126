package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"log/slog"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fieldops/missiond/internal/model"
)

// DatabaseManager is the only place storage queries come from. Every
// accessor goes through the connector, so the first caller dials and
// the rest share the handle.
type DatabaseManager struct {
	conn   *Connector
	logger *slog.Logger
}

func New(conn *Connector) *DatabaseManager {
	return &DatabaseManager{
		conn:   conn,
		logger: slog.Default().With("logger", "dbm"),
	}
}

func (mm *DatabaseManager) Connector() *Connector {
	if mm == nil {
		return nil
	}

	return mm.conn
}

func (mm *DatabaseManager) Missions(ctx context.Context) (*MissionQuery, error) {
	db, err := mm.conn.EnsureConnected(ctx)
	if err != nil {
		return nil, err
	}

	return NewMissionQuery(db.WithContext(ctx)), nil
}

func (mm *DatabaseManager) Changes(ctx context.Context) (*ChangeQuery, error) {
	db, err := mm.conn.EnsureConnected(ctx)
	if err != nil {
		return nil, err
	}

	return NewChangeQuery(db.WithContext(ctx)), nil
}

func (mm *DatabaseManager) Create(ctx context.Context, s any) error {
	db, err := mm.conn.EnsureConnected(ctx)
	if err != nil {
		return err
	}

	err = db.WithContext(ctx).Create(s).Error

	if err != nil {
		mm.logger.Error("error create object", slog.Any("error", err))
		mm.CheckErr(err)
	}

	return err
}

// CheckErr routes dead-connection errors to the connector so the next
// call redials.
func (mm *DatabaseManager) CheckErr(err error) {
	if err == nil {
		return
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		mm.conn.MarkDown(err)
	}
}

// Open dials a sqlite database and migrates the schema. Used as the
// connector's dial function.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&model.Mission{}, &model.Change{}); err != nil {
		return nil, err
	}

	return db, nil
}
