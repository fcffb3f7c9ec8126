package database

import (
	"gorm.io/gorm"

	"github.com/fieldops/missiond/internal/model"
)

type ChangeQuery struct {
	Query[model.Change]
	mission string
	typ     string
}

func NewChangeQuery(db *gorm.DB) *ChangeQuery {
	return &ChangeQuery{
		Query: Query[model.Change]{
			db:     db,
			limit:  100,
			offset: 0,
			order:  "changes.created_at DESC",
		},
	}
}

func (q *ChangeQuery) Limit(n int) *ChangeQuery {
	if q == nil {
		return nil
	}

	q.limit = n

	return q
}

func (q *ChangeQuery) Mission(id string) *ChangeQuery {
	if q == nil {
		return nil
	}

	q.mission = id

	return q
}

func (q *ChangeQuery) Type(typ string) *ChangeQuery {
	if q == nil {
		return nil
	}

	q.typ = typ

	return q
}

func (q *ChangeQuery) where() *gorm.DB {
	tx := q.db

	if q.mission != "" {
		tx = tx.Where("changes.mission_id = ?", q.mission)
	}

	if q.typ != "" {
		tx = tx.Where("changes.type = ?", q.typ)
	}

	return tx
}

func (q *ChangeQuery) Get() ([]*model.Change, error) {
	return q.get(q.where().Model(&model.Change{}))
}

func (q *ChangeQuery) Count() (int64, error) {
	return q.count(q.where().Model(&model.Change{}))
}
