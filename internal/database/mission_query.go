package database

import (
	"gorm.io/gorm"

	"github.com/fieldops/missiond/internal/model"
	"github.com/fieldops/missiond/pkg/coord"
)

type MissionQuery struct {
	Query[model.Mission]
	id       string
	owner    string
	statuses []model.Status
	deleted  bool
	box      *coord.Box
}

// NewMissionQuery builds a mission query. Soft-deleted records are
// excluded unless Deleted(true) is set.
func NewMissionQuery(db *gorm.DB) *MissionQuery {
	return &MissionQuery{
		Query: Query[model.Mission]{
			db:     db,
			limit:  100,
			offset: 0,
			order:  "missions.created_at DESC",
		},
	}
}

func (q *MissionQuery) Order(s string) *MissionQuery {
	if q == nil {
		return nil
	}

	q.order = s

	return q
}

func (q *MissionQuery) Limit(n int) *MissionQuery {
	if q == nil {
		return nil
	}

	q.limit = n

	return q
}

func (q *MissionQuery) Offset(n int) *MissionQuery {
	if q == nil {
		return nil
	}

	q.offset = n

	return q
}

func (q *MissionQuery) Id(id string) *MissionQuery {
	if q == nil {
		return nil
	}

	q.id = id

	return q
}

func (q *MissionQuery) Owner(ownerID string) *MissionQuery {
	if q == nil {
		return nil
	}

	q.owner = ownerID

	return q
}

func (q *MissionQuery) Status(statuses ...model.Status) *MissionQuery {
	if q == nil {
		return nil
	}

	q.statuses = statuses

	return q
}

func (q *MissionQuery) Deleted(b bool) *MissionQuery {
	if q == nil {
		return nil
	}

	q.deleted = b

	return q
}

func (q *MissionQuery) Box(b coord.Box) *MissionQuery {
	if q == nil {
		return nil
	}

	q.box = &b

	return q
}

func (q *MissionQuery) where() *gorm.DB {
	tx := q.db.Where("missions.deleted = ?", q.deleted)

	if q.id != "" {
		tx = tx.Where("missions.id = ?", q.id)
	}

	if q.owner != "" {
		tx = tx.Where("missions.owner_id = ?", q.owner)
	}

	if len(q.statuses) > 0 {
		tx = tx.Where("missions.status in ?", q.statuses)
	}

	if q.box != nil {
		tx = tx.Where("missions.lat between ? and ?", q.box.LatMin, q.box.LatMax)

		if q.box.Wraps() {
			tx = tx.Where("(missions.lon >= ? or missions.lon <= ?)", q.box.LonMin, q.box.LonMax)
		} else {
			tx = tx.Where("missions.lon between ? and ?", q.box.LonMin, q.box.LonMax)
		}
	}

	return tx
}

func (q *MissionQuery) Get() ([]*model.Mission, error) {
	return q.get(q.where().Model(&model.Mission{}))
}

func (q *MissionQuery) One() (*model.Mission, error) {
	return q.one(q.where().Model(&model.Mission{}))
}

func (q *MissionQuery) Count() (int64, error) {
	return q.count(q.where().Model(&model.Mission{}))
}

func (q *MissionQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.Mission{}), updates)
}

// CountByStatus returns sparse per-status counts: statuses with no
// matching record have no key.
func (q *MissionQuery) CountByStatus() (map[model.Status]int64, error) {
	var rows []struct {
		Status model.Status
		Num    int64
	}

	err := q.where().Model(&model.Mission{}).
		Select("missions.status as status, count(*) as num").
		Group("missions.status").
		Find(&rows).Error

	if err != nil {
		return nil, err
	}

	res := make(map[model.Status]int64, len(rows))

	for _, r := range rows {
		res[r.Status] = r.Num
	}

	return res, nil
}
