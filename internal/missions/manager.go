package missions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kdudkov/goutils/callback"

	"github.com/fieldops/missiond/internal/database"
	"github.com/fieldops/missiond/internal/model"
	"github.com/fieldops/missiond/pkg/coord"
)

const (
	DefaultPageSize    = 10
	DefaultNearbyDist  = 10000
	DefaultNearbyLimit = 10

	nearbyCandidates = 1000
)

var sortColumns = map[string]string{
	"created": "missions.created_at",
	"updated": "missions.updated_at",
	"title":   "missions.title",
	"status":  "missions.status",
}

type Filter struct {
	Statuses []model.Status
	OwnerID  string
	Deleted  bool
}

type PageRequest struct {
	Page     int
	Size     int
	SortBy   string
	SortDesc bool
}

type PageInfo struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalRecords int64 `json:"totalRecords"`
	HasNext      bool  `json:"hasNext"`
	HasPrev      bool  `json:"hasPrev"`
}

type Stats struct {
	Total    int64                  `json:"total"`
	ByStatus map[model.Status]int64 `json:"byStatus"`
}

// MissionManager enforces ownership and the status machine. All mission
// mutations funnel through it.
type MissionManager struct {
	dbm      *database.DatabaseManager
	logger   *slog.Logger
	changeCb *callback.Callback[*model.Change]
}

func New(dbm *database.DatabaseManager) *MissionManager {
	return &MissionManager{
		dbm:      dbm,
		logger:   slog.Default().With("logger", "missions"),
		changeCb: callback.New[*model.Change](),
	}
}

func (mm *MissionManager) ChangeCallback() *callback.Callback[*model.Change] {
	return mm.changeCb
}

func (mm *MissionManager) Ready() bool {
	return mm.dbm.Connector().IsReady()
}

func (mm *MissionManager) Create(ctx context.Context, ownerID, title, description string, lon, lat float64) (*model.Mission, error) {
	if ownerID == "" {
		return nil, model.NewValidationError("ownerId", "is required")
	}

	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if title == "" {
		return nil, model.NewValidationError("title", "is required")
	}

	if description == "" {
		return nil, model.NewValidationError("description", "is required")
	}

	if !coord.ValidLon(lon) || !coord.ValidLat(lat) {
		return nil, model.NewValidationError("location", "coordinates out of range")
	}

	now := time.Now()

	m := &model.Mission{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Lon:         lon,
		Lat:         lat,
		Status:      model.StatusPending,
		Deleted:     false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := mm.dbm.Create(ctx, m); err != nil {
		return nil, wrapStorage("create", m.ID, err)
	}

	mm.logger.Info("mission created", slog.String("id", m.ID), slog.String("owner", ownerID))
	mm.recordChange(ctx, model.ChangeCreate, m, "", "")

	return m, nil
}

func (mm *MissionManager) Get(ctx context.Context, id string) (*model.Mission, error) {
	q, err := mm.dbm.Missions(ctx)
	if err != nil {
		return nil, err
	}

	m, err := q.Id(id).One()
	if err != nil {
		mm.dbm.CheckErr(err)

		return nil, wrapStorage("get", id, err)
	}

	if m == nil {
		return nil, model.ErrNotFound
	}

	return m, nil
}

func (mm *MissionManager) List(ctx context.Context, f Filter, p PageRequest) ([]*model.Mission, *PageInfo, error) {
	if p.Page < 1 {
		p.Page = 1
	}

	if p.Size < 1 {
		p.Size = DefaultPageSize
	}

	col, ok := sortColumns[p.SortBy]
	if !ok {
		col = sortColumns["created"]
	}

	dir := "ASC"
	if p.SortDesc {
		dir = "DESC"
	}

	cq, err := mm.dbm.Missions(ctx)
	if err != nil {
		return nil, nil, err
	}

	total, err := mm.applyFilter(cq, f).Count()
	if err != nil {
		mm.dbm.CheckErr(err)

		return nil, nil, wrapStorage("list", "", err)
	}

	q, err := mm.dbm.Missions(ctx)
	if err != nil {
		return nil, nil, err
	}

	res, err := mm.applyFilter(q, f).
		Order(col + " " + dir).
		Limit(p.Size).
		Offset((p.Page - 1) * p.Size).
		Get()
	if err != nil {
		mm.dbm.CheckErr(err)

		return nil, nil, wrapStorage("list", "", err)
	}

	totalPages := int((total + int64(p.Size) - 1) / int64(p.Size))

	info := &PageInfo{
		CurrentPage:  p.Page,
		TotalPages:   totalPages,
		TotalRecords: total,
		HasNext:      p.Page < totalPages,
		HasPrev:      p.Page > 1,
	}

	return res, info, nil
}

func (mm *MissionManager) ListMine(ctx context.Context, ownerID string, f Filter, p PageRequest) ([]*model.Mission, *PageInfo, error) {
	f.OwnerID = ownerID

	return mm.List(ctx, f, p)
}

func (mm *MissionManager) Update(ctx context.Context, id, requesterID string, patch *model.MissionPatch) (*model.Mission, error) {
	m, err := mm.loadOwned(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	fields := patch.Fields()

	if len(fields) == 0 {
		return m, nil
	}

	fields["updated_at"] = time.Now()

	q, err := mm.dbm.Missions(ctx)
	if err != nil {
		return nil, err
	}

	if err := q.Id(id).Update(fields); err != nil {
		mm.dbm.CheckErr(err)

		return nil, wrapStorage("update", id, err)
	}

	mm.recordChange(ctx, model.ChangeUpdate, m, "", "")

	return mm.Get(ctx, id)
}

func (mm *MissionManager) SetStatus(ctx context.Context, id, requesterID string, target model.Status) (*model.Mission, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", model.ErrInvalidArgument, target)
	}

	m, err := mm.loadOwned(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	if !m.Status.CanTransition(target) {
		return nil, &model.InvalidTransitionError{From: m.Status, To: target}
	}

	q, err := mm.dbm.Missions(ctx)
	if err != nil {
		return nil, err
	}

	if err := q.Id(id).Update(map[string]any{"status": target, "updated_at": time.Now()}); err != nil {
		mm.dbm.CheckErr(err)

		return nil, wrapStorage("set status", id, err)
	}

	mm.logger.Info("status changed", slog.String("id", id),
		slog.String("from", string(m.Status)), slog.String("to", string(target)))
	mm.recordChange(ctx, model.ChangeStatus, m, m.Status, target)

	return mm.Get(ctx, id)
}

// Delete marks a mission deleted and forces it to cancelled. A deleted
// mission is invisible to lookup, so a repeated delete gets ErrNotFound.
func (mm *MissionManager) Delete(ctx context.Context, id, requesterID string) error {
	m, err := mm.loadOwned(ctx, id, requesterID)
	if err != nil {
		return err
	}

	q, err := mm.dbm.Missions(ctx)
	if err != nil {
		return err
	}

	updates := map[string]any{
		"deleted":    true,
		"status":     model.StatusCancelled,
		"updated_at": time.Now(),
	}

	if err := q.Id(id).Update(updates); err != nil {
		mm.dbm.CheckErr(err)

		return wrapStorage("delete", id, err)
	}

	mm.logger.Info("mission deleted", slog.String("id", id))
	mm.recordChange(ctx, model.ChangeDelete, m, m.Status, model.StatusCancelled)

	return nil
}

// Nearby returns non-deleted missions within radius meters of the point,
// nearest first. Candidates come from an indexed bounding-box query, the
// exact distance check runs in memory.
func (mm *MissionManager) Nearby(ctx context.Context, lon, lat float64, radius, limit int, statuses []model.Status) ([]*model.Mission, error) {
	if !coord.ValidLon(lon) {
		return nil, fmt.Errorf("%w: longitude %f out of range", model.ErrInvalidArgument, lon)
	}

	if !coord.ValidLat(lat) {
		return nil, fmt.Errorf("%w: latitude %f out of range", model.ErrInvalidArgument, lat)
	}

	if radius <= 0 {
		return nil, fmt.Errorf("%w: maxDistance must be positive", model.ErrInvalidArgument)
	}

	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", model.ErrInvalidArgument)
	}

	if len(statuses) == 0 {
		statuses = []model.Status{model.StatusPending, model.StatusActive}
	}

	q, err := mm.dbm.Missions(ctx)
	if err != nil {
		return nil, err
	}

	box := coord.Bounds(lat, lon, float64(radius))

	candidates, err := q.Box(box).Status(statuses...).Limit(nearbyCandidates).Get()
	if err != nil {
		mm.dbm.CheckErr(err)

		return nil, wrapStorage("nearby", "", err)
	}

	type withDist struct {
		m *model.Mission
		d float64
	}

	res := make([]withDist, 0, len(candidates))

	for _, m := range candidates {
		if d := coord.Distance(lat, lon, m.Lat, m.Lon); d <= float64(radius) {
			res = append(res, withDist{m: m, d: d})
		}
	}

	sort.Slice(res, func(i, j int) bool { return res[i].d < res[j].d })

	if len(res) > limit {
		res = res[:limit]
	}

	out := make([]*model.Mission, len(res))

	for i, r := range res {
		out[i] = r.m
	}

	return out, nil
}

// Stats counts non-deleted missions per status, optionally scoped to one
// owner. The map is sparse: absent status means zero.
func (mm *MissionManager) Stats(ctx context.Context, ownerID string) (*Stats, error) {
	q, err := mm.dbm.Missions(ctx)
	if err != nil {
		return nil, err
	}

	if ownerID != "" {
		q = q.Owner(ownerID)
	}

	counts, err := q.CountByStatus()
	if err != nil {
		mm.dbm.CheckErr(err)

		return nil, wrapStorage("stats", "", err)
	}

	s := &Stats{ByStatus: counts}

	for _, n := range counts {
		s.Total += n
	}

	return s, nil
}

// Changes returns the newest audit records for a mission.
func (mm *MissionManager) Changes(ctx context.Context, missionID string, limit int) ([]*model.Change, error) {
	q, err := mm.dbm.Changes(ctx)
	if err != nil {
		return nil, err
	}

	if limit > 0 {
		q = q.Limit(limit)
	}

	res, err := q.Mission(missionID).Get()
	if err != nil {
		mm.dbm.CheckErr(err)

		return nil, wrapStorage("changes", missionID, err)
	}

	return res, nil
}

func (mm *MissionManager) applyFilter(q *database.MissionQuery, f Filter) *database.MissionQuery {
	q = q.Deleted(f.Deleted)

	if f.OwnerID != "" {
		q = q.Owner(f.OwnerID)
	}

	if len(f.Statuses) > 0 {
		q = q.Status(f.Statuses...)
	}

	return q
}

func (mm *MissionManager) loadOwned(ctx context.Context, id, requesterID string) (*model.Mission, error) {
	m, err := mm.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if m.OwnerID != requesterID {
		return nil, model.ErrUnauthorized
	}

	return m, nil
}

// recordChange writes an audit row and notifies subscribers. Audit
// failures are logged, they do not fail the operation.
func (mm *MissionManager) recordChange(ctx context.Context, typ string, m *model.Mission, from, to model.Status) {
	c := &model.Change{
		CreatedAt:  time.Now(),
		Type:       typ,
		MissionID:  m.ID,
		OwnerID:    m.OwnerID,
		FromStatus: from,
		ToStatus:   to,
	}

	if err := mm.dbm.Create(ctx, c); err != nil {
		mm.logger.Error("error saving change", slog.Any("error", err))

		return
	}

	mm.changeCb.AddMessage(c)
}

func validatePatch(p *model.MissionPatch) error {
	if p == nil {
		return nil
	}

	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return model.NewValidationError("title", "must not be empty")
	}

	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return model.NewValidationError("description", "must not be empty")
	}

	if p.Location != nil && (!coord.ValidLon(p.Location.Lon) || !coord.ValidLat(p.Location.Lat)) {
		return model.NewValidationError("location", "coordinates out of range")
	}

	return nil
}

func wrapStorage(op, id string, err error) error {
	var connErr *model.ConnectionError

	if errors.As(err, &connErr) || errors.Is(err, model.ErrNotFound) {
		return err
	}

	return &model.StorageError{Op: op, ID: id, Cause: err}
}
