package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/teemow/calsync/internal/domain"
)

// SQL is a Store backed by SQLite through bun.
type SQL struct {
	db   *bun.DB
	idb  bun.IDB
	inTx bool
}

// OpenSQLite opens (or creates) the database at dsn and ensures the schema
// exists. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, dsn string) (*SQL, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes
	// writers, which SQLite requires anyway.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	s := &SQL{db: db, idb: db}
	if err := s.createSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQL) createSchema(ctx context.Context) error {
	for _, model := range []any{
		(*domain.Calendar)(nil),
		(*domain.Location)(nil),
		(*domain.Event)(nil),
		(*domain.Conference)(nil),
		(*domain.Task)(nil),
		(*domain.Attachment)(nil),
	} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	indexes := []struct {
		model  any
		name   string
		column string
		unique bool
	}{
		{(*domain.Calendar)(nil), "calendars_user_id_idx", "user_id", false},
		{(*domain.Event)(nil), "events_calendar_id_idx", "calendar_id", false},
		{(*domain.Event)(nil), "events_location_id_idx", "location_id", false},
		{(*domain.Conference)(nil), "conferences_event_id_uidx", "event_id", true},
		{(*domain.Task)(nil), "tasks_event_id_idx", "event_id", false},
		{(*domain.Attachment)(nil), "attachments_event_id_idx", "event_id", false},
	}
	for _, idx := range indexes {
		q := s.db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.column).IfNotExists()
		if idx.unique {
			q = q.Unique()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}
	return nil
}

func (s *SQL) Calendars() CalendarRepository     { return sqlCalendars{s.idb} }
func (s *SQL) Events() EventRepository           { return sqlEvents{s.idb} }
func (s *SQL) Conferences() ConferenceRepository { return sqlConferences{s.idb} }
func (s *SQL) Locations() LocationRepository     { return sqlLocations{s.idb} }
func (s *SQL) Tasks() TaskRepository             { return sqlTasks{s.idb} }
func (s *SQL) Attachments() AttachmentRepository { return sqlAttachments{s.idb} }

func (s *SQL) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &SQL{db: s.db, idb: tx, inTx: true})
	})
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database. Calling Close on a transactional Store is a no-op.
func (s *SQL) Close() error {
	if s.inTx {
		return nil
	}
	return s.db.Close()
}

func exists(ctx context.Context, db bun.IDB, model any, where string, args ...any) (bool, error) {
	ok, err := db.NewSelect().Model(model).Where(where, args...).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return ok, nil
}

// updated maps a zero-row update result to notFound.
func updated(res sql.Result, err error, notFound func() error) error {
	if err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound()
	}
	return nil
}

func scanOne(err error, notFound func() error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound()
	}
	if err != nil {
		return fmt.Errorf("failed to query row: %w", err)
	}
	return nil
}

func paged(q *bun.SelectQuery, page domain.Page) *bun.SelectQuery {
	page = page.Normalize()
	return q.Limit(page.Size).Offset(page.Offset())
}

func likePattern(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// --- calendars ---

type sqlCalendars struct{ db bun.IDB }

func (r sqlCalendars) Insert(ctx context.Context, c *domain.Calendar) error {
	if _, err := r.db.NewInsert().Model(c).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert calendar: %w", err)
	}
	return nil
}

func (r sqlCalendars) Update(ctx context.Context, c *domain.Calendar) error {
	res, err := r.db.NewUpdate().Model(c).WherePK().Exec(ctx)
	return updated(res, err, func() error { return calendarNotFound(c.ID) })
}

func (r sqlCalendars) Get(ctx context.Context, id string) (*domain.Calendar, error) {
	c := new(domain.Calendar)
	err := r.db.NewSelect().Model(c).Where("id = ?", id).Scan(ctx)
	if err := scanOne(err, func() error { return calendarNotFound(id) }); err != nil {
		return nil, err
	}
	return c, nil
}

func (r sqlCalendars) List(ctx context.Context, page domain.Page) ([]domain.Calendar, error) {
	out := []domain.Calendar{}
	q := r.db.NewSelect().Model(&out).Where("is_deleted = ?", false).Order("created_at ASC", "id ASC")
	if err := paged(q, page).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	return out, nil
}

func (r sqlCalendars) ListByUser(ctx context.Context, userID string, includeDeleted bool) ([]domain.Calendar, error) {
	out := []domain.Calendar{}
	q := r.db.NewSelect().Model(&out).Where("user_id = ?", userID)
	if !includeDeleted {
		q = q.Where("is_deleted = ?", false)
	}
	if err := q.Order("created_at ASC", "id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list user calendars: %w", err)
	}
	return out, nil
}

func (r sqlCalendars) FindByTitle(ctx context.Context, userID, title string) (*domain.Calendar, error) {
	return r.findOne(ctx, userID, "title = ?", title)
}

func (r sqlCalendars) FindPrimary(ctx context.Context, userID string) (*domain.Calendar, error) {
	return r.findOne(ctx, userID, "is_primary = ?", true)
}

func (r sqlCalendars) findOne(ctx context.Context, userID, where string, arg any) (*domain.Calendar, error) {
	c := new(domain.Calendar)
	err := r.db.NewSelect().Model(c).
		Where("user_id = ?", userID).
		Where("is_deleted = ?", false).
		Where(where, arg).
		Order("created_at ASC", "id ASC").
		Limit(1).
		Scan(ctx)
	notFound := func() error { return domain.NotFoundf("store.calendars.find", "calendar not found") }
	if err := scanOne(err, notFound); err != nil {
		return nil, err
	}
	return c, nil
}

// --- events ---

type sqlEvents struct{ db bun.IDB }

func (r sqlEvents) checkRefs(ctx context.Context, e *domain.Event) error {
	ok, err := exists(ctx, r.db, (*domain.Calendar)(nil), "id = ?", e.CalendarID)
	if err != nil {
		return err
	}
	if !ok {
		return calendarNotFound(e.CalendarID)
	}
	if e.LocationID != "" {
		ok, err := exists(ctx, r.db, (*domain.Location)(nil), "id = ?", e.LocationID)
		if err != nil {
			return err
		}
		if !ok {
			return locationNotFound(e.LocationID)
		}
	}
	return nil
}

func (r sqlEvents) Insert(ctx context.Context, e *domain.Event) error {
	if err := r.checkRefs(ctx, e); err != nil {
		return err
	}
	if _, err := r.db.NewInsert().Model(e).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (r sqlEvents) Update(ctx context.Context, e *domain.Event) error {
	if err := r.checkRefs(ctx, e); err != nil {
		return err
	}
	res, err := r.db.NewUpdate().Model(e).WherePK().Exec(ctx)
	return updated(res, err, func() error { return eventNotFound(e.ID) })
}

func (r sqlEvents) Get(ctx context.Context, id string) (*domain.Event, error) {
	e := new(domain.Event)
	err := r.db.NewSelect().Model(e).Where("id = ?", id).Scan(ctx)
	if err := scanOne(err, func() error { return eventNotFound(id) }); err != nil {
		return nil, err
	}
	return e, nil
}

func (r sqlEvents) Delete(ctx context.Context, id string) error {
	for _, child := range []any{(*domain.Conference)(nil), (*domain.Task)(nil), (*domain.Attachment)(nil)} {
		if _, err := r.db.NewDelete().Model(child).Where("event_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete children of event: %w", err)
		}
	}
	res, err := r.db.NewDelete().Model((*domain.Event)(nil)).Where("id = ?", id).Exec(ctx)
	return updated(res, err, func() error { return eventNotFound(id) })
}

func (r sqlEvents) selectEvents(out *[]domain.Event) *bun.SelectQuery {
	return r.db.NewSelect().Model(out).Order("event.start_time ASC", "event.id ASC")
}

func (r sqlEvents) List(ctx context.Context, page domain.Page) ([]domain.Event, error) {
	out := []domain.Event{}
	if err := paged(r.selectEvents(&out), page).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return out, nil
}

func (r sqlEvents) ListByCalendar(ctx context.Context, calendarID string, page domain.Page) ([]domain.Event, error) {
	out := []domain.Event{}
	q := r.selectEvents(&out).Where("event.calendar_id = ?", calendarID)
	if err := paged(q, page).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}
	return out, nil
}

func (r sqlEvents) ListByUser(ctx context.Context, userID string, page domain.Page) ([]domain.Event, error) {
	return r.Search(ctx, EventFilter{UserID: userID}, page)
}

func (r sqlEvents) ListByLocation(ctx context.Context, locationID string) ([]domain.Event, error) {
	out := []domain.Event{}
	if err := r.selectEvents(&out).Where("event.location_id = ?", locationID).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list location events: %w", err)
	}
	return out, nil
}

func (r sqlEvents) Search(ctx context.Context, f EventFilter, page domain.Page) ([]domain.Event, error) {
	out := []domain.Event{}
	q := r.selectEvents(&out)
	if f.UserID != "" {
		q = q.Join("JOIN calendars AS cal ON cal.id = event.calendar_id").Where("cal.user_id = ?", f.UserID)
	}
	if !f.From.IsZero() {
		q = q.Where("event.start_time >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("event.start_time <= ?", f.To)
	}
	if strings.TrimSpace(f.Keyword) != "" {
		pat := likePattern(f.Keyword)
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where(`LOWER(event.title) LIKE ? ESCAPE '\'`, pat).
				WhereOr(`LOWER(event.description) LIKE ? ESCAPE '\'`, pat)
		})
	}
	if err := paged(q, page).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}
	return out, nil
}

func (r sqlEvents) GetMany(ctx context.Context, ids []string) ([]domain.Event, error) {
	if len(ids) == 0 {
		return []domain.Event{}, nil
	}
	found := []domain.Event{}
	if err := r.db.NewSelect().Model(&found).Where("id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	byID := make(map[string]domain.Event, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}
	out := make([]domain.Event, 0, len(found))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- conferences ---

type sqlConferences struct{ db bun.IDB }

func (r sqlConferences) checkExclusive(ctx context.Context, c *domain.Conference) error {
	if c.EventID == "" {
		return nil
	}
	ok, err := exists(ctx, r.db, (*domain.Event)(nil), "id = ?", c.EventID)
	if err != nil {
		return err
	}
	if !ok {
		return eventNotFound(c.EventID)
	}
	taken, err := exists(ctx, r.db, (*domain.Conference)(nil), "event_id = ? AND id <> ?", c.EventID, c.ID)
	if err != nil {
		return err
	}
	if taken {
		return domain.Conflictf("store.conferences", "event %q already has a conference", c.EventID)
	}
	return nil
}

func (r sqlConferences) Insert(ctx context.Context, c *domain.Conference) error {
	if err := r.checkExclusive(ctx, c); err != nil {
		return err
	}
	if _, err := r.db.NewInsert().Model(c).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert conference: %w", err)
	}
	return nil
}

func (r sqlConferences) Update(ctx context.Context, c *domain.Conference) error {
	if err := r.checkExclusive(ctx, c); err != nil {
		return err
	}
	res, err := r.db.NewUpdate().Model(c).WherePK().Exec(ctx)
	return updated(res, err, func() error { return conferenceNotFound(c.ID) })
}

func (r sqlConferences) Get(ctx context.Context, id string) (*domain.Conference, error) {
	c := new(domain.Conference)
	err := r.db.NewSelect().Model(c).Where("id = ?", id).Scan(ctx)
	if err := scanOne(err, func() error { return conferenceNotFound(id) }); err != nil {
		return nil, err
	}
	return c, nil
}

func (r sqlConferences) GetByEvent(ctx context.Context, eventID string) (*domain.Conference, error) {
	c := new(domain.Conference)
	err := r.db.NewSelect().Model(c).Where("event_id = ?", eventID).Limit(1).Scan(ctx)
	notFound := func() error {
		return domain.NotFoundf("store.conferences.get_by_event", "no conference attached to event %q", eventID)
	}
	if err := scanOne(err, notFound); err != nil {
		return nil, err
	}
	return c, nil
}

func (r sqlConferences) Delete(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().Model((*domain.Conference)(nil)).Where("id = ?", id).Exec(ctx)
	return updated(res, err, func() error { return conferenceNotFound(id) })
}

func (r sqlConferences) List(ctx context.Context, page domain.Page) ([]domain.Conference, error) {
	out := []domain.Conference{}
	q := r.db.NewSelect().Model(&out).Order("created_at ASC", "id ASC")
	if err := paged(q, page).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list conferences: %w", err)
	}
	return out, nil
}

// --- locations ---

type sqlLocations struct{ db bun.IDB }

func (r sqlLocations) Insert(ctx context.Context, l *domain.Location) error {
	if _, err := r.db.NewInsert().Model(l).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}
	return nil
}

func (r sqlLocations) Update(ctx context.Context, l *domain.Location) error {
	res, err := r.db.NewUpdate().Model(l).WherePK().Exec(ctx)
	return updated(res, err, func() error { return locationNotFound(l.ID) })
}

func (r sqlLocations) Get(ctx context.Context, id string) (*domain.Location, error) {
	l := new(domain.Location)
	err := r.db.NewSelect().Model(l).Where("id = ?", id).Scan(ctx)
	if err := scanOne(err, func() error { return locationNotFound(id) }); err != nil {
		return nil, err
	}
	return l, nil
}

func (r sqlLocations) Delete(ctx context.Context, id string) error {
	referenced, err := exists(ctx, r.db, (*domain.Event)(nil), "location_id = ?", id)
	if err != nil {
		return err
	}
	if referenced {
		return domain.Conflictf("store.locations.delete", "location %q is still referenced by events", id)
	}
	res, err := r.db.NewDelete().Model((*domain.Location)(nil)).Where("id = ?", id).Exec(ctx)
	return updated(res, err, func() error { return locationNotFound(id) })
}

func (r sqlLocations) selectLocations(out *[]domain.Location) *bun.SelectQuery {
	return r.db.NewSelect().Model(out).Order("place_name ASC", "id ASC")
}

func (r sqlLocations) List(ctx context.Context, page domain.Page) ([]domain.Location, error) {
	out := []domain.Location{}
	if err := paged(r.selectLocations(&out), page).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return out, nil
}

func (r sqlLocations) Search(ctx context.Context, query string, page domain.Page) ([]domain.Location, error) {
	out := []domain.Location{}
	pat := likePattern(query)
	q := r.selectLocations(&out).WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
		for _, col := range []string{"place_name", "street_address", "city", "country"} {
			q = q.WhereOr("LOWER("+col+`) LIKE ? ESCAPE '\'`, pat)
		}
		return q
	})
	if err := paged(q, page).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to search locations: %w", err)
	}
	return out, nil
}

func (r sqlLocations) ByCity(ctx context.Context, city string) ([]domain.Location, error) {
	return r.byColumn(ctx, "city", city)
}

func (r sqlLocations) ByCountry(ctx context.Context, country string) ([]domain.Location, error) {
	return r.byColumn(ctx, "country", country)
}

func (r sqlLocations) byColumn(ctx context.Context, col, value string) ([]domain.Location, error) {
	out := []domain.Location{}
	q := r.selectLocations(&out).Where("LOWER("+col+`) LIKE ? ESCAPE '\'`, likePattern(value))
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list locations by %s: %w", col, err)
	}
	return out, nil
}

func (r sqlLocations) Nearby(ctx context.Context, lat, lon, radiusKm float64) ([]domain.Location, error) {
	minLat, maxLat, minLon, maxLon := boundingBox(lat, lon, radiusKm)
	candidates := []domain.Location{}
	err := r.db.NewSelect().Model(&candidates).
		Where("latitude BETWEEN ? AND ?", minLat, maxLat).
		Where("longitude BETWEEN ? AND ?", minLon, maxLon).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby locations: %w", err)
	}
	return withinRadius(candidates, lat, lon, radiusKm), nil
}

// --- tasks and attachments ---

type sqlTasks struct{ db bun.IDB }

func (r sqlTasks) Insert(ctx context.Context, t *domain.Task) error {
	ok, err := exists(ctx, r.db, (*domain.Event)(nil), "id = ?", t.EventID)
	if err != nil {
		return err
	}
	if !ok {
		return eventNotFound(t.EventID)
	}
	if _, err := r.db.NewInsert().Model(t).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

func (r sqlTasks) ListByEvent(ctx context.Context, eventID string) ([]domain.Task, error) {
	out := []domain.Task{}
	if err := r.db.NewSelect().Model(&out).Where("event_id = ?", eventID).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return out, nil
}

type sqlAttachments struct{ db bun.IDB }

func (r sqlAttachments) Insert(ctx context.Context, a *domain.Attachment) error {
	ok, err := exists(ctx, r.db, (*domain.Event)(nil), "id = ?", a.EventID)
	if err != nil {
		return err
	}
	if !ok {
		return eventNotFound(a.EventID)
	}
	if _, err := r.db.NewInsert().Model(a).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert attachment: %w", err)
	}
	return nil
}

func (r sqlAttachments) ListByEvent(ctx context.Context, eventID string) ([]domain.Attachment, error) {
	out := []domain.Attachment{}
	if err := r.db.NewSelect().Model(&out).Where("event_id = ?", eventID).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	return out, nil
}
