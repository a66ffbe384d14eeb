package calendars

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/calsync/internal/cache"
	"github.com/teemow/calsync/internal/domain"
	"github.com/teemow/calsync/internal/logging"
	"github.com/teemow/calsync/internal/store"
)

// CreateRequest describes a new calendar. Blank color and timezone take
// the defaults.
type CreateRequest struct {
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ColorHex    string `json:"colorHex,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	Primary     bool   `json:"isPrimary,omitempty"`
}

// UpdateRequest carries the fields to change. Blank fields are kept.
type UpdateRequest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ColorHex    string `json:"colorHex,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
}

// Manager owns calendar writes and cached calendar reads.
type Manager struct {
	store  store.Store
	cache  *cache.Cache
	logger *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewManager creates a Manager. c may be nil to disable caching.
func NewManager(st store.Store, c *cache.Cache, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  st,
		cache:  c,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Create inserts a calendar. The user's first calendar is always primary;
// a requested primary demotes the current one in the same transaction.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*domain.Calendar, error) {
	const op = "calendars.create"
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return nil, domain.Validationf(op, "user id is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, domain.Validationf(op, "title is required")
	}

	now := m.now()
	cal := &domain.Calendar{
		ID:          m.newID(),
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
		ColorHex:    orDefault(req.ColorHex, domain.DefaultCalendarColor),
		Timezone:    orDefault(req.Timezone, domain.DefaultTimezone),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var demoted []string
	err := m.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		existing, err := tx.Calendars().ListByUser(ctx, req.UserID, false)
		if err != nil {
			return err
		}
		for _, c := range existing {
			if c.Title == req.Title {
				return domain.Conflictf(op, "calendar with title %q already exists", req.Title)
			}
		}

		cal.IsPrimary = req.Primary || len(existing) == 0
		if cal.IsPrimary {
			if demoted, err = demotePrimaries(ctx, tx, existing, "", now); err != nil {
				return err
			}
		}
		return tx.Calendars().Insert(ctx, cal)
	})
	if err != nil {
		return nil, err
	}

	m.cache.Invalidate(ctx, calendarInvalidation(req.UserID, append(demoted, cal.ID)...))
	m.logger.Info("calendar created",
		logging.Operation(op),
		logging.CalendarID(cal.ID),
		logging.UserHash(req.UserID),
		slog.Bool("primary", cal.IsPrimary),
		slog.Int("demoted", len(demoted)))
	return cal, nil
}

// demotePrimaries clears isPrimary on every calendar in cals except keep,
// saving each exactly once.
func demotePrimaries(ctx context.Context, tx store.Store, cals []domain.Calendar, keep string, now time.Time) ([]string, error) {
	var ids []string
	for i := range cals {
		c := cals[i]
		if !c.IsPrimary || c.ID == keep {
			continue
		}
		c.IsPrimary = false
		c.UpdatedAt = now
		if err := tx.Calendars().Update(ctx, &c); err != nil {
			return nil, err
		}
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// Promote makes calendarID the user's primary calendar.
func (m *Manager) Promote(ctx context.Context, calendarID, userID string) (*domain.Calendar, error) {
	const op = "calendars.promote"
	if calendarID == "" || userID == "" {
		return nil, domain.Validationf(op, "calendar id and user id are required")
	}

	now := m.now()
	var target *domain.Calendar
	var demoted []string
	err := m.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		cals, err := tx.Calendars().ListByUser(ctx, userID, false)
		if err != nil {
			return err
		}
		for i := range cals {
			if cals[i].ID == calendarID {
				target = &cals[i]
			}
		}
		if target == nil {
			return domain.NotFoundf(op, "calendar %s not found for user", calendarID)
		}
		if demoted, err = demotePrimaries(ctx, tx, cals, calendarID, now); err != nil {
			return err
		}
		if target.IsPrimary {
			return nil
		}
		target.IsPrimary = true
		target.UpdatedAt = now
		return tx.Calendars().Update(ctx, target)
	})
	if err != nil {
		return nil, err
	}

	m.cache.Invalidate(ctx, calendarInvalidation(userID, append(demoted, calendarID)...))
	m.logger.Info("calendar promoted", logging.Operation(op), logging.CalendarID(calendarID), logging.UserHash(userID))
	return target, nil
}

// SoftDelete marks a calendar deleted. Its primary flag is left as is.
func (m *Manager) SoftDelete(ctx context.Context, calendarID string) (*domain.Calendar, error) {
	const op = "calendars.delete"
	if calendarID == "" {
		return nil, domain.Validationf(op, "calendar id is required")
	}

	var cal *domain.Calendar
	err := m.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		var err error
		if cal, err = tx.Calendars().Get(ctx, calendarID); err != nil {
			return err
		}
		if cal.IsDeleted {
			return nil
		}
		cal.IsDeleted = true
		cal.UpdatedAt = m.now()
		return tx.Calendars().Update(ctx, cal)
	})
	if err != nil {
		return nil, err
	}

	m.cache.Invalidate(ctx, calendarInvalidation(cal.UserID, cal.ID))
	m.logger.Info("calendar soft-deleted", logging.Operation(op), logging.CalendarID(cal.ID))
	return cal, nil
}

// Recover restores a soft-deleted calendar as non-primary.
func (m *Manager) Recover(ctx context.Context, calendarID string) (*domain.Calendar, error) {
	const op = "calendars.recover"
	if calendarID == "" {
		return nil, domain.Validationf(op, "calendar id is required")
	}

	var cal *domain.Calendar
	err := m.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		var err error
		if cal, err = tx.Calendars().Get(ctx, calendarID); err != nil {
			return err
		}
		if !cal.IsDeleted {
			return domain.Validationf(op, "calendar %s is not deleted", calendarID)
		}
		if _, err := tx.Calendars().FindByTitle(ctx, cal.UserID, cal.Title); err == nil {
			return domain.Conflictf(op, "calendar with title %q already exists", cal.Title)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		cal.IsDeleted = false
		cal.IsPrimary = false
		cal.UpdatedAt = m.now()
		return tx.Calendars().Update(ctx, cal)
	})
	if err != nil {
		return nil, err
	}

	m.cache.Invalidate(ctx, calendarInvalidation(cal.UserID, cal.ID))
	m.logger.Info("calendar recovered", logging.Operation(op), logging.CalendarID(cal.ID))
	return cal, nil
}

// Update merges the non-blank fields of req into the calendar.
func (m *Manager) Update(ctx context.Context, calendarID string, req UpdateRequest) (*domain.Calendar, error) {
	const op = "calendars.update"
	if calendarID == "" {
		return nil, domain.Validationf(op, "calendar id is required")
	}

	var cal *domain.Calendar
	var oldTitle string
	err := m.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		var err error
		if cal, err = tx.Calendars().Get(ctx, calendarID); err != nil {
			return err
		}
		oldTitle = cal.Title
		if t := strings.TrimSpace(req.Title); t != "" && req.Title != cal.Title {
			other, err := tx.Calendars().FindByTitle(ctx, cal.UserID, req.Title)
			switch {
			case err == nil && other.ID != cal.ID:
				return domain.Conflictf(op, "calendar with title %q already exists", req.Title)
			case err != nil && !errors.Is(err, domain.ErrNotFound):
				return err
			}
			cal.Title = req.Title
		}
		if req.Description != "" {
			cal.Description = req.Description
		}
		if req.ColorHex != "" {
			cal.ColorHex = req.ColorHex
		}
		if req.Timezone != "" {
			cal.Timezone = req.Timezone
		}
		cal.UpdatedAt = m.now()
		return tx.Calendars().Update(ctx, cal)
	})
	if err != nil {
		return nil, err
	}

	inv := calendarInvalidation(cal.UserID, cal.ID)
	if oldTitle != cal.Title {
		inv.Key(cache.CalendarByTitle, cal.UserID, oldTitle)
	}
	m.cache.Invalidate(ctx, inv)
	m.logger.Info("calendar updated", logging.Operation(op), logging.CalendarID(cal.ID))
	return cal, nil
}

// Get returns a calendar by id, deleted or not.
func (m *Manager) Get(ctx context.Context, calendarID string) (*domain.Calendar, error) {
	if calendarID == "" {
		return nil, domain.Validationf("calendars.get", "calendar id is required")
	}
	cal, err := cache.Fetch(ctx, m.cache, cache.Calendar, cache.Key(cache.Calendar, calendarID),
		func(ctx context.Context) (domain.Calendar, error) {
			c, err := m.store.Calendars().Get(ctx, calendarID)
			if err != nil {
				return domain.Calendar{}, err
			}
			return *c, nil
		})
	if err != nil {
		return nil, err
	}
	return &cal, nil
}

// List returns a page of non-deleted calendars across users.
func (m *Manager) List(ctx context.Context, page domain.Page) ([]domain.Calendar, error) {
	page = page.Normalize()
	return cache.Fetch(ctx, m.cache, cache.AllCalendars, pageKey(cache.AllCalendars, page),
		func(ctx context.Context) ([]domain.Calendar, error) {
			return m.store.Calendars().List(ctx, page)
		})
}

// ListByUser returns the user's non-deleted calendars. A user without
// calendars is NotFound.
func (m *Manager) ListByUser(ctx context.Context, userID string) ([]domain.Calendar, error) {
	const op = "calendars.list_by_user"
	if userID == "" {
		return nil, domain.Validationf(op, "user id is required")
	}
	return cache.Fetch(ctx, m.cache, cache.UserCalendars, cache.Key(cache.UserCalendars, userID),
		func(ctx context.Context) ([]domain.Calendar, error) {
			cals, err := m.store.Calendars().ListByUser(ctx, userID, false)
			if err != nil {
				return nil, err
			}
			if len(cals) == 0 {
				return nil, domain.NotFoundf(op, "no calendars found for user")
			}
			return cals, nil
		})
}

// Primary returns the user's primary calendar.
func (m *Manager) Primary(ctx context.Context, userID string) (*domain.Calendar, error) {
	if userID == "" {
		return nil, domain.Validationf("calendars.primary", "user id is required")
	}
	cal, err := cache.Fetch(ctx, m.cache, cache.UserPrimaryCalendar, cache.Key(cache.UserPrimaryCalendar, userID),
		func(ctx context.Context) (domain.Calendar, error) {
			c, err := m.store.Calendars().FindPrimary(ctx, userID)
			if err != nil {
				return domain.Calendar{}, err
			}
			return *c, nil
		})
	if err != nil {
		return nil, err
	}
	return &cal, nil
}

// ByTitle returns the user's non-deleted calendar with exactly title.
func (m *Manager) ByTitle(ctx context.Context, userID, title string) (*domain.Calendar, error) {
	if userID == "" || title == "" {
		return nil, domain.Validationf("calendars.by_title", "user id and title are required")
	}
	cal, err := cache.Fetch(ctx, m.cache, cache.CalendarByTitle, cache.Key(cache.CalendarByTitle, userID, title),
		func(ctx context.Context) (domain.Calendar, error) {
			c, err := m.store.Calendars().FindByTitle(ctx, userID, title)
			if err != nil {
				return domain.Calendar{}, err
			}
			return *c, nil
		})
	if err != nil {
		return nil, err
	}
	return &cal, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
