package locations

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/calsync/internal/cache"
	"github.com/teemow/calsync/internal/domain"
	"github.com/teemow/calsync/internal/events"
	"github.com/teemow/calsync/internal/logging"
	"github.com/teemow/calsync/internal/store"
)

// DefaultRadiusKm is the Nearby radius used when none is given.
const DefaultRadiusKm = 10.0

// MaxRadiusKm bounds Nearby queries.
const MaxRadiusKm = 500.0

// EventSync pushes location changes to the external calendar.
// *events.Orchestrator implements it.
type EventSync interface {
	AttachLocation(ctx context.Context, eventID, locationID string) (*events.Details, error)
	PushLocation(ctx context.Context, eventID string) error
}

// MapLinks opens a location in map applications.
type MapLinks struct {
	GoogleMapsURL    string `json:"googleMapsUrl"`
	YandexMapsWebURL string `json:"yandexMapsWebUrl"`
	YandexMapsAppURL string `json:"yandexMapsAppUrl"`
}

// Service manages locations.
type Service struct {
	store  store.Store
	events EventSync
	cache  *cache.Cache
	logger *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates a Service. c may be nil to disable caching.
func NewService(st store.Store, ev EventSync, c *cache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		events: ev,
		cache:  c,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// AddLocation creates a location and links it to an event. The location is
// returned even when pushing it to the external calendar fails.
func (s *Service) AddLocation(ctx context.Context, eventID string, in events.LocationInput) (*domain.Location, error) {
	const op = "locations.add"
	if eventID == "" {
		return nil, domain.Validationf(op, "event id is required")
	}
	if _, err := s.store.Events().Get(ctx, eventID); err != nil {
		return nil, err
	}
	loc, err := in.NewLocation(op, s.newID(), s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Locations().Insert(ctx, loc); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, locationInvalidation(loc.ID, eventID))

	if _, err := s.events.AttachLocation(ctx, eventID, loc.ID); err != nil {
		return loc, err
	}
	s.logger.Info("location added to event",
		logging.Operation(op),
		logging.EventID(eventID),
		slog.String("location_id", loc.ID))
	return loc, nil
}

// Get returns a location by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Location, error) {
	if id == "" {
		return nil, domain.Validationf("locations.get", "location id is required")
	}
	loc, err := cache.Fetch(ctx, s.cache, cache.Location, cache.Key(cache.Location, id),
		func(ctx context.Context) (domain.Location, error) {
			l, err := s.store.Locations().Get(ctx, id)
			if err != nil {
				return domain.Location{}, err
			}
			return *l, nil
		})
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// ByEvent returns the location linked to an event.
func (s *Service) ByEvent(ctx context.Context, eventID string) (*domain.Location, error) {
	const op = "locations.by_event"
	if eventID == "" {
		return nil, domain.Validationf(op, "event id is required")
	}
	loc, err := cache.Fetch(ctx, s.cache, cache.EventLocations, cache.Key(cache.EventLocations, eventID),
		func(ctx context.Context) (domain.Location, error) {
			e, err := s.store.Events().Get(ctx, eventID)
			if err != nil {
				return domain.Location{}, err
			}
			if e.LocationID == "" {
				return domain.Location{}, domain.NotFoundf(op, "event %q has no location", eventID)
			}
			l, err := s.store.Locations().Get(ctx, e.LocationID)
			if err != nil {
				return domain.Location{}, err
			}
			return *l, nil
		})
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// List returns a page of all locations.
func (s *Service) List(ctx context.Context, page domain.Page) ([]domain.Location, error) {
	page = page.Normalize()
	return cache.Fetch(ctx, s.cache, cache.Locations, pageKey(cache.Locations, page),
		func(ctx context.Context) ([]domain.Location, error) {
			return s.store.Locations().List(ctx, page)
		})
}

// Search matches query against name, street, city and country.
func (s *Service) Search(ctx context.Context, query string, page domain.Page) ([]domain.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.Validationf("locations.search", "search query is required")
	}
	page = page.Normalize()
	return cache.Fetch(ctx, s.cache, cache.LocationSearch, pageKey(cache.LocationSearch, page, strings.ToLower(query)),
		func(ctx context.Context) ([]domain.Location, error) {
			return s.store.Locations().Search(ctx, query, page)
		})
}

// ByCity returns a page of locations whose city contains city.
func (s *Service) ByCity(ctx context.Context, city string, page domain.Page) ([]domain.Location, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, domain.Validationf("locations.by_city", "city is required")
	}
	return s.paged(ctx, cache.LocationsByCity, page, strings.ToLower(city), func(ctx context.Context) ([]domain.Location, error) {
		return s.store.Locations().ByCity(ctx, city)
	})
}

// ByCountry returns a page of locations whose country contains country.
func (s *Service) ByCountry(ctx context.Context, country string, page domain.Page) ([]domain.Location, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return nil, domain.Validationf("locations.by_country", "country is required")
	}
	return s.paged(ctx, cache.LocationsByCountry, page, strings.ToLower(country), func(ctx context.Context) ([]domain.Location, error) {
		return s.store.Locations().ByCountry(ctx, country)
	})
}

// Nearby returns geocoded locations within radiusKm of a point, closest
// first. A non-positive radius uses DefaultRadiusKm.
func (s *Service) Nearby(ctx context.Context, lat, lon, radiusKm float64, page domain.Page) ([]domain.Location, error) {
	const op = "locations.nearby"
	if err := events.ValidateCoordinates(op, &lat, &lon); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	if radiusKm > MaxRadiusKm {
		return nil, domain.Validationf(op, "radius must not exceed %.0f km", MaxRadiusKm)
	}
	key := strings.Join([]string{coordKey(lat), coordKey(lon), coordKey(radiusKm)}, ":")
	return s.paged(ctx, cache.NearbyLocations, page, key, func(ctx context.Context) ([]domain.Location, error) {
		return s.store.Locations().Nearby(ctx, lat, lon, radiusKm)
	})
}

func (s *Service) paged(ctx context.Context, name string, page domain.Page, part string, load func(context.Context) ([]domain.Location, error)) ([]domain.Location, error) {
	page = page.Normalize()
	return cache.Fetch(ctx, s.cache, name, pageKey(name, page, part),
		func(ctx context.Context) ([]domain.Location, error) {
			all, err := load(ctx)
			if err != nil {
				return nil, err
			}
			return domain.Slice(all, page), nil
		})
}

// OpenInMaps builds map links for a location's address.
func (s *Service) OpenInMaps(ctx context.Context, id string) (*MapLinks, error) {
	loc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return Links(loc), nil
}

// Links builds map links for loc.
func Links(loc *domain.Location) *MapLinks {
	q := url.QueryEscape(loc.Address())
	return &MapLinks{
		GoogleMapsURL:    "https://www.google.com/maps/search/?api=1&query=" + q,
		YandexMapsWebURL: "https://maps.yandex.ru/?text=" + q,
		YandexMapsAppURL: "yandexmaps://maps.yandex.ru/?text=" + q,
	}
}

// Update merges in into a location and pushes the new address to every
// event that references it.
func (s *Service) Update(ctx context.Context, id string, in events.LocationInput) (*domain.Location, error) {
	const op = "locations.update"
	if id == "" {
		return nil, domain.Validationf(op, "location id is required")
	}
	loc, err := s.store.Locations().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Apply(loc, s.now())
	if err := events.ValidateCoordinates(op, loc.Latitude, loc.Longitude); err != nil {
		return nil, err
	}

	var refs []domain.Event
	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.Locations().Update(ctx, loc); err != nil {
			return err
		}
		var err error
		refs, err = tx.Events().ListByLocation(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, locationInvalidation(id, eventIDs(refs)...))

	return loc, s.push(ctx, op, refs)
}

// Delete detaches a location from every event, deletes it and clears the
// location of the synced events.
func (s *Service) Delete(ctx context.Context, id string) error {
	const op = "locations.delete"
	if id == "" {
		return domain.Validationf(op, "location id is required")
	}
	if _, err := s.store.Locations().Get(ctx, id); err != nil {
		return err
	}

	var refs []domain.Event
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		var err error
		if refs, err = tx.Events().ListByLocation(ctx, id); err != nil {
			return err
		}
		now := s.now()
		for i := range refs {
			refs[i].LocationID = ""
			refs[i].UpdatedAt = now
			if err := tx.Events().Update(ctx, &refs[i]); err != nil {
				return err
			}
		}
		return tx.Locations().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, locationInvalidation(id, eventIDs(refs)...))
	s.logger.Info("location deleted",
		logging.Operation(op),
		slog.String("location_id", id),
		slog.Int("detached_events", len(refs)))

	return s.push(ctx, op, refs)
}

// push pushes the current location of each event. Every event is tried;
// the failures are joined.
func (s *Service) push(ctx context.Context, op string, refs []domain.Event) error {
	var errs []error
	for _, e := range refs {
		if err := s.events.PushLocation(ctx, e.ID); err != nil {
			s.logger.Warn("failed to push location change",
				logging.Operation(op),
				logging.EventID(e.ID),
				logging.Err(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func eventIDs(evs []domain.Event) []string {
	ids := make([]string, len(evs))
	for i, e := range evs {
		ids[i] = e.ID
	}
	return ids
}
