package usecases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/placeshare/internal/core/domain"
	"github.com/samirrijal/placeshare/internal/core/ports"
	"github.com/samirrijal/placeshare/internal/pkg/metrics"
)

// Client-facing messages.
const (
	MsgPlaceNotFound      = "Could not find a place for the provided id"
	MsgUserPlacesNotFound = "Could not find places for the provided user id"
	MsgCreatorNotFound    = "Could not find user for provided ID"
	MsgAddressNotFound    = "Could not find location for the specified address."
	MsgFindPlaceFailed    = "Something went wrong, could not find a place"
	MsgCreateLookupFailed = "Creating place failed, please try again"
	MsgCreatePlaceFailed  = "Creating place failed. please try again."
	MsgUpdatePlaceFailed  = "Something went wrong, could not update place."
	MsgDeleteNotFound     = "Could not find place for this id"
	MsgDeletePlaceFailed  = "Something went wrong, could not delete place."
	MsgPlaceDeleted       = "Deleted place."
	MsgInvalidInputs      = "Invalid inputs passed, please check your data"
)

var tracer = otel.Tracer("github.com/samirrijal/placeshare/internal/core/usecases")

// CreatePlaceInput carries the fields accepted when creating a place.
type CreatePlaceInput struct {
	Title       string
	Description string
	Address     string
	CreatorID   string
	Image       string
}

// PlaceService keeps places and their owners' place lists consistent.
// It is the only writer of User.PlaceIDs.
type PlaceService struct {
	places    ports.PlaceRepository
	users     ports.UserRepository
	tx        ports.Transactor
	geocoder  ports.Geocoder
	cache     ports.VersionedCache
	publisher ports.EventPublisher
}

// NewPlaceService creates a new PlaceService. cache and publisher may be nil.
func NewPlaceService(
	places ports.PlaceRepository,
	users ports.UserRepository,
	tx ports.Transactor,
	geocoder ports.Geocoder,
	cache ports.VersionedCache,
	publisher ports.EventPublisher,
) *PlaceService {
	return &PlaceService{
		places:    places,
		users:     users,
		tx:        tx,
		geocoder:  geocoder,
		cache:     cache,
		publisher: publisher,
	}
}

// GetByID returns a single place.
func (s *PlaceService) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	if !isID(id) {
		return nil, domain.NewError(domain.KindNotFound, MsgPlaceNotFound, nil)
	}

	var cached domain.Place
	if readCache(ctx, s.cache, "place", placeKey(id), &cached) {
		return &cached, nil
	}
	ticket := beginFill(ctx, s.cache, placeKey(id))

	place, err := s.places.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.KindNotFound, MsgPlaceNotFound, err)
		}
		return nil, domain.NewError(domain.KindPersistence, MsgFindPlaceFailed, err)
	}

	writeCache(ctx, s.cache, ticket, place, placeCacheTTL)
	return place, nil
}

// ListByUser returns the places owned by a user, in the order they were added.
// An unknown user is NotFound; a known user without places yields an empty slice.
func (s *PlaceService) ListByUser(ctx context.Context, userID string) ([]domain.Place, error) {
	if !isID(userID) {
		return nil, domain.NewError(domain.KindNotFound, MsgUserPlacesNotFound, nil)
	}

	var cached []domain.Place
	if readCache(ctx, s.cache, "user_places", userPlacesKey(userID), &cached) {
		return cached, nil
	}
	ticket := beginFill(ctx, s.cache, userPlacesKey(userID))

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.KindNotFound, MsgUserPlacesNotFound, err)
		}
		return nil, domain.NewError(domain.KindPersistence, MsgFindPlaceFailed, err)
	}

	places := []domain.Place{}
	if len(user.PlaceIDs) > 0 {
		found, err := s.places.ListByIDs(ctx, user.PlaceIDs)
		if err != nil {
			return nil, domain.NewError(domain.KindPersistence, MsgFindPlaceFailed, err)
		}
		places = append(places, found...)
	}

	writeCache(ctx, s.cache, ticket, places, userPlacesCacheTTL)
	return places, nil
}

// Create geocodes the address, then inserts the place and appends it to the
// creator's place list in one transaction. Nothing is written if geocoding or
// the creator lookup fails.
func (s *PlaceService) Create(ctx context.Context, in CreatePlaceInput) (*domain.Place, error) {
	ctx, span := tracer.Start(ctx, "PlaceService.Create",
		trace.WithAttributes(attribute.String("creator.id", in.CreatorID)))
	defer span.End()

	loc, err := s.geocoder.Geocode(ctx, in.Address)
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, "geocode")
		slog.WarnContext(ctx, "geocoding failed", "address", in.Address, "error", err)
		return nil, domain.NewError(domain.KindGeocoding, MsgAddressNotFound, err)
	}
	metrics.GeocodeRequests.WithLabelValues("ok").Inc()

	if !isID(in.CreatorID) {
		return nil, domain.NewError(domain.KindNotFound, MsgCreatorNotFound, nil)
	}
	if _, err := s.users.GetByID(ctx, in.CreatorID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.KindNotFound, MsgCreatorNotFound, err)
		}
		return nil, domain.NewError(domain.KindPersistence, MsgCreateLookupFailed, err)
	}

	image := in.Image
	if image == "" {
		image = domain.DefaultPlaceImage
	}
	place := &domain.Place{
		Title:       in.Title,
		Description: in.Description,
		Image:       image,
		Address:     in.Address,
		Location:    loc,
		CreatorID:   in.CreatorID,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx ports.PlaceTx) error {
		owner, err := tx.LockUser(ctx, in.CreatorID)
		if err != nil {
			return err
		}
		if err := tx.InsertPlace(ctx, place); err != nil {
			return err
		}
		ids := append(append([]string(nil), owner.PlaceIDs...), place.ID)
		return tx.SaveUserPlaces(ctx, owner.ID, ids)
	})
	if err != nil {
		metrics.TxRollbacks.WithLabelValues("create").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "tx")
		slog.ErrorContext(ctx, "create place transaction failed", "creator_id", in.CreatorID, "error", err)
		return nil, domain.NewError(domain.KindPersistence, MsgCreatePlaceFailed, err)
	}

	metrics.PlaceMutations.WithLabelValues(domain.PlaceCreated).Inc()
	span.SetAttributes(attribute.String("place.id", place.ID))
	evict(ctx, s.cache, userPlacesKey(place.CreatorID))
	s.publish(ctx, domain.PlaceCreated, place)

	return place, nil
}

// Update overwrites a place's title and description. The owner is untouched.
func (s *PlaceService) Update(ctx context.Context, id, title, description string) (*domain.Place, error) {
	if !isID(id) {
		return nil, domain.NewError(domain.KindNotFound, MsgPlaceNotFound, nil)
	}

	place, err := s.places.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.KindNotFound, MsgPlaceNotFound, err)
		}
		return nil, domain.NewError(domain.KindPersistence, MsgUpdatePlaceFailed, err)
	}

	place.Title = title
	place.Description = description

	if err := s.places.Update(ctx, place); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.KindNotFound, MsgPlaceNotFound, err)
		}
		return nil, domain.NewError(domain.KindPersistence, MsgUpdatePlaceFailed, err)
	}

	metrics.PlaceMutations.WithLabelValues(domain.PlaceUpdated).Inc()
	evict(ctx, s.cache, placeKey(id), userPlacesKey(place.CreatorID))
	s.publish(ctx, domain.PlaceUpdated, place)

	return place, nil
}

// Delete removes a place and pulls it from its creator's place list in one
// transaction.
func (s *PlaceService) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "PlaceService.Delete",
		trace.WithAttributes(attribute.String("place.id", id)))
	defer span.End()

	if !isID(id) {
		return domain.NewError(domain.KindNotFound, MsgDeleteNotFound, nil)
	}

	place, creator, err := s.places.GetWithCreator(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewError(domain.KindNotFound, MsgDeleteNotFound, err)
		}
		return domain.NewError(domain.KindPersistence, MsgDeletePlaceFailed, err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx ports.PlaceTx) error {
		owner, err := tx.LockUser(ctx, creator.ID)
		if err != nil {
			return err
		}
		if err := tx.DeletePlace(ctx, place.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Deleted by a concurrent request after the lookup above.
				return domain.NewError(domain.KindNotFound, MsgDeleteNotFound, err)
			}
			return err
		}
		return tx.SaveUserPlaces(ctx, owner.ID, without(owner.PlaceIDs, place.ID))
	})
	if kind, ok := domain.KindOf(err); ok && kind == domain.KindNotFound {
		return err
	}
	if err != nil {
		metrics.TxRollbacks.WithLabelValues("delete").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "tx")
		slog.ErrorContext(ctx, "delete place transaction failed", "place_id", id, "error", err)
		return domain.NewError(domain.KindPersistence, MsgDeletePlaceFailed, err)
	}

	metrics.PlaceMutations.WithLabelValues(domain.PlaceDeleted).Inc()
	evict(ctx, s.cache, placeKey(id), userPlacesKey(creator.ID))
	s.publish(ctx, domain.PlaceDeleted, place)

	return nil
}

// publish is best-effort: the mutation has already committed.
func (s *PlaceService) publish(ctx context.Context, eventType string, place *domain.Place) {
	if s.publisher == nil {
		return
	}
	ev := &domain.PlaceEvent{
		Type:       eventType,
		PlaceID:    place.ID,
		CreatorID:  place.CreatorID,
		OccurredAt: time.Now().UTC(),
	}
	if eventType != domain.PlaceDeleted {
		ev.Place = place
	}
	if err := s.publisher.PublishPlaceEvent(ctx, ev); err != nil {
		metrics.EventsPublished.WithLabelValues(eventType, "error").Inc()
		slog.WarnContext(ctx, "publish place event failed", "type", eventType, "place_id", place.ID, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(eventType, "ok").Inc()
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// isID reports whether id has the store's identifier format.
func isID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
