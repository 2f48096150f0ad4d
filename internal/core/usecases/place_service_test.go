package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/samirrijal/placeshare/internal/core/domain"
	"github.com/samirrijal/placeshare/internal/core/usecases"
)

type fixture struct {
	store     *memStore
	geocoder  *mockGeocoder
	cache     *mockCache
	publisher *mockPublisher
	svc       *usecases.PlaceService
}

func newFixture() *fixture {
	f := &fixture{
		store:     newMemStore(),
		geocoder:  &mockGeocoder{},
		cache:     newMockCache(),
		publisher: &mockPublisher{},
	}
	f.svc = usecases.NewPlaceService(f.store, userRepo{f.store}, f.store, f.geocoder, f.cache, f.publisher)
	return f
}

func cafe(creator string) usecases.CreatePlaceInput {
	return usecases.CreatePlaceInput{
		Title:       "Cafe",
		Description: "desc",
		Address:     "1600 Amphitheatre Pkwy",
		CreatorID:   creator,
	}
}

func assertKind(t *testing.T, err error, want domain.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	kind, ok := domain.KindOf(err)
	if !ok {
		t.Fatalf("expected *domain.Error, got %T: %v", err, err)
	}
	if kind != want {
		t.Fatalf("expected kind %s, got %s (%v)", want, kind, err)
	}
}

// --- Create ---

func TestPlaceService_Create_Success(t *testing.T) {
	f := newFixture()
	u1 := f.store.addUser("u1")

	place, err := f.svc.Create(context.Background(), cafe(u1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place.ID == "" {
		t.Fatal("expected assigned id")
	}
	if place.Location.Lat == 0 || place.Location.Lng == 0 {
		t.Errorf("expected geocoded location, got %+v", place.Location)
	}
	if place.Image != domain.DefaultPlaceImage {
		t.Errorf("expected default image, got %s", place.Image)
	}
	if got := f.store.userPlaces(u1); !reflect.DeepEqual(got, []string{place.ID}) {
		t.Errorf("expected user places [%s], got %v", place.ID, got)
	}
	if err := f.store.checkInvariant(); err != nil {
		t.Error(err)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].Type != domain.PlaceCreated {
		t.Errorf("expected one created event, got %+v", f.publisher.events)
	}
}

func TestPlaceService_Create_KeepsCustomImage(t *testing.T) {
	f := newFixture()
	u1 := f.store.addUser("u1")

	in := cafe(u1)
	in.Image = "https://example.com/cafe.jpg"
	place, err := f.svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place.Image != in.Image {
		t.Errorf("expected %s, got %s", in.Image, place.Image)
	}
}

func TestPlaceService_Create_AppendsInOrder(t *testing.T) {
	f := newFixture()
	u1 := f.store.addUser("u1")

	var ids []string
	for i := 0; i < 3; i++ {
		p, err := f.svc.Create(context.Background(), cafe(u1))
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		ids = append(ids, p.ID)
	}
	if got := f.store.userPlaces(u1); !reflect.DeepEqual(got, ids) {
		t.Errorf("expected %v, got %v", ids, got)
	}
}

func TestPlaceService_Create_UnknownCreator(t *testing.T) {
	f := newFixture()
	f.store.addUser("u1")

	_, err := f.svc.Create(context.Background(), cafe(uuid.NewString()))
	assertKind(t, err, domain.KindNotFound)

	var de *domain.Error
	errors.As(err, &de)
	if de.Message != usecases.MsgCreatorNotFound {
		t.Errorf("unexpected message %q", de.Message)
	}
	if f.store.txCount != 0 {
		t.Errorf("expected no transaction, got %d", f.store.txCount)
	}
	if f.store.placeCount() != 0 {
		t.Errorf("expected no places, got %d", f.store.placeCount())
	}
}

func TestPlaceService_Create_MalformedCreator(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), cafe("does-not-exist"))
	assertKind(t, err, domain.KindNotFound)
	if f.store.txCount != 0 {
		t.Errorf("expected no transaction, got %d", f.store.txCount)
	}
}

func TestPlaceService_Create_GeocodeFailure(t *testing.T) {
	f := newFixture()
	u1 := f.store.addUser("u1")
	f.geocoder.geocodeFn = func(ctx context.Context, address string) (domain.GeoPoint, error) {
		return domain.GeoPoint{}, domain.ErrAddressNotFound
	}

	_, err := f.svc.Create(context.Background(), cafe(u1))
	assertKind(t, err, domain.KindGeocoding)
	if !errors.Is(err, domain.ErrAddressNotFound) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
	if f.store.txCount != 0 {
		t.Errorf("expected no transaction, got %d", f.store.txCount)
	}
	if len(f.store.userPlaces(u1)) != 0 || f.store.placeCount() != 0 {
		t.Error("geocoding failure must not write anything")
	}
	if len(f.publisher.events) != 0 {
		t.Errorf("expected no events, got %d", len(f.publisher.events))
	}
}

func TestPlaceService_Create_UserLookupError(t *testing.T) {
	f := newFixture()
	u1 := f.store.addUser("u1")
	f.store.getUserErr = errors.New("connection reset")

	_, err := f.svc.Create(context.Background(), cafe(u1))
	assertKind(t, err, domain.KindPersistence)
	if f.store.txCount != 0 {
		t.Errorf("expected no transaction, got %d", f.store.txCount)
	}
}

func TestPlaceService_Create_RollsBackWhenUserSaveFails(t *testing.T) {
	f := newFixture()
	u1 := f.store.addUser("u1")
	f.store.saveErr = errors.New("disk full")

	_, err := f.svc.Create(context.Background(), cafe(u1))
	assertKind(t, err, domain.KindPersistence)

	if f.store.placeCount() != 0 {
		t.Errorf("inserted place must be rolled back, found %d", f.store.placeCount())
	}
	if len(f.store.userPlaces(u1)) != 0 {
		t.Errorf("user list must be unchanged, got %v", f.store.userPlaces(u1))
	}
	if len(f.publisher.events) != 0 {
		t.Error("no event should be published for a rolled back create")
	}
}

func TestPlaceService_Create_InsertFailure(t *testing.T) {
	f := newFixture()
	u1 := f.store.addUser("u1")
	f.store.insertErr = errors.New("constraint violation")

	_, err := f.svc.Create(context.Background(), cafe(u1))
	assertKind(t, err, domain.KindPersistence)
	if err := f.store.checkInvariant(); err != nil {
		t.Error(err)
	}
}

func TestPlaceService_Create_CommitFailureIsNotRetried(t *testing.T) {
	f := newFixture()
	u1 := f.store.addUser("u1")
	f.store.commitErr = errors.New("serialization failure")

	_, err := f.svc.Create(context.Background(), cafe(u1))
	assertKind(t, err, domain.KindPersistence)

	var de *domain.Error
	errors.As(err, &de)
	if de.Message != usecases.MsgCreatePlaceFailed {
		t.Errorf("unexpected message %q", de.Message)
	}
	if f.store.txCount != 1 {
		t.Errorf("expected exactly one transaction attempt, got %d", f.store.txCount)
	}
	if f.store.placeCount() != 0 || len(f.store.userPlaces(u1)) != 0 {
		t.Error("commit failure must leave the store unchanged")
	}
}

func TestPlaceService_Create_PublishFailureDoesNotFail(t *testing.T) {
	f := newFixture()
	u1 := f.store.addUser("u1")
	f.publisher.err = errors.New("nats down")

	if _, err := f.svc.Create(context.Background(), cafe(u1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.store.placeCount() != 1 {
		t.Errorf("expected place to be committed")
	}
}

// --- Delete ---

func TestPlaceService_Delete_Success(t *testing.T) {
	f := newFixture()
	u1 := f.store.addUser("u1")
	p1, _ := f.svc.Create(context.Background(), cafe(u1))
	p2, _ := f.svc.Create(context.Background(), cafe(u1))

	if err := f.svc.Delete(context.Background(), p1.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.svc.GetByID(context.Background(), p1.ID)
	assertKind(t, err, domain.KindNotFound)

	if got := f.store.userPlaces(u1); !reflect.DeepEqual(got, []string{p2.ID}) {
		t.Errorf("expected [%s], got %v", p2.ID, got)
	}
	if err := f.store.checkInvariant(); err != nil {
		t.Error(err)
	}
	last := f.publisher.events[len(f.publisher.events)-1]
	if last.Type != domain.PlaceDeleted || last.PlaceID != p1.ID || last.Place != nil {
		t.Errorf("unexpected delete event %+v", last)
	}
}

func TestPlaceService_Delete_NotFound(t *testing.T) {
	f := newFixture()

	err := f.svc.Delete(context.Background(), uuid.NewString())
	assertKind(t, err, domain.KindNotFound)
	if f.store.txCount != 0 {
		t.Errorf("expected no writes, got %d transactions", f.store.txCount)
	}

	err = f.svc.Delete(context.Background(), "does-not-exist")
	assertKind(t, err, domain.KindNotFound)
}

func TestPlaceService_Delete_RollsBackWhenUserSaveFails(t *testing.T) {
	f := newFixture()
	u1 := f.store.addUser("u1")
	p1, _ := f.svc.Create(context.Background(), cafe(u1))

	f.store.saveErr = errors.New("disk full")
	err := f.svc.Delete(context.Background(), p1.ID)
	assertKind(t, err, domain.KindPersistence)

	if _, err := f.store.GetByID(context.Background(), p1.ID); err != nil {
		t.Errorf("place must survive a rolled back delete: %v", err)
	}
	if got := f.store.userPlaces(u1); !reflect.DeepEqual(got, []string{p1.ID}) {
		t.Errorf("user list must be unchanged, got %v", got)
	}
}

func TestPlaceService_Delete_EvictsCache(t *testing.T) {
	f := newFixture()
	u1 := f.store.addUser("u1")
	p1, _ := f.svc.Create(context.Background(), cafe(u1))

	// Warm both keys.
	_, _ = f.svc.GetByID(context.Background(), p1.ID)
	_, _ = f.svc.ListByUser(context.Background(), u1)

	if err := f.svc.Delete(context.Background(), p1.ID); err != nil {
		t.Fatal(err)
	}

	places, err := f.svc.ListByUser(context.Background(), u1)
	if err != nil {
		t.Fatal(err)
	}
	if len(places) != 0 {
		t.Errorf("expected stale cache to be evicted, got %d places", len(places))
	}
	if _, err := f.svc.GetByID(context.Background(), p1.ID); err == nil {
		t.Error("expected deleted place to be gone from cache")
	}
}

// --- Update ---

func TestPlaceService_Update_Success(t *testing.T) {
	f := newFixture()
	u1 := f.store.addUser("u1")
	p1, _ := f.svc.Create(context.Background(), cafe(u1))

	updated, err := f.svc.Update(context.Background(), p1.ID, "Bar", "a quiet bar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "Bar" || updated.Description != "a quiet bar" {
		t.Errorf("unexpected place %+v", updated)
	}
	if updated.Address != p1.Address || updated.CreatorID != u1 {
		t.Error("update must only touch title and description")
	}
	if got := f.store.userPlaces(u1); !reflect.DeepEqual(got, []string{p1.ID}) {
		t.Errorf("user list must be unchanged, got %v", got)
	}
}

func TestPlaceService_Update_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Update(context.Background(), uuid.NewString(), "Bar", "a quiet bar")
	assertKind(t, err, domain.KindNotFound)
}

// --- Reads ---

func TestPlaceService_GetByID_Idempotent(t *testing.T) {
	f := newFixture()
	u1 := f.store.addUser("u1")
	p1, _ := f.svc.Create(context.Background(), cafe(u1))

	a, err := f.svc.GetByID(context.Background(), p1.ID)
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.svc.GetByID(context.Background(), p1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != b.ID || a.Title != b.Title || a.Location != b.Location || a.CreatorID != b.CreatorID {
		t.Errorf("expected identical reads, got %+v and %+v", a, b)
	}
}

func TestPlaceService_GetByID_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetByID(context.Background(), uuid.NewString())
	assertKind(t, err, domain.KindNotFound)

	var de *domain.Error
	errors.As(err, &de)
	if de.Message != usecases.MsgPlaceNotFound {
		t.Errorf("unexpected message %q", de.Message)
	}
}

func TestPlaceService_ListByUser(t *testing.T) {
	f := newFixture()
	u1 := f.store.addUser("u1")
	u2 := f.store.addUser("u2")
	p1, _ := f.svc.Create(context.Background(), cafe(u1))
	p2, _ := f.svc.Create(context.Background(), cafe(u1))

	places, err := f.svc.ListByUser(context.Background(), u1)
	if err != nil {
		t.Fatal(err)
	}
	if len(places) != 2 || places[0].ID != p1.ID || places[1].ID != p2.ID {
		t.Errorf("expected [%s %s], got %+v", p1.ID, p2.ID, places)
	}

	empty, err := f.svc.ListByUser(context.Background(), u2)
	if err != nil {
		t.Fatalf("user without places should not fail: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestPlaceService_ListByUser_UnknownUser(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ListByUser(context.Background(), uuid.NewString())
	assertKind(t, err, domain.KindNotFound)

	var de *domain.Error
	errors.As(err, &de)
	if de.Message != usecases.MsgUserPlacesNotFound {
		t.Errorf("unexpected message %q", de.Message)
	}
}

// --- Invariant under mixed outcomes ---

func TestPlaceService_InvariantHoldsUnderFailures(t *testing.T) {
	f := newFixture()
	users := []string{f.store.addUser("a"), f.store.addUser("b"), f.store.addUser("c")}
	rng := rand.New(rand.NewSource(42))
	var live []string

	for i := 0; i < 200; i++ {
		f.store.saveErr = nil
		f.store.commitErr = nil
		switch rng.Intn(4) {
		case 0:
			f.store.saveErr = fmt.Errorf("save failure %d", i)
		case 1:
			f.store.commitErr = fmt.Errorf("commit failure %d", i)
		}

		if len(live) > 0 && rng.Intn(3) == 0 {
			idx := rng.Intn(len(live))
			if err := f.svc.Delete(context.Background(), live[idx]); err == nil {
				live = append(live[:idx], live[idx+1:]...)
			}
		} else {
			p, err := f.svc.Create(context.Background(), cafe(users[rng.Intn(len(users))]))
			if err == nil {
				live = append(live, p.ID)
			}
		}

		if err := f.store.checkInvariant(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if f.store.placeCount() != len(live) {
		t.Errorf("expected %d places, got %d", len(live), f.store.placeCount())
	}
}
