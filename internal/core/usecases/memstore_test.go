package usecases_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/placeshare/internal/core/domain"
	"github.com/samirrijal/placeshare/internal/core/ports"
)

// --- In-memory store with transactional rollback ---

// memStore implements PlaceRepository, UserRepository and Transactor.
// A failed WithinTx restores the snapshot taken when it began.
type memStore struct {
	mu     sync.Mutex
	places map[string]domain.Place
	users  map[string]domain.User

	getUserErr error // returned by UserRepository.GetByID
	insertErr  error // returned by PlaceTx.InsertPlace
	saveErr    error // returned by PlaceTx.SaveUserPlaces
	commitErr  error // returned after fn succeeds, before changes are kept

	txCount int
}

func newMemStore() *memStore {
	return &memStore{
		places: make(map[string]domain.Place),
		users:  make(map[string]domain.User),
	}
}

func (m *memStore) addUser(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.users[id] = domain.User{ID: id, Name: name, Email: name + "@example.com", PlaceIDs: []string{}}
	return id
}

func (m *memStore) userPlaces(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.users[id].PlaceIDs...)
}

func (m *memStore) placeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.places)
}

// checkInvariant returns an error when places and user lists disagree.
func (m *memStore) checkInvariant() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]string)
	for _, u := range m.users {
		for _, pid := range u.PlaceIDs {
			if prev, dup := seen[pid]; dup {
				return errors.New("place " + pid + " listed by " + prev + " and " + u.ID)
			}
			seen[pid] = u.ID
			p, ok := m.places[pid]
			if !ok {
				return errors.New("user " + u.ID + " lists missing place " + pid)
			}
			if p.CreatorID != u.ID {
				return errors.New("place " + pid + " creator mismatch")
			}
		}
	}
	for id := range m.places {
		if _, ok := seen[id]; !ok {
			return errors.New("place " + id + " not listed by any user")
		}
	}
	return nil
}

func (m *memStore) snapshot() (map[string]domain.Place, map[string]domain.User) {
	places := make(map[string]domain.Place, len(m.places))
	for k, v := range m.places {
		places[k] = v
	}
	users := make(map[string]domain.User, len(m.users))
	for k, v := range m.users {
		v.PlaceIDs = append([]string(nil), v.PlaceIDs...)
		users[k] = v
	}
	return places, users
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.PlaceTx) error) error {
	m.mu.Lock()
	m.txCount++
	places, users := m.snapshot()
	m.mu.Unlock()

	restore := func() {
		m.mu.Lock()
		m.places, m.users = places, users
		m.mu.Unlock()
	}

	if err := fn(ctx, &memTx{m: m}); err != nil {
		restore()
		return err
	}
	if m.commitErr != nil {
		restore()
		return m.commitErr
	}
	return nil
}

// PlaceRepository

func (m *memStore) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.places[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memStore) GetWithCreator(ctx context.Context, id string) (*domain.Place, *domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.places[id]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	u, ok := m.users[p.CreatorID]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	u.PlaceIDs = append([]string(nil), u.PlaceIDs...)
	return &p, &u, nil
}

func (m *memStore) ListByIDs(ctx context.Context, ids []string) ([]domain.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Place
	for _, id := range ids {
		if p, ok := m.places[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) Update(ctx context.Context, place *domain.Place) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.places[place.ID]; !ok {
		return domain.ErrNotFound
	}
	place.UpdatedAt = time.Now()
	m.places[place.ID] = *place
	return nil
}

// userRepo exposes the UserRepository side; GetByID would clash with places.
type userRepo struct{ m *memStore }

func (r userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if r.m.getUserErr != nil {
		return nil, r.m.getUserErr
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.PlaceIDs = append([]string(nil), u.PlaceIDs...)
	return &u, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r userRepo) List(ctx context.Context) ([]domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]domain.User, 0, len(r.m.users))
	for _, u := range r.m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r userRepo) Create(ctx context.Context, user *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == user.Email {
			return domain.ErrDuplicate
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	r.m.users[user.ID] = *user
	return nil
}

type memTx struct{ m *memStore }

func (t *memTx) LockUser(ctx context.Context, id string) (*domain.User, error) {
	return userRepo{t.m}.GetByID(ctx, id)
}

func (t *memTx) InsertPlace(ctx context.Context, place *domain.Place) error {
	if t.m.insertErr != nil {
		return t.m.insertErr
	}
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	place.ID = uuid.NewString()
	place.CreatedAt = time.Now()
	place.UpdatedAt = place.CreatedAt
	t.m.places[place.ID] = *place
	return nil
}

func (t *memTx) DeletePlace(ctx context.Context, id string) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if _, ok := t.m.places[id]; !ok {
		return domain.ErrNotFound
	}
	delete(t.m.places, id)
	return nil
}

func (t *memTx) SaveUserPlaces(ctx context.Context, userID string, placeIDs []string) error {
	if t.m.saveErr != nil {
		return t.m.saveErr
	}
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	u, ok := t.m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.PlaceIDs = append([]string(nil), placeIDs...)
	t.m.users[userID] = u
	return nil
}

// --- Collaborator mocks ---

type mockGeocoder struct {
	geocodeFn func(ctx context.Context, address string) (domain.GeoPoint, error)
	calls     int
}

func (g *mockGeocoder) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	g.calls++
	if g.geocodeFn != nil {
		return g.geocodeFn(ctx, address)
	}
	return domain.GeoPoint{Lat: 37.4224764, Lng: -122.0842499}, nil
}

type mockCache struct {
	mu       sync.Mutex
	data     map[string][]byte
	versions map[string]int64
	deleted  []string
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte), versions: make(map[string]int64)}
}

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errors.New("valkey nil message")
	}
	return v, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
	return nil
}

func (c *mockCache) Version(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[key], nil
}

func (c *mockCache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[key]++
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
	return nil
}

func (c *mockCache) SetIfVersion(ctx context.Context, key string, version int64, value []byte, ttlSeconds int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[key] != version {
		return false, nil
	}
	c.data[key] = value
	return true, nil
}

type mockPublisher struct {
	events []domain.PlaceEvent
	err    error
}

func (p *mockPublisher) PublishPlaceEvent(ctx context.Context, event *domain.PlaceEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, *event)
	return nil
}
