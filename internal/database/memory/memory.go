// Package memory содержит хранилища в памяти процесса с теми же контрактами,
// что и PostgreSQL-реализации. Используются тестами use case и HTTP-слоя.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/google/uuid"
)

// Store реализует ports.UserStorage, ports.ProfileStorage, ports.LocationStorage и ports.EventStorage.
type Store struct {
	mu        sync.Mutex
	users     map[uuid.UUID]domain.User
	byName    map[string]uuid.UUID
	locations map[uuid.UUID]domain.Location
	events    []domain.MarkerEvent

	// Err, если задан, возвращается всеми методами (имитация недоступной базы).
	Err error
}

func NewStore() *Store {
	return &Store{
		users:     make(map[uuid.UUID]domain.User),
		byName:    make(map[string]uuid.UUID),
		locations: make(map[uuid.UUID]domain.Location),
	}
}

func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	if _, taken := s.byName[user.Username]; taken {
		return domain.ErrUsernameTaken
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	s.users[user.ID] = *user
	s.byName[user.Username] = user.ID
	return nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	id, ok := s.byName[username]
	if !ok {
		return nil, nil
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) UpdateProfile(_ context.Context, userID uuid.UUID, p domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	u, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.AvatarURL, u.SocialLink, u.AboutMe = p.AvatarURL, p.SocialLink, p.AboutMe
	u.UpdatedAt = time.Now().UTC()
	s.users[userID] = u
	return nil
}

// UpsertLocation выполняется под одной блокировкой, как ON CONFLICT в PostgreSQL.
func (s *Store) UpsertLocation(_ context.Context, loc *domain.Location) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}

	now := time.Now().UTC()
	existing, ok := s.locations[loc.UserID]
	if ok {
		existing.Latitude, existing.Longitude, existing.City = loc.Latitude, loc.Longitude, loc.City
		existing.UpdatedAt = now
		s.locations[loc.UserID] = existing
		*loc = existing
		return false, nil
	}

	if loc.ID == uuid.Nil {
		loc.ID = uuid.New()
	}
	loc.CreatedAt, loc.UpdatedAt = now, now
	s.locations[loc.UserID] = *loc
	return true, nil
}

func (s *Store) GetLocationByUserID(_ context.Context, userID uuid.UUID) (*domain.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	loc, ok := s.locations[userID]
	if !ok {
		return nil, nil
	}
	return &loc, nil
}

func (s *Store) DeleteLocation(_ context.Context, userID uuid.UUID) (*domain.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	loc, ok := s.locations[userID]
	if !ok {
		return nil, nil
	}
	delete(s.locations, userID)
	return &loc, nil
}

func (s *Store) ListMarkers(_ context.Context) ([]domain.Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	locs := make([]domain.Location, 0, len(s.locations))
	for _, l := range s.locations {
		locs = append(locs, l)
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i].UpdatedAt.After(locs[j].UpdatedAt) })

	markers := make([]domain.Marker, 0, len(locs))
	for _, l := range locs {
		markers = append(markers, domain.Marker{
			Lat:      l.Latitude,
			Lng:      l.Longitude,
			City:     l.City,
			Username: s.users[l.UserID].Username,
		})
	}
	return markers, nil
}

// LocationCount число строк меток; тесты проверяют им уникальность метки.
func (s *Store) LocationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locations)
}

func (s *Store) SaveEvent(_ context.Context, event *domain.MarkerEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	for _, e := range s.events {
		if e.ID == event.ID {
			return nil
		}
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	s.events = append(s.events, *event)
	return nil
}

func (s *Store) ListRecentEvents(_ context.Context, limit int) ([]domain.MarkerEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	out := make([]domain.MarkerEvent, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

// Events копия всех сохранённых событий в порядке записи.
func (s *Store) Events() []domain.MarkerEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.MarkerEvent(nil), s.events...)
}
