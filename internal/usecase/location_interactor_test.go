package usecase

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/GoArmGo/ProtogenMap/internal/database/memory"
	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/GoArmGo/ProtogenMap/internal/geocoding"
	"github.com/GoArmGo/ProtogenMap/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type locationFixture struct {
	store    *memory.Store
	resolver *stubResolver
	cache    *memCache
	activity *recordingActivity
	uc       LocationUseCase
	user     *domain.User
}

func newLocationFixture(t *testing.T) *locationFixture {
	t.Helper()
	f := &locationFixture{
		store:    memory.NewStore(),
		resolver: &stubResolver{place: &geocoding.Place{Name: "Mitino", Lat: 55.83, Lng: 37.36}},
		cache:    &memCache{},
		activity: &recordingActivity{},
		user:     &domain.User{Username: "alice"},
	}
	require.NoError(t, f.store.CreateUser(context.Background(), f.user))
	f.uc = NewLocationUseCase(f.resolver, f.store, f.cache, f.activity, logger.Discard())
	return f
}

func TestPlaceMarker_CreateThenUpdate(t *testing.T) {
	f := newLocationFixture(t)
	ctx := context.Background()

	res, err := f.uc.PlaceMarker(ctx, f.user, 55.81, 37.37)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, geocoding.Place{Name: "Mitino", Lat: 55.83, Lng: 37.36}, res.Place)

	res, err = f.uc.PlaceMarker(ctx, f.user, 55.815, 37.375)
	require.NoError(t, err)
	assert.False(t, res.Created)

	assert.Equal(t, 1, f.store.LocationCount())
	loc, err := f.store.GetLocationByUserID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 55.83, loc.Latitude, "stored coordinate is the place centroid, not the click")
	assert.Equal(t, []string{domain.MarkerPlaced, domain.MarkerMoved}, f.activity.actions())
	assert.Equal(t, 2, f.cache.invalidated)
}

func TestPlaceMarker_ResolutionFailureLeavesNoRow(t *testing.T) {
	f := newLocationFixture(t)
	f.resolver.err = &geocoding.ResolutionError{Kind: geocoding.KindNoAddressFound, Stage: geocoding.StageReverse}

	_, err := f.uc.PlaceMarker(context.Background(), f.user, 0, -160)
	assert.ErrorIs(t, err, geocoding.ErrUnresolved)
	assert.Zero(t, f.store.LocationCount())
	assert.Empty(t, f.activity.actions())
	assert.Zero(t, f.cache.invalidated)
}

func TestPlaceMarker_InvalidCoordinate(t *testing.T) {
	f := newLocationFixture(t)

	for _, c := range [][2]float64{{91, 0}, {0, 181}, {-90.5, 0}, {math.NaN(), 0}} {
		_, err := f.uc.PlaceMarker(context.Background(), f.user, c[0], c[1])
		assert.ErrorIs(t, err, domain.ErrInvalidCoordinate, "%v", c)
	}
	assert.Zero(t, f.resolver.calls, "resolver is not consulted for out-of-range input")
}

func TestPlaceMarker_StorageError(t *testing.T) {
	f := newLocationFixture(t)
	f.store.Err = errDB

	_, err := f.uc.PlaceMarker(context.Background(), f.user, 55.81, 37.37)
	assert.ErrorIs(t, err, errDB)
	assert.NotErrorIs(t, err, geocoding.ErrUnresolved)
	assert.Empty(t, f.activity.actions())
}

func TestPlaceMarker_ConcurrentRequestsKeepOneRow(t *testing.T) {
	f := newLocationFixture(t)

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.uc.PlaceMarker(context.Background(), f.user, 55.81, 37.37)
			if !assert.NoError(t, err) {
				return
			}
			if res.Created {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 1, f.store.LocationCount())
}

func TestRemoveMarker_Idempotent(t *testing.T) {
	f := newLocationFixture(t)
	ctx := context.Background()

	removed, err := f.uc.RemoveMarker(ctx, f.user)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = f.uc.PlaceMarker(ctx, f.user, 55.81, 37.37)
	require.NoError(t, err)

	removed, err = f.uc.RemoveMarker(ctx, f.user)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = f.uc.RemoveMarker(ctx, f.user)
	require.NoError(t, err)
	assert.False(t, removed)

	assert.Zero(t, f.store.LocationCount())
	assert.Equal(t, []string{domain.MarkerPlaced, domain.MarkerRemoved}, f.activity.actions())
}

func TestListMarkers_UsesCache(t *testing.T) {
	f := newLocationFixture(t)
	ctx := context.Background()

	_, err := f.uc.PlaceMarker(ctx, f.user, 55.81, 37.37)
	require.NoError(t, err)

	markers, err := f.uc.ListMarkers(ctx)
	require.NoError(t, err)
	want := []domain.Marker{{Lat: 55.83, Lng: 37.36, City: "Mitino", Username: "alice"}}
	assert.Equal(t, want, markers)
	assert.True(t, f.cache.present, "miss fills the cache")

	// база недоступна, но кэш отвечает
	f.store.Err = errDB
	markers, err = f.uc.ListMarkers(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, markers)
}

func TestListMarkers_CacheFailureFallsBackToStorage(t *testing.T) {
	f := newLocationFixture(t)
	f.cache.err = errDB

	markers, err := f.uc.ListMarkers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, markers)
}

func TestListMarkers_WithoutCache(t *testing.T) {
	store := memory.NewStore()
	uc := NewLocationUseCase(&stubResolver{}, store, nil, &recordingActivity{}, logger.Discard())

	markers, err := uc.ListMarkers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, markers)
}

func TestPlaceMarker_LongPlaceNameIsTruncated(t *testing.T) {
	f := newLocationFixture(t)
	f.resolver.place = &geocoding.Place{Name: strings.Repeat("Ж", 199), Lat: 55.83, Lng: 37.36}
	ctx := context.Background()

	res, err := f.uc.PlaceMarker(ctx, f.user, 55.81, 37.37)
	require.NoError(t, err)
	assert.Equal(t, maxPlaceNameLength, utf8.RuneCountInString(res.Place.Name))

	loc, err := f.store.GetLocationByUserID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("Ж", maxPlaceNameLength), loc.City)
	assert.Equal(t, loc.City, f.activity.events[0].City)
}

// gatedLocations отдаёт снимок меток и ждёт release, прежде чем вернуть его.
type gatedLocations struct {
	*memory.Store
	read    chan struct{}
	release chan struct{}
}

func (g *gatedLocations) ListMarkers(ctx context.Context) ([]domain.Marker, error) {
	markers, err := g.Store.ListMarkers(ctx)
	close(g.read)
	<-g.release
	return markers, err
}

func TestListMarkers_StaleReadDoesNotOverwriteCache(t *testing.T) {
	f := newLocationFixture(t)
	ctx := context.Background()

	gated := &gatedLocations{Store: f.store, read: make(chan struct{}), release: make(chan struct{})}
	reader := NewLocationUseCase(f.resolver, gated, f.cache, f.activity, logger.Discard())

	done := make(chan []domain.Marker)
	go func() {
		markers, err := reader.ListMarkers(ctx)
		assert.NoError(t, err)
		done <- markers
	}()

	<-gated.read
	_, err := f.uc.PlaceMarker(ctx, f.user, 55.81, 37.37)
	require.NoError(t, err)
	close(gated.release)

	assert.Empty(t, <-done, "reader got the snapshot taken before placement")
	assert.False(t, f.cache.present, "stale snapshot must not be cached")

	markers, err := f.uc.ListMarkers(ctx)
	require.NoError(t, err)
	require.Len(t, markers, 1)
	assert.Equal(t, "alice", markers[0].Username)
}
