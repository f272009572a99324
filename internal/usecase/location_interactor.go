package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"unicode/utf8"

	"github.com/GoArmGo/ProtogenMap/internal/core/ports"
	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/GoArmGo/ProtogenMap/internal/metrics"
)

// maxPlaceNameLength совпадает с locations.city VARCHAR(150).
const maxPlaceNameLength = 150

// locationUseCase implements LocationUseCase
type locationUseCase struct {
	resolver  PlaceResolver
	locations ports.LocationStorage
	cache     ports.MarkerCache // nil, если Redis не настроен
	activity  ActivityUseCase
	logger    *slog.Logger
}

// NewLocationUseCase создает новый экземпляр LocationUseCase. cache может быть nil.
func NewLocationUseCase(
	resolver PlaceResolver,
	locations ports.LocationStorage,
	cache ports.MarkerCache,
	activity ActivityUseCase,
	logger *slog.Logger,
) LocationUseCase {
	return &locationUseCase{
		resolver:  resolver,
		locations: locations,
		cache:     cache,
		activity:  activity,
		logger:    logger,
	}
}

func (uc *locationUseCase) PlaceMarker(ctx context.Context, user *domain.User, lat, lng float64) (*PlacementResult, error) {
	if !validCoordinate(lat, lng) {
		return nil, fmt.Errorf("%w: lat=%v lng=%v", domain.ErrInvalidCoordinate, lat, lng)
	}

	place, err := uc.resolver.Resolve(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	place.Name = truncateRunes(place.Name, maxPlaceNameLength)

	loc := &domain.Location{
		UserID:    user.ID,
		Latitude:  place.Lat,
		Longitude: place.Lng,
		City:      place.Name,
	}
	created, err := uc.locations.UpsertLocation(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка сохранения метки пользователя %s: %w", user.Username, err)
	}

	uc.invalidateCache(ctx)

	action := domain.MarkerMoved
	if created {
		action = domain.MarkerPlaced
	}
	uc.activity.Record(ctx, domain.MarkerEvent{
		UserID:    user.ID,
		Username:  user.Username,
		Action:    action,
		City:      place.Name,
		Latitude:  place.Lat,
		Longitude: place.Lng,
	})

	return &PlacementResult{Place: *place, Created: created}, nil
}

func (uc *locationUseCase) RemoveMarker(ctx context.Context, user *domain.User) (bool, error) {
	removed, err := uc.locations.DeleteLocation(ctx, user.ID)
	if err != nil {
		return false, fmt.Errorf("usecase: ошибка удаления метки пользователя %s: %w", user.Username, err)
	}
	if removed == nil {
		return false, nil
	}

	uc.invalidateCache(ctx)
	uc.activity.Record(ctx, domain.MarkerEvent{
		UserID:    user.ID,
		Username:  user.Username,
		Action:    domain.MarkerRemoved,
		City:      removed.City,
		Latitude:  removed.Latitude,
		Longitude: removed.Longitude,
	})
	return true, nil
}

// ListMarkers читает из кэша, при промахе из базы. Сбой кэша не мешает ответу.
// Поколение фиксируется до запроса к базе, чтобы список, прочитанный до
// параллельного изменения, не попал в кэш.
func (uc *locationUseCase) ListMarkers(ctx context.Context) ([]domain.Marker, error) {
	var (
		gen      int64
		canStore bool
	)
	if uc.cache != nil {
		markers, ok, err := uc.cache.GetMarkers(ctx)
		switch {
		case err != nil:
			metrics.MarkerCacheRequests.WithLabelValues("error").Inc()
			uc.logger.Warn("marker cache read failed", "error", err)
		case ok:
			metrics.MarkerCacheRequests.WithLabelValues("hit").Inc()
			return markers, nil
		default:
			metrics.MarkerCacheRequests.WithLabelValues("miss").Inc()
			gen, err = uc.cache.Generation(ctx)
			if err != nil {
				uc.logger.Warn("marker cache generation read failed", "error", err)
			} else {
				canStore = true
			}
		}
	}

	markers, err := uc.locations.ListMarkers(ctx)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка получения меток: %w", err)
	}

	if canStore {
		if err := uc.cache.SetMarkers(ctx, markers, gen); err != nil {
			uc.logger.Warn("marker cache write failed", "error", err)
		}
	}
	return markers, nil
}

func (uc *locationUseCase) invalidateCache(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx); err != nil {
		uc.logger.Warn("marker cache invalidation failed", "error", err)
	}
}

func validCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
