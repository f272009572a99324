package geocoding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/metrics"
	"golang.org/x/time/rate"
)

// Resolver превращает произвольный клик по карте в название места и центр этого места.
// Два этапа: обратное геокодирование клика, затем прямое геокодирование выбранного названия.
type Resolver struct {
	provider Provider
	delay    time.Duration
	logger   *slog.Logger
}

// NewResolver создаёт Resolver. delay минимальная пауза между соседними запросами
// к провайдеру в рамках одного разрешения.
func NewResolver(provider Provider, delay time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{
		provider: provider,
		delay:    delay,
		logger:   logger,
	}
}

// Resolve определяет место по координате. Любая ошибка имеет тип *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, lat, lng float64) (*Place, error) {
	start := time.Now()
	place, err := r.resolve(ctx, lat, lng)
	duration := time.Since(start)
	metrics.GeocodingDuration.Observe(duration.Seconds())

	if err != nil {
		kind, _ := KindOf(err)
		metrics.GeocodingResolutions.WithLabelValues(string(kind)).Inc()
		r.logger.Warn("place resolution failed",
			"lat", lat,
			"lng", lng,
			"error", err,
			"duration_ms", duration.Milliseconds(),
		)
		return nil, err
	}

	metrics.GeocodingResolutions.WithLabelValues("success").Inc()
	r.logger.Info("place resolved",
		"lat", lat,
		"lng", lng,
		"place", place.Name,
		"place_lat", place.Lat,
		"place_lng", place.Lng,
		"duration_ms", duration.Milliseconds(),
	)
	return place, nil
}

func (r *Resolver) resolve(ctx context.Context, lat, lng float64) (*Place, error) {
	pacer := r.newPacer()

	if err := pacer.Wait(ctx); err != nil {
		return nil, fail(KindProviderError, StageReverse, err)
	}
	addr, err := r.provider.Reverse(ctx, lat, lng)
	pacer.Done()
	if err != nil {
		return nil, fail(KindProviderError, StageReverse, err)
	}
	if addr == nil || addr.IsEmpty() {
		return nil, fail(KindNoAddressFound, StageReverse, nil)
	}

	name := addr.PlaceName()
	if name == "" {
		return nil, fail(KindNoPlaceName, StageReverse, nil)
	}
	city := addr.CityContext()
	country := addr.Country

	queries := []string{ComposeQuery(name, city, country)}
	if city != "" && city != name {
		queries = append(queries, CityQuery(city, country))
	}

	for _, q := range queries {
		if err := pacer.Wait(ctx); err != nil {
			return nil, fail(KindProviderError, StageForward, err)
		}
		r.logger.Debug("forward geocoding", "query", q)

		point, err := r.provider.Search(ctx, q)
		pacer.Done()
		if err != nil {
			return nil, fail(KindProviderError, StageForward, err)
		}
		if point != nil {
			return &Place{Name: name, Lat: point.Lat, Lng: point.Lng}, nil
		}
	}

	return nil, fail(KindNoGeocodeMatch, StageForward, fmt.Errorf("no match for %q", queries[0]))
}

// pacer выдерживает паузу между ответом провайдера и следующим запросом
// в рамках одного разрешения. Первый запрос уходит сразу.
type pacer struct {
	delay   time.Duration
	limiter *rate.Limiter
}

func (r *Resolver) newPacer() *pacer {
	if r.delay <= 0 {
		return &pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &pacer{delay: r.delay, limiter: rate.NewLimiter(rate.Every(r.delay), 1)}
}

// Wait блокирует до разрешённого момента или отмены ctx.
func (p *pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Done отмечает получение ответа: отсчёт паузы начинается с этого момента.
func (p *pacer) Done() {
	if p.delay <= 0 {
		return
	}
	p.limiter = rate.NewLimiter(rate.Every(p.delay), 1)
	p.limiter.Allow()
}
