package geocoding

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrProviderUnavailable возвращается, пока автомат разомкнут.
var ErrProviderUnavailable = errors.New("geocoding provider temporarily unavailable")

// BreakerSettings параметры автомата; нулевые значения заменяются умолчаниями.
type BreakerSettings struct {
	Name        string
	MinRequests uint32
	FailureRate float64
	Interval    time.Duration
	OpenTimeout time.Duration
}

// BreakerProvider оборачивает Provider автоматическим выключателем.
// «Нет результата» не считается сбоем, только ошибки транспорта и ответа.
type BreakerProvider struct {
	next   Provider
	cb     *gobreaker.CircuitBreaker[any]
	name   string
	logger *slog.Logger
}

// NewBreakerProvider создаёт обёртку над provider.
func NewBreakerProvider(provider Provider, s BreakerSettings, logger *slog.Logger) *BreakerProvider {
	if s.Name == "" {
		s.Name = "geocoder"
	}
	if s.MinRequests == 0 {
		s.MinRequests = 5
	}
	if s.FailureRate <= 0 {
		s.FailureRate = 0.6
	}
	if s.Interval <= 0 {
		s.Interval = time.Minute
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("geocoder circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		// отмена запроса клиентом не говорит о здоровье провайдера
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerProvider{next: provider, cb: cb, name: s.Name, logger: logger}
}

// Reverse вызывает Reverse обёрнутого провайдера через автомат.
func (b *BreakerProvider) Reverse(ctx context.Context, lat, lng float64) (*Address, error) {
	res, err := b.execute("reverse", func() (any, error) {
		return b.next.Reverse(ctx, lat, lng)
	})
	if err != nil {
		return nil, err
	}
	addr, _ := res.(*Address)
	return addr, nil
}

// Search вызывает Search обёрнутого провайдера через автомат.
func (b *BreakerProvider) Search(ctx context.Context, query string) (*Point, error) {
	res, err := b.execute("search", func() (any, error) {
		return b.next.Search(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	point, _ := res.(*Point)
	return point, nil
}

// State текущее состояние автомата.
func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerProvider) execute(operation string, fn func() (any, error)) (any, error) {
	res, err := b.cb.Execute(fn)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.GeocodingProviderCalls.WithLabelValues(operation, "rejected").Inc()
		return nil, errors.Join(ErrProviderUnavailable, err)
	case err != nil:
		metrics.GeocodingProviderCalls.WithLabelValues(operation, "error").Inc()
		return nil, err
	case isNilResult(res):
		metrics.GeocodingProviderCalls.WithLabelValues(operation, "miss").Inc()
	default:
		metrics.GeocodingProviderCalls.WithLabelValues(operation, "hit").Inc()
	}
	return res, nil
}

func isNilResult(res any) bool {
	switch v := res.(type) {
	case *Address:
		return v == nil
	case *Point:
		return v == nil
	default:
		return res == nil
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
