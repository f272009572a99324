package geocoding

import "context"

// Point координата, которую вернул провайдер.
type Point struct {
	Lat float64
	Lng float64
}

// Place результат разрешения: название места и его каноническая точка.
type Place struct {
	Name string
	Lat  float64
	Lng  float64
}

// Provider внешний геокодер.
// Отсутствие результата возвращается как (nil, nil), ошибка означает сбой транспорта или ответа.
type Provider interface {
	Reverse(ctx context.Context, lat, lng float64) (*Address, error)
	Search(ctx context.Context, query string) (*Point, error)
}
