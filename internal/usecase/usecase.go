package usecase

import (
	"context"
	"io"

	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/GoArmGo/ProtogenMap/internal/geocoding"
	"github.com/GoArmGo/ProtogenMap/internal/messaging/payloads"
	"github.com/google/uuid"
)

// PlaceResolver определяет место по координате клика (geocoding.Resolver).
type PlaceResolver interface {
	Resolve(ctx context.Context, lat, lng float64) (*geocoding.Place, error)
}

// AuthUseCase регистрация и вход.
type AuthUseCase interface {
	// Register создаёт пользователя; занятое имя даёт domain.ErrUsernameTaken.
	Register(ctx context.Context, username, password string) (*domain.User, error)

	// Authenticate проверяет пароль; любая неудача даёт domain.ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)

	// GetUser возвращает пользователя по ID или (nil, nil).
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// AvatarUpload файл аватара из формы профиля.
type AvatarUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// ProfileView публичный профиль вместе с меткой владельца (если есть).
type ProfileView struct {
	User     *domain.User
	Location *domain.Location
}

// ProfileUseCase просмотр и редактирование профиля.
type ProfileUseCase interface {
	GetProfile(ctx context.Context, username string) (*ProfileView, error)

	// UpdateProfile сохраняет поля профиля; avatar может быть nil.
	UpdateProfile(ctx context.Context, user *domain.User, profile domain.Profile, avatar *AvatarUpload) error

	// ProfileQRCode PNG с QR-кодом ссылки на профиль.
	ProfileQRCode(ctx context.Context, username string) ([]byte, error)

	AvatarUploadEnabled() bool
}

// PlacementResult итог размещения метки.
type PlacementResult struct {
	Place   geocoding.Place
	Created bool
}

// LocationUseCase метки на карте.
type LocationUseCase interface {
	// PlaceMarker определяет место по клику и создаёт или переносит метку пользователя.
	// Неудача определения места возвращается ошибкой, для которой errors.Is(err, geocoding.ErrUnresolved).
	PlaceMarker(ctx context.Context, user *domain.User, lat, lng float64) (*PlacementResult, error)

	// RemoveMarker удаляет метку; false, если её не было.
	RemoveMarker(ctx context.Context, user *domain.User) (bool, error)

	ListMarkers(ctx context.Context) ([]domain.Marker, error)
}

// ActivityUseCase лента активности меток.
type ActivityUseCase interface {
	// Record передаёт событие в очередь или сохраняет сразу. Ошибки только логируются.
	Record(ctx context.Context, event domain.MarkerEvent)

	// HandleMarkerEvent сохраняет событие из очереди (режим воркера).
	HandleMarkerEvent(ctx context.Context, payload payloads.MarkerEventPayload) error

	RecentActivity(ctx context.Context, limit int) ([]domain.MarkerEvent, error)
}
