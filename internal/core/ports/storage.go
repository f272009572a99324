package ports

import (
	"context"
	"io"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/google/uuid"
)

// UserStorage определяет методы для взаимодействия с хранилищем пользователей.
// Отсутствующий пользователь возвращается как (nil, nil).
type UserStorage interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// ProfileStorage обновляет редактируемые поля профиля.
type ProfileStorage interface {
	UpdateProfile(ctx context.Context, userID uuid.UUID, profile domain.Profile) error
}

// LocationStorage хранит метки, не больше одной на пользователя.
type LocationStorage interface {
	// UpsertLocation атомарно создаёт или обновляет метку; true, если метка создана.
	UpsertLocation(ctx context.Context, loc *domain.Location) (bool, error)
	GetLocationByUserID(ctx context.Context, userID uuid.UUID) (*domain.Location, error)
	// DeleteLocation возвращает удалённую метку или nil, если удалять было нечего.
	DeleteLocation(ctx context.Context, userID uuid.UUID) (*domain.Location, error)
	ListMarkers(ctx context.Context) ([]domain.Marker, error)
}

// EventStorage лента активности меток.
type EventStorage interface {
	SaveEvent(ctx context.Context, event *domain.MarkerEvent) error
	ListRecentEvents(ctx context.Context, limit int) ([]domain.MarkerEvent, error)
}

// MarkerCache кэш списка меток для главной страницы.
// Промах возвращается как (nil, false, nil). SetMarkers пишет список, только если
// поколение не сдвинулось с gen, прочитанного до запроса к базе.
type MarkerCache interface {
	GetMarkers(ctx context.Context) ([]domain.Marker, bool, error)
	Generation(ctx context.Context) (int64, error)
	SetMarkers(ctx context.Context, markers []domain.Marker, gen int64) error
	Invalidate(ctx context.Context) error
}

// SessionStore серверная часть сессий: по ID сессии находится пользователь.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, userID uuid.UUID, ttl time.Duration) error
	// Lookup возвращает uuid.Nil и false, если сессии нет или она истекла.
	Lookup(ctx context.Context, sessionID string) (uuid.UUID, bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// FileStorage определяет интерфейс для работы с файловым хранилищем (MinIO, S3).
type FileStorage interface {
	// UploadFile загружает файл и возвращает его публичный URL.
	UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
	// KeyFromURL возвращает ключ объекта, если URL указывает в это хранилище.
	KeyFromURL(url string) (string, bool)
}
