package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"strings"

	"github.com/GoArmGo/ProtogenMap/internal/core/ports"
	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// MaxAvatarSize предельный размер загружаемого аватара.
const MaxAvatarSize = 2 << 20

const qrCodeSize = 256

// profileUseCase implements ProfileUseCase
type profileUseCase struct {
	users     ports.UserStorage
	profiles  ports.ProfileStorage
	locations ports.LocationStorage
	files     ports.FileStorage // nil, если MinIO не настроен
	baseURL   string
	logger    *slog.Logger
}

// NewProfileUseCase создает новый экземпляр ProfileUseCase. files может быть nil.
func NewProfileUseCase(
	users ports.UserStorage,
	profiles ports.ProfileStorage,
	locations ports.LocationStorage,
	files ports.FileStorage,
	baseURL string,
	logger *slog.Logger,
) ProfileUseCase {
	return &profileUseCase{
		users:     users,
		profiles:  profiles,
		locations: locations,
		files:     files,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

func (uc *profileUseCase) AvatarUploadEnabled() bool {
	return uc.files != nil
}

func (uc *profileUseCase) GetProfile(ctx context.Context, username string) (*ProfileView, error) {
	user, err := uc.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка получения профиля %s: %w", username, err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	loc, err := uc.locations.GetLocationByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка получения метки %s: %w", username, err)
	}
	return &ProfileView{User: user, Location: loc}, nil
}

func (uc *profileUseCase) UpdateProfile(ctx context.Context, user *domain.User, profile domain.Profile, avatar *AvatarUpload) error {
	previousAvatar := user.AvatarURL

	var uploadedKey string
	if avatar != nil {
		avatarURL, key, err := uc.uploadAvatar(ctx, user.ID, avatar)
		if err != nil {
			return err
		}
		profile.AvatarURL = avatarURL
		uploadedKey = key
	}

	if err := uc.profiles.UpdateProfile(ctx, user.ID, profile); err != nil {
		// профиль не сохранился, новый файл никому не нужен
		if uploadedKey != "" {
			uc.deleteObject(ctx, uploadedKey)
		}
		return fmt.Errorf("usecase: ошибка обновления профиля: %w", err)
	}

	if previousAvatar != "" && previousAvatar != profile.AvatarURL && uc.files != nil {
		if key, ok := uc.files.KeyFromURL(previousAvatar); ok {
			uc.deleteObject(ctx, key)
		}
	}

	user.AvatarURL = profile.AvatarURL
	user.SocialLink = profile.SocialLink
	user.AboutMe = profile.AboutMe
	return nil
}

func (uc *profileUseCase) uploadAvatar(ctx context.Context, userID uuid.UUID, avatar *AvatarUpload) (string, string, error) {
	if uc.files == nil {
		return "", "", ErrAvatarUploadDisabled
	}
	if avatar.Size > MaxAvatarSize {
		return "", "", ErrAvatarTooLarge
	}
	mediaType, _, err := mime.ParseMediaType(avatar.ContentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", "", ErrAvatarNotImage
	}

	key := fmt.Sprintf("%s/%s%s", userID, uuid.NewString(), extensionFor(mediaType))
	// Size приходит от клиента, поэтому лимит проверяется ещё и при чтении
	body := &capReader{r: avatar.Reader, max: MaxAvatarSize}

	avatarURL, err := uc.files.UploadFile(ctx, key, body, mediaType)
	if body.exceeded() {
		if err == nil {
			uc.deleteObject(ctx, key)
		}
		return "", "", ErrAvatarTooLarge
	}
	if err != nil {
		return "", "", fmt.Errorf("usecase: ошибка загрузки аватара: %w", err)
	}

	uc.logger.Info("avatar uploaded", "user_id", userID, "key", key)
	return avatarURL, key, nil
}

func (uc *profileUseCase) deleteObject(ctx context.Context, key string) {
	if err := uc.files.DeleteFile(ctx, key); err != nil {
		uc.logger.Warn("failed to delete avatar object", "key", key, "error", err)
	}
}

func (uc *profileUseCase) ProfileQRCode(ctx context.Context, username string) ([]byte, error) {
	user, err := uc.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка получения пользователя %s: %w", username, err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	link := uc.baseURL + "/profile/" + url.PathEscape(user.Username)
	png, err := qrcode.Encode(link, qrcode.Medium, qrCodeSize)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка генерации QR-кода: %w", err)
	}
	return png, nil
}

// capReader отдаёт ошибку, как только прочитано больше max байт.
type capReader struct {
	r    io.Reader
	max  int64
	read int64
}

func (c *capReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	if c.exceeded() {
		return n, ErrAvatarTooLarge
	}
	return n, err
}

func (c *capReader) exceeded() bool {
	return c.read > c.max
}

func extensionFor(mediaType string) string {
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
