package usecase

import "errors"

var (
	// ErrAvatarUploadDisabled хранилище файлов не настроено
	ErrAvatarUploadDisabled = errors.New("avatar upload is not configured")

	// ErrAvatarTooLarge файл больше MaxAvatarSize
	ErrAvatarTooLarge = errors.New("avatar file is too large")

	// ErrAvatarNotImage файл не является изображением
	ErrAvatarNotImage = errors.New("avatar file must be an image")
)
