package domain

import "errors"

var (
	// ErrUsernameTaken имя пользователя уже занято
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials неверное имя или пароль
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUserNotFound пользователь не найден
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCoordinate координата вне допустимого диапазона WGS84
	ErrInvalidCoordinate = errors.New("coordinate out of range")
)
