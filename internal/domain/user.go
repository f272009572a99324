// internal/domain/user.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// User представляет модель пользователя в системе.
// Соответствует таблице 'users' в базе данных.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	AvatarURL    string    `json:"avatar_url,omitempty" db:"avatar_url"`
	SocialLink   string    `json:"social_link,omitempty" db:"social_link"`
	AboutMe      string    `json:"about_me,omitempty" db:"about_me"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Profile содержит поля профиля, которые пользователь может менять сам.
// Пустая строка означает «не задано».
type Profile struct {
	AvatarURL  string
	SocialLink string
	AboutMe    string
}

// Profile возвращает текущие значения редактируемых полей.
func (u *User) Profile() Profile {
	return Profile{
		AvatarURL:  u.AvatarURL,
		SocialLink: u.SocialLink,
		AboutMe:    u.AboutMe,
	}
}
