package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// usernamePattern имя пользователя попадает в URL профиля, поэтому без пробелов и слэшей.
var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}._-]+$`)

func init() {
	_ = Validator().RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
}

// RegisterForm форма регистрации.
type RegisterForm struct {
	Username        string `form:"username" validate:"required,min=4,max=25,username"`
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// LoginForm форма входа.
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// ProfileForm форма редактирования профиля, все поля необязательны.
type ProfileForm struct {
	AvatarURL  string `form:"avatar_url" validate:"omitempty,http_url,max=255"`
	SocialLink string `form:"social_link" validate:"omitempty,http_url,max=255"`
	AboutMe    string `form:"about_me" validate:"max=500"`
}

// Coordinates тело запроса POST /add_location. Указатели отличают отсутствующее поле от нуля.
type Coordinates struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`
}
