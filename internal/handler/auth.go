package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/GoArmGo/ProtogenMap/internal/session"
	"github.com/GoArmGo/ProtogenMap/internal/validation"
)

// RegisterPage GET /register
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "register", pageData{Title: "Регистрация", Form: validation.RegisterForm{}})
}

// Register POST /register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	form := validation.RegisterForm{
		Username:        strings.TrimSpace(r.PostFormValue("username")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	data := pageData{Title: "Регистрация", Form: validation.RegisterForm{Username: form.Username}}

	if errs := h.validateForm(form); errs != nil {
		data.Errors = errs
		h.render(w, r, http.StatusUnprocessableEntity, "register", data)
		return
	}

	user, err := h.auth.Register(r.Context(), form.Username, form.Password)
	if errors.Is(err, domain.ErrUsernameTaken) {
		data.Errors = validation.FieldErrors{"username": "Это имя пользователя уже занято."}
		h.render(w, r, http.StatusUnprocessableEntity, "register", data)
		return
	}
	if err != nil {
		h.logger.Error("failed to register user", "username", form.Username, "error", err)
		h.render(w, r, http.StatusInternalServerError, "register", data, flashMessage{flashDanger, "Ошибка регистрации."})
		return
	}

	h.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	setFlash(w, flashSuccess, fmt.Sprintf("Аккаунт %s создан!", user.Username))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// LoginPage GET /login
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login", pageData{
		Title: "Вход",
		Form:  validation.LoginForm{},
		Next:  r.URL.Query().Get("next"),
	})
}

// Login POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	form := validation.LoginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}
	// next приходит в query (редирект из requireUser) или скрытым полем формы
	next := r.FormValue("next")
	data := pageData{Title: "Вход", Form: validation.LoginForm{Username: form.Username}, Next: next}

	if errs := h.validateForm(form); errs != nil {
		data.Errors = errs
		h.render(w, r, http.StatusUnprocessableEntity, "login", data)
		return
	}

	user, err := h.auth.Authenticate(r.Context(), form.Username, form.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		h.render(w, r, http.StatusUnauthorized, "login", data, flashMessage{flashDanger, "Неверное имя или пароль."})
		return
	}
	if err != nil {
		h.logger.Error("failed to authenticate user", "username", form.Username, "error", err)
		h.render(w, r, http.StatusInternalServerError, "login", data, flashMessage{flashDanger, "Ошибка входа. Попробуйте позже."})
		return
	}

	if err := h.sessions.Issue(r.Context(), w, user.ID); err != nil {
		h.logger.Error("failed to issue session", "user_id", user.ID, "error", err)
		h.render(w, r, http.StatusInternalServerError, "login", data, flashMessage{flashDanger, "Ошибка входа. Попробуйте позже."})
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	setFlash(w, flashSuccess, "Вы успешно вошли!")
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

// Logout GET /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.Error("failed to clear session", "error", err)
	}
	setFlash(w, flashInfo, "Вы вышли.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// validateForm возвращает ошибки полей или nil.
func (h *Handler) validateForm(form any) validation.FieldErrors {
	err := validation.ValidateStruct(form)
	if err == nil {
		return nil
	}
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		return fe
	}
	h.logger.Error("form validation failed", "error", err)
	return validation.FieldErrors{"_": "Некорректные данные формы."}
}
