package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/GoArmGo/ProtogenMap/internal/session"
	"github.com/GoArmGo/ProtogenMap/internal/usecase"
	"github.com/GoArmGo/ProtogenMap/internal/validation"
	"github.com/go-chi/chi/v5"
)

// multipartMemory часть формы профиля, которая держится в памяти; остальное уходит во временный файл.
const multipartMemory = 1 << 20

// ShowProfile GET /profile/{username}
func (h *Handler) ShowProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	view, err := h.profiles.GetProfile(r.Context(), username)
	if errors.Is(err, domain.ErrUserNotFound) {
		setFlash(w, flashWarning, fmt.Sprintf("Пользователь \"%s\" не найден.", username))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.logger.Error("failed to load profile", "username", username, "error", err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	current, _ := session.UserFromContext(r.Context())
	h.render(w, r, http.StatusOK, "profile", pageData{
		Title:   "Профиль " + view.User.Username,
		Profile: view,
		IsOwner: current != nil && current.ID == view.User.ID,
	})
}

// ProfileQR GET /profile/{username}/qr
func (h *Handler) ProfileQR(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	png, err := h.profiles.ProfileQRCode(r.Context(), username)
	if errors.Is(err, domain.ErrUserNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("failed to build profile QR code", "username", username, "error", err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(png); err != nil {
		h.logger.Error("failed to write HTTP response", "error", err)
	}
}

// EditProfilePage GET /profile/edit
func (h *Handler) EditProfilePage(w http.ResponseWriter, r *http.Request) {
	user, _ := session.UserFromContext(r.Context())
	h.render(w, r, http.StatusOK, "edit_profile", h.editProfileData(validation.ProfileForm{
		AvatarURL:  user.AvatarURL,
		SocialLink: user.SocialLink,
		AboutMe:    user.AboutMe,
	}))
}

// EditProfile POST /profile/edit, форма может быть multipart с файлом avatar.
func (h *Handler) EditProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := session.UserFromContext(r.Context())

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			h.logger.Warn("failed to parse profile form", "user_id", user.ID, "error", err)
			data := h.editProfileData(validation.ProfileForm{})
			data.Errors = validation.FieldErrors{"avatar": avatarErrorMessage(usecase.ErrAvatarTooLarge)}
			h.render(w, r, http.StatusBadRequest, "edit_profile", data)
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()
	}

	form := validation.ProfileForm{
		AvatarURL:  strings.TrimSpace(r.PostFormValue("avatar_url")),
		SocialLink: strings.TrimSpace(r.PostFormValue("social_link")),
		AboutMe:    strings.TrimSpace(r.PostFormValue("about_me")),
	}
	data := h.editProfileData(form)

	if errs := h.validateForm(form); errs != nil {
		data.Errors = errs
		h.render(w, r, http.StatusUnprocessableEntity, "edit_profile", data)
		return
	}

	var avatar *usecase.AvatarUpload
	file, header, err := r.FormFile("avatar")
	switch {
	case err == nil:
		defer file.Close()
		avatar = &usecase.AvatarUpload{
			Reader:      file,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		h.logger.Warn("failed to read avatar file", "user_id", user.ID, "error", err)
	}

	profile := domain.Profile{AvatarURL: form.AvatarURL, SocialLink: form.SocialLink, AboutMe: form.AboutMe}
	err = h.profiles.UpdateProfile(r.Context(), user, profile, avatar)
	if msg := avatarErrorMessage(err); msg != "" {
		data.Errors = validation.FieldErrors{"avatar": msg}
		h.render(w, r, http.StatusUnprocessableEntity, "edit_profile", data)
		return
	}
	if err != nil {
		h.logger.Error("failed to update profile", "user_id", user.ID, "error", err)
		h.render(w, r, http.StatusInternalServerError, "edit_profile", data, flashMessage{flashDanger, "Ошибка обновления."})
		return
	}

	h.logger.Info("profile updated", "user_id", user.ID, "avatar_uploaded", avatar != nil)
	setFlash(w, flashSuccess, "Профиль обновлен!")
	http.Redirect(w, r, "/profile/"+url.PathEscape(user.Username), http.StatusSeeOther)
}

func (h *Handler) editProfileData(form validation.ProfileForm) pageData {
	return pageData{
		Title:               "Редактировать профиль",
		Form:                form,
		AvatarUploadEnabled: h.profiles.AvatarUploadEnabled(),
		MaxAvatarSizeMB:     usecase.MaxAvatarSize >> 20,
	}
}

func avatarErrorMessage(err error) string {
	switch {
	case errors.Is(err, usecase.ErrAvatarTooLarge):
		return fmt.Sprintf("Файл больше %d МБ.", usecase.MaxAvatarSize>>20)
	case errors.Is(err, usecase.ErrAvatarNotImage):
		return "Файл должен быть изображением."
	case errors.Is(err, usecase.ErrAvatarUploadDisabled):
		return "Загрузка файлов отключена."
	default:
		return ""
	}
}
