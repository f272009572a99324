package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/GoArmGo/ProtogenMap/internal/session"
	"github.com/GoArmGo/ProtogenMap/internal/usecase"
	"github.com/GoArmGo/ProtogenMap/internal/validation"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageNames = []string{"index", "register", "login", "profile", "edit_profile"}

var templateFuncs = template.FuncMap{
	"label": func(field string) string {
		if l, ok := validation.Labels[field]; ok {
			return l
		}
		return field
	},
	"date": func(t time.Time) string {
		return t.Format("02.01.2006")
	},
}

// pageData данные, общие для всех страниц, плюс поля конкретной страницы.
type pageData struct {
	Title       string
	CurrentUser *domain.User
	Flashes     []flashMessage
	CSRFToken   string

	Errors validation.FieldErrors
	Form   any
	Next   string

	Markers             []domain.Marker
	Profile             *usecase.ProfileView
	IsOwner             bool
	AvatarUploadEnabled bool
	MaxAvatarSizeMB     int
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templatesFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		pages[name] = t
	}
	return pages, nil
}

// render выполняет шаблон в буфер, чтобы ошибка шаблона не оставила полстраницы.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData, extra ...flashMessage) {
	t, ok := h.pages[page]
	if !ok {
		h.logger.Error("unknown page template", "page", page)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	if user, ok := session.UserFromContext(r.Context()); ok {
		data.CurrentUser = user
	}
	data.Flashes = append(popFlashes(w, r), extra...)
	data.CSRFToken = csrfToken(r.Context())

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		h.logger.Error("failed to render template", "page", page, "error", err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("failed to write HTTP response", "error", err)
	}
}
