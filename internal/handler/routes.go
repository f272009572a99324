package handler

import (
	"net/http"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodySize предел тела запроса: аватар плюс поля формы.
const maxBodySize = usecase.MaxAvatarSize + 1<<20

// Routes собирает роутер приложения.
func (h *Handler) Routes(requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(limitBody(maxBodySize))
		r.Use(h.csrfProtect)
		r.Use(h.loadUser)

		r.Get("/", h.Index)
		r.Get("/register", h.RegisterPage)
		r.Post("/register", h.Register)
		r.Get("/login", h.LoginPage)
		r.Post("/login", h.Login)
		r.Get("/logout", h.Logout)

		r.Get("/profile/{username}", h.ShowProfile)
		r.Get("/profile/{username}/qr", h.ProfileQR)
		r.With(h.requireUser).Get("/profile/edit", h.EditProfilePage)
		r.With(h.requireUser).Post("/profile/edit", h.EditProfile)

		r.With(h.requireUserJSON).Post("/add_location", h.AddLocation)
		r.With(h.requireUserJSON).Post("/delete_location", h.DeleteLocation)

		r.Get("/api/locations", h.ListLocations)
		r.Get("/api/activity", h.RecentActivity)
	})

	return r
}

func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
