package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/database/memory"
	"github.com/GoArmGo/ProtogenMap/internal/geocoding"
	"github.com/GoArmGo/ProtogenMap/internal/logger"
	"github.com/GoArmGo/ProtogenMap/internal/session"
	"github.com/GoArmGo/ProtogenMap/internal/usecase"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// stubProvider отвечает одинаково на любые координаты и запросы.
type stubProvider struct {
	address *geocoding.Address
	point   *geocoding.Point
}

func (p *stubProvider) Reverse(context.Context, float64, float64) (*geocoding.Address, error) {
	return p.address, nil
}

func (p *stubProvider) Search(context.Context, string) (*geocoding.Point, error) {
	return p.point, nil
}

func mitinoProvider() *stubProvider {
	return &stubProvider{
		address: &geocoding.Address{Suburb: "Mitino", City: "Moscow", Country: "Russia"},
		point:   &geocoding.Point{Lat: 55.845, Lng: 37.361},
	}
}

type testEnv struct {
	store   *memory.Store
	handler http.Handler
}

func newTestEnv(t *testing.T, provider geocoding.Provider, csrf bool) *testEnv {
	t.Helper()
	store := memory.NewStore()
	log := logger.Discard()

	auth := usecase.NewAuthUseCase(store, bcrypt.MinCost, log)
	profiles := usecase.NewProfileUseCase(store, store, store, nil, "http://map.local", log)
	activity := usecase.NewActivityUseCase(store, nil, log)
	resolver := geocoding.NewResolver(provider, 0, log)
	locations := usecase.NewLocationUseCase(resolver, store, nil, activity, log)
	sessions := session.NewManager(session.NewMemoryStore(), "test-secret", time.Hour, false)

	h, err := NewHandler(auth, profiles, locations, activity, sessions, nil, Options{CSRFEnabled: csrf}, log)
	require.NoError(t, err)
	return &testEnv{store: store, handler: h.Routes(time.Minute)}
}

// browser хранит cookie между запросами, как настоящий браузер.
type browser struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func (e *testEnv) browser(t *testing.T) *browser {
	return &browser{t: t, handler: e.handler, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	if c, ok := b.cookies[csrfCookieName]; ok && form.Get(csrfFormField) == "" {
		form.Set(csrfFormField, c.Value)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if c, ok := b.cookies[csrfCookieName]; ok {
		req.Header.Set(csrfHeaderName, c.Value)
	}
	return b.do(req)
}

func (b *browser) signUp(username, password string) {
	b.t.Helper()
	b.get("/register")
	rec := b.postForm("/register", url.Values{
		"username":         {username},
		"password":         {password},
		"confirm_password": {password},
	})
	require.Equal(b.t, http.StatusSeeOther, rec.Code, rec.Body.String())

	rec = b.postForm("/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(b.t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Contains(b.t, b.cookies, session.CookieName)
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) statusResponse {
	t.Helper()
	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestIndex_WrapsClickLongitude(t *testing.T) {
	env := newTestEnv(t, mitinoProvider(), true)
	alice := env.browser(t)
	alice.signUp("alice", "secret1")

	page := alice.get("/")
	require.Equal(t, http.StatusOK, page.Code)
	body := page.Body.String()
	assert.Contains(t, body, "var ll = e.latlng.wrap();")
	assert.Contains(t, body, "{lat: ll.lat, lng: ll.lng}")
}

func TestAliceScenario(t *testing.T) {
	env := newTestEnv(t, mitinoProvider(), true)
	alice := env.browser(t)
	alice.signUp("alice", "secret1")

	rec := alice.postJSON("/add_location", `{"lat": 55.81, "lng": 37.37}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeStatus(t, rec)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Ваша метка добавлена!", resp.Message)
	assert.Equal(t, "Mitino", resp.FoundCity)
	require.NotNil(t, resp.PlaceLat)
	assert.Equal(t, 55.845, *resp.PlaceLat)
	assert.Equal(t, 37.361, *resp.PlaceLng)

	rec = alice.postJSON("/add_location", `{"lat": 55.82, "lng": 37.38}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Ваша метка обновлена!", decodeStatus(t, rec).Message)
	assert.Equal(t, 1, env.store.LocationCount())

	visitor := env.browser(t)
	page := visitor.get("/")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Mitino")
	assert.Contains(t, page.Body.String(), "alice")

	rec = visitor.get("/api/locations")
	require.Equal(t, http.StatusOK, rec.Code)
	var markers []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &markers))
	require.Len(t, markers, 1)
	assert.Equal(t, "alice", markers[0]["user"])
	assert.Equal(t, "Mitino", markers[0]["city"])

	rec = visitor.get("/api/activity")
	require.Equal(t, http.StatusOK, rec.Code)
	var events []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, "moved", events[0]["action"])
	assert.Equal(t, "placed", events[1]["action"])
}

func TestAddLocation_NoAddressLeavesNoRow(t *testing.T) {
	env := newTestEnv(t, &stubProvider{}, false)
	b := env.browser(t)
	b.signUp("alice", "secret1")

	rec := b.postJSON("/add_location", `{"lat": 0, "lng": -160}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeStatus(t, rec)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "Не удалось определить место.", resp.Message)
	assert.Zero(t, env.store.LocationCount())
}

func TestAddLocation_InvalidInput(t *testing.T) {
	env := newTestEnv(t, mitinoProvider(), false)
	b := env.browser(t)
	b.signUp("alice", "secret1")

	for _, body := range []string{
		`not json`,
		`{"lat": "north", "lng": 37}`,
		`{"lat": 55.8}`,
		`{"lat": 95, "lng": 37}`,
		`{"lat": 55, "lng": -181}`,
	} {
		rec := b.postJSON("/add_location", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "error", decodeStatus(t, rec).Status, body)
	}
	assert.Zero(t, env.store.LocationCount())
}

func TestDeleteLocation_AlwaysSucceeds(t *testing.T) {
	env := newTestEnv(t, mitinoProvider(), true)
	b := env.browser(t)
	b.signUp("alice", "secret1")

	rec := b.postJSON("/delete_location", ``)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeStatus(t, rec)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Метка не найдена.", resp.Message)

	require.Equal(t, http.StatusCreated, b.postJSON("/add_location", `{"lat": 55.81, "lng": 37.37}`).Code)

	rec = b.postJSON("/delete_location", ``)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ваша метка удалена.", decodeStatus(t, rec).Message)
	assert.Zero(t, env.store.LocationCount())

	rec = b.postJSON("/delete_location", ``)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutes_Anonymous(t *testing.T) {
	env := newTestEnv(t, mitinoProvider(), false)
	b := env.browser(t)

	rec := b.postJSON("/add_location", `{"lat": 55.81, "lng": 37.37}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "error", decodeStatus(t, rec).Status)

	rec = b.postJSON("/delete_location", ``)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = b.get("/profile/edit")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fprofile%2Fedit", rec.Header().Get("Location"))

	page := b.get("/login?next=%2Fprofile%2Fedit")
	assert.Contains(t, page.Body.String(), "Пожалуйста, войдите для доступа.")
	assert.Zero(t, env.store.LocationCount())
}

func TestCSRF_RejectsMissingToken(t *testing.T) {
	env := newTestEnv(t, mitinoProvider(), true)
	b := env.browser(t)
	b.signUp("alice", "secret1")

	req := httptest.NewRequest(http.MethodPost, "/add_location", strings.NewReader(`{"lat": 55.81, "lng": 37.37}`))
	req.Header.Set("Content-Type", "application/json")
	rec := b.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "error", decodeStatus(t, rec).Status)

	rec = b.postForm("/login", url.Values{"username": {"alice"}, "password": {"secret1"}, csrfFormField: {"forged"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// POST без cookie с токеном
	anon := env.browser(t)
	rec = anon.postForm("/register", url.Values{"username": {"mallory"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, env.store.LocationCount())
}

func TestRegister_Errors(t *testing.T) {
	env := newTestEnv(t, mitinoProvider(), false)
	b := env.browser(t)

	rec := b.postForm("/register", url.Values{
		"username": {"al"}, "password": {"123"}, "confirm_password": {"321"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Минимум 4 символов.")
	assert.Contains(t, body, "Минимум 6 символов.")
	assert.Contains(t, body, "Пароли должны совпадать.")

	b.signUp("alice", "secret1")
	other := env.browser(t)
	rec = other.postForm("/register", url.Values{
		"username": {"alice"}, "password": {"another1"}, "confirm_password": {"another1"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Это имя пользователя уже занято.")
}

func TestRegister_FlashOnLoginPage(t *testing.T) {
	env := newTestEnv(t, mitinoProvider(), false)
	b := env.browser(t)

	rec := b.postForm("/register", url.Values{
		"username": {"alice"}, "password": {"secret1"}, "confirm_password": {"secret1"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	page := b.get("/login")
	assert.Contains(t, page.Body.String(), "Аккаунт alice создан!")

	// флеш показывается один раз
	assert.NotContains(t, b.get("/login").Body.String(), "Аккаунт alice создан!")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, mitinoProvider(), false)
	env.browser(t).signUp("alice", "secret1")

	t.Run("wrong password", func(t *testing.T) {
		b := env.browser(t)
		rec := b.postForm("/login", url.Values{"username": {"alice"}, "password": {"nope123"}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Неверное имя или пароль.")
		assert.NotContains(t, b.cookies, session.CookieName)
	})

	t.Run("local next", func(t *testing.T) {
		b := env.browser(t)
		rec := b.postForm("/login?next=%2Fprofile%2Fedit", url.Values{"username": {"alice"}, "password": {"secret1"}})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/profile/edit", rec.Header().Get("Location"))
	})

	t.Run("foreign next", func(t *testing.T) {
		b := env.browser(t)
		rec := b.postForm("/login", url.Values{"username": {"alice"}, "password": {"secret1"}, "next": {"//evil.example/"}})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})
}

func TestLogout_RevokesSession(t *testing.T) {
	env := newTestEnv(t, mitinoProvider(), false)
	b := env.browser(t)
	b.signUp("alice", "secret1")
	stolen := *b.cookies[session.CookieName]

	rec := b.get("/logout")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NotContains(t, b.cookies, session.CookieName)

	// старый токен после выхода недействителен
	b.cookies[session.CookieName] = &stolen
	rec = b.postJSON("/add_location", `{"lat": 55.81, "lng": 37.37}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfilePages(t *testing.T) {
	env := newTestEnv(t, mitinoProvider(), false)
	b := env.browser(t)
	b.signUp("alice", "secret1")

	rec := b.get("/profile/bob")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Contains(t, b.get("/").Body.String(), "Пользователь &#34;bob&#34; не найден.")

	rec = b.postForm("/profile/edit", url.Values{
		"avatar_url":  {"https://example.com/alice.png"},
		"social_link": {"https://t.me/alice"},
		"about_me":    {"Люблю карты"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/profile/alice", rec.Header().Get("Location"))

	page := b.get("/profile/alice")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Люблю карты")
	assert.Contains(t, page.Body.String(), "https://t.me/alice")

	rec = b.postForm("/profile/edit", url.Values{"about_me": {strings.Repeat("я", 501)}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Максимум 500 символов.")

	rec = b.postForm("/profile/edit", url.Values{"social_link": {"javascript:alert(1)"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Некорректный URL.")

	user, err := env.store.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "Люблю карты", user.AboutMe)
}

func TestProfileQR(t *testing.T) {
	env := newTestEnv(t, mitinoProvider(), false)
	env.browser(t).signUp("alice", "secret1")
	b := env.browser(t)

	rec := b.get("/profile/alice/qr")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))

	assert.Equal(t, http.StatusNotFound, b.get("/profile/nobody/qr").Code)
}

func TestRecentActivity_BadLimit(t *testing.T) {
	env := newTestEnv(t, mitinoProvider(), false)
	rec := env.browser(t).get("/api/activity?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, mitinoProvider(), true)
	rec := env.browser(t).get("/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                      "/",
		"/profile/edit":         "/profile/edit",
		"/profile/alice?tab=1":  "/profile/alice?tab=1",
		"//evil.example":        "/",
		"/\\evil.example":       "/",
		"https://evil.example/": "/",
		"javascript:alert(1)":   "/",
		"profile/edit":          "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeNext(in), "next %q", in)
	}
}
