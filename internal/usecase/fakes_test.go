package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/GoArmGo/ProtogenMap/internal/geocoding"
	"github.com/GoArmGo/ProtogenMap/internal/messaging/payloads"
)

// stubResolver возвращает заранее заданное место или ошибку.
type stubResolver struct {
	mu    sync.Mutex
	place *geocoding.Place
	err   error
	calls int
}

func (r *stubResolver) Resolve(_ context.Context, _, _ float64) (*geocoding.Place, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	p := *r.place
	return &p, nil
}

// memCache кэш меток в памяти.
type memCache struct {
	mu          sync.Mutex
	markers     []domain.Marker
	present     bool
	gen         int64
	invalidated int
	err         error
}

func (c *memCache) GetMarkers(context.Context) ([]domain.Marker, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	return c.markers, c.present, nil
}

func (c *memCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, c.err
}

func (c *memCache) SetMarkers(_ context.Context, m []domain.Marker, gen int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if gen == c.gen {
		c.markers, c.present = m, true
	}
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markers, c.present = nil, false
	c.gen++
	c.invalidated++
	return c.err
}

// recordingActivity запоминает события вместо записи в ленту.
type recordingActivity struct {
	mu     sync.Mutex
	events []domain.MarkerEvent
}

func (a *recordingActivity) Record(_ context.Context, e domain.MarkerEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *recordingActivity) HandleMarkerEvent(context.Context, payloads.MarkerEventPayload) error {
	return nil
}

func (a *recordingActivity) RecentActivity(context.Context, int) ([]domain.MarkerEvent, error) {
	return nil, nil
}

func (a *recordingActivity) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Action)
	}
	return out
}

// fakePublisher очередь в памяти; err имитирует недоступный брокер.
type fakePublisher struct {
	published []payloads.MarkerEventPayload
	err       error
}

func (p *fakePublisher) PublishMarkerEvent(_ context.Context, payload payloads.MarkerEventPayload) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, payload)
	return nil
}

// fakeFiles файловое хранилище в памяти.
type fakeFiles struct {
	objects map[string][]byte
	deleted []string
	err     error
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{objects: map[string][]byte{}}
}

const fakeFilesPrefix = "http://files.local/avatars/"

func (f *fakeFiles) UploadFile(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	f.objects[key] = buf.Bytes()
	return fakeFilesPrefix + key, nil
}

func (f *fakeFiles) DeleteFile(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	return nil
}

func (f *fakeFiles) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, fakeFilesPrefix) {
		return "", false
	}
	return strings.TrimPrefix(url, fakeFilesPrefix), true
}

var errDB = errors.New("database is down")
