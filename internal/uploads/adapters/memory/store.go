package memory

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dejobratic/storefront/internal/uploads/ports"
)

// Store keeps uploads in memory for local development and tests.
type Store struct {
	mu      sync.RWMutex
	objects map[string]ports.Object
	baseURL string
}

func NewStore(baseURL string) *Store {
	return &Store{objects: make(map[string]ports.Object), baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *Store) Put(_ context.Context, object ports.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	object.Data = slices.Clone(object.Data)
	s.objects[object.Key] = object
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

// Object returns a stored object by key.
func (s *Store) Object(key string) (ports.Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	object, ok := s.objects[key]
	return object, ok
}

func (s *Store) URL(key string) string {
	return s.baseURL + "/" + key
}

func (s *Store) KeyFromURL(rawURL string) (string, error) {
	key, found := strings.CutPrefix(rawURL, s.baseURL+"/")
	if !found || key == "" {
		return "", ports.ErrForeignURL
	}
	return key, nil
}

// Register serves stored objects at the path of the base URL, so the URLs the store hands
// out resolve against this process.
func (s *Store) Register(mux *http.ServeMux) {
	prefix := "/"
	if u, err := url.Parse(s.baseURL); err == nil && u.Path != "" {
		prefix = strings.TrimSuffix(u.Path, "/") + "/"
	}
	mux.HandleFunc("GET "+prefix+"{key...}", s.serve)
}

func (s *Store) serve(w http.ResponseWriter, r *http.Request) {
	object, ok := s.Object(r.PathValue("key"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	if object.ContentType != "" {
		w.Header().Set("Content-Type", object.ContentType)
	}
	http.ServeContent(w, r, object.Key, time.Time{}, bytes.NewReader(object.Data))
}
