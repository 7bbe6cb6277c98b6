package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/purplearchive/purple-archive-server/apperrors"
	"github.com/purplearchive/purple-archive-server/config"
	"github.com/purplearchive/purple-archive-server/models"
	"github.com/purplearchive/purple-archive-server/ocr"
	"github.com/purplearchive/purple-archive-server/repository"
)

// stubAnnotator returns deterministic page annotations without calling the
// Vision API. Setting err makes every call fail.
type stubAnnotator struct {
	err error
}

func (a *stubAnnotator) AnnotateImages(_ context.Context, images []image.Image) ([]ocr.PageAnnotation, error) {
	if a.err != nil {
		return nil, a.err
	}
	pages := make([]ocr.PageAnnotation, len(images))
	for i := range pages {
		pages[i] = ocr.PageAnnotation{
			Description: fmt.Sprintf("page %d", i),
			PlayerName:  "player",
		}
	}
	return pages, nil
}

// stubStore keeps uploaded objects in memory.
type stubStore struct {
	objects map[string][]byte
}

func newStubStore() *stubStore {
	return &stubStore{objects: map[string][]byte{}}
}

func (s *stubStore) Upload(localPath, key, contentType string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}
	s.objects[key] = data
	return s.URLFor(key), nil
}

func (s *stubStore) Download(key, localPath string) error {
	data, ok := s.objects[key]
	if !ok {
		return apperrors.External("s3", fmt.Errorf("no such key %s", key))
	}
	return os.WriteFile(localPath, data, 0644)
}

func (s *stubStore) Delete(key string) error {
	delete(s.objects, key)
	return nil
}

func (s *stubStore) URLFor(key string) string {
	return "https://s3.test-region.amazonaws.com/test-bucket/" + key
}

func (s *stubStore) KeyFromURL(url string) (string, error) {
	prefix := s.URLFor("")
	if !strings.HasPrefix(url, prefix) {
		return "", fmt.Errorf("url %q does not belong to the test bucket", url)
	}
	return strings.TrimPrefix(url, prefix), nil
}

type testEnv struct {
	t         *testing.T
	router    http.Handler
	db        *gorm.DB
	store     *stubStore
	annotator *stubAnnotator
	cfg       config.Config
}

// setupTestEnv wires the full handler stack against an in-memory database,
// mirroring the route layout of main.
func setupTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Gamemode{},
		&models.Tag{},
		&models.Album{},
		&models.Page{},
		&models.AlbumTag{},
		&models.Bookmark{},
		&models.TempAlbum{},
	))

	cfg := config.Config{
		TempUploadsPath:  t.TempDir(),
		ScratchPath:      t.TempDir(),
		JWTSecret:        "test-secret",
		TokenExpiry:      time.Hour,
		ThumbnailMaxSize: 32,
	}

	albumRepo := repository.NewAlbumRepository(db)
	tempRepo := repository.NewTempAlbumRepository(db)
	tagRepo := repository.NewTagRepository(db)
	gamemodeRepo := repository.NewGamemodeRepository(db)
	userRepo := repository.NewUserRepository(db)

	store := newStubStore()
	annotator := &stubAnnotator{}
	jwtSecret := []byte(cfg.JWTSecret)

	authHandler := NewAuthHandler(userRepo, jwtSecret, cfg.TokenExpiry)
	userHandler := NewUserHandler(userRepo)
	albumHandler := NewAlbumHandler(albumRepo, tempRepo, store, cfg)
	tempAlbumHandler := NewTempAlbumHandler(albumRepo, tempRepo, annotator, cfg)
	tagHandler := NewTagHandler(tagRepo)
	gamemodeHandler := NewGamemodeHandler(gamemodeRepo)

	authMW := AuthMiddleware(jwtSecret, userRepo)

	r := chi.NewRouter()
	r.Post("/auth", authHandler.Login)
	r.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.Create)
		r.Group(func(r chi.Router) {
			r.Use(authMW)
			r.Get("/", userHandler.List)
			r.Get("/me", userHandler.GetMe)
			r.Post("/me/bookmarks", userHandler.AddBookmarks)
			r.Post("/me/bookmarks/unbookmark", userHandler.RemoveBookmarks)
			r.Get("/{id}", userHandler.GetByID)
		})
	})
	r.Route("/albums", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/", albumHandler.List)
		r.Post("/", albumHandler.Create)
		r.Post("/temp", tempAlbumHandler.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", albumHandler.Get)
			r.Put("/", albumHandler.Update)
			r.Delete("/", albumHandler.Delete)
			r.Get("/raw", albumHandler.GetRaw)
			r.Post("/dlcount", albumHandler.IncrementDownloadCount)
		})
	})
	r.Route("/tags", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/", tagHandler.List)
		r.Post("/", tagHandler.Create)
	})
	r.Route("/gamemodes", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/", gamemodeHandler.List)
		r.Post("/", gamemodeHandler.Create)
		r.Delete("/{id}", gamemodeHandler.Delete)
	})

	return &testEnv{t: t, router: r, db: db, store: store, annotator: annotator, cfg: cfg}
}

func (e *testEnv) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) decode(rec *httptest.ResponseRecorder, out interface{}) {
	require.NoError(e.t, json.NewDecoder(rec.Body).Decode(out))
}

func (e *testEnv) registerUser(id, password string) {
	rec := e.request(http.MethodPost, "/users", "", CreateUserPayload{ID: id, Password: password, DisplayName: id})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (e *testEnv) login(id, password string) string {
	rec := e.request(http.MethodPost, "/auth", "", LoginPayload{ID: id, Password: password})
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	e.decode(rec, &resp)
	require.NotEmpty(e.t, resp.AccessToken)
	return resp.AccessToken
}

func makeTestGIF(t *testing.T, frameCount int) []byte {
	pal := color.Palette{color.Black, color.White}
	g := &gif.GIF{}
	for i := 0; i < frameCount; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, 16, 12), pal)
		frame.SetColorIndex(i%16, 0, 1)
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, 10)
	}

	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, g))
	return buf.Bytes()
}
