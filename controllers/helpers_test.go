package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"recipe-restful/auth"
	"recipe-restful/models"
	"recipe-restful/repositories"
	"recipe-restful/services"
	"recipe-restful/storage"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB initializes a private in-memory database with the schema migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Tag{}, &models.Ingredient{}, &models.Recipe{}))
	return db
}

type testAPI struct {
	container *restful.Container
	store     *repositories.Store
	db        *gorm.DB
	mediaRoot string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	store := repositories.NewStore(db)
	mediaRoot := t.TempDir()
	files, err := storage.NewFileStorage(mediaRoot)
	require.NoError(t, err)

	log := zap.NewNop()
	authFilter := auth.AuthFilter(store.Users)
	container := NewContainer(
		ContainerOptions{Logger: log, MediaRoot: mediaRoot, MediaURL: "/media/"},
		NewUserController(services.NewUserService(store.Users), authFilter, log),
		NewRecipeController(services.NewRecipeService(store, files), authFilter, "/media/", log),
		NewTagController(services.NewAttributeService[models.Tag](store.Tags, "tag"), authFilter, log),
		NewIngredientController(services.NewAttributeService[models.Ingredient](store.Ingredients, "ingredient"), authFilter, log),
		NewHealthController(sqlDB, log),
	)
	return &testAPI{container: container, store: store, db: db, mediaRoot: mediaRoot}
}

func (a *testAPI) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.container.ServeHTTP(w, req)
	return w
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.serve(req)
}

// register creates a user through the API and returns a token for it.
func (a *testAPI) register(t *testing.T, email string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/user/create", "", map[string]string{"email": email, "password": "testpass123", "name": "Test"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/api/user/token", "", map[string]string{"email": email, "password": "testpass123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[TokenResponse](t, w).Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type jsonMap = map[string]any
