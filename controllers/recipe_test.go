package controllers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRecipe(t *testing.T, api *testAPI, token string, body jsonMap) RecipeDetailResponse {
	t.Helper()
	payload := jsonMap{"title": "Sample recipe", "time_minutes": 22, "price": "5.25"}
	for k, v := range body {
		payload[k] = v
	}
	w := api.do(t, http.MethodPost, "/api/recipes", token, payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[RecipeDetailResponse](t, w)
}

func recipePath(id uint) string { return fmt.Sprintf("/api/recipes/%d", id) }

func attributeNames(list []AttributeResponse) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Name)
	}
	return out
}

func TestRecipesRequireAuth(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/api/recipes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateAndListRecipes(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "user@example.com")
	other := api.register(t, "other@example.com")

	first := createRecipe(t, api, token, jsonMap{"price": 5.5, "link": "https://example.com/r"})
	assert.Equal(t, "5.50", first.Price)
	assert.Nil(t, first.Image)
	second := createRecipe(t, api, token, jsonMap{"title": "Second", "tags": []jsonMap{{"name": "Thai"}}})
	createRecipe(t, api, other, jsonMap{"title": "Not yours"})

	w := api.do(t, http.MethodGet, "/api/recipes", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]RecipeResponse](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, []string{"Thai"}, attributeNames(list[0].Tags))

	raw := decode[[]jsonMap](t, w)
	assert.NotContains(t, raw[0], "description", "list items omit detail fields")
	assert.NotContains(t, raw[0], "image")

	detail := api.do(t, http.MethodGet, recipePath(first.ID), token, nil)
	require.Equal(t, http.StatusOK, detail.Code)
	assert.Contains(t, decode[jsonMap](t, detail), "description")
}

func TestRecipeOwnershipOpacity(t *testing.T) {
	api := newTestAPI(t)
	owner := api.register(t, "owner@example.com")
	intruder := api.register(t, "intruder@example.com")
	recipe := createRecipe(t, api, owner, nil)

	for _, tc := range []struct {
		method string
		body   any
	}{
		{http.MethodGet, nil},
		{http.MethodPatch, jsonMap{"title": "Hijacked"}},
		{http.MethodPut, jsonMap{"title": "Hijacked", "time_minutes": 1, "price": "1.00"}},
		{http.MethodDelete, nil},
	} {
		w := api.do(t, tc.method, recipePath(recipe.ID), intruder, tc.body)
		assert.Equal(t, http.StatusNotFound, w.Code, tc.method)
	}

	w := api.do(t, http.MethodGet, recipePath(recipe.ID), owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sample recipe", decode[RecipeDetailResponse](t, w).Title)

	w = api.do(t, http.MethodGet, "/api/recipes/not-a-number", owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPatchIgnoresOwnerField(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "user@example.com")
	recipe := createRecipe(t, api, token, nil)

	w := api.do(t, http.MethodPatch, recipePath(recipe.ID), token, jsonMap{"user": 999, "user_id": 999})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	row, err := api.store.Recipes.FindByID(context.Background(), 1, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), row.UserID)
}

func TestRecipeTagsAbsentVersusEmpty(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "user@example.com")
	recipe := createRecipe(t, api, token, jsonMap{
		"tags":        []jsonMap{{"name": "Breakfast"}, {"name": "Indian"}},
		"ingredients": []jsonMap{{"name": "Rice"}},
	})
	assert.Equal(t, []string{"Indian", "Breakfast"}, attributeNames(recipe.Tags))

	w := api.do(t, http.MethodPatch, recipePath(recipe.ID), token, jsonMap{"title": "Renamed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[RecipeDetailResponse](t, w).Tags, 2)

	w = api.do(t, http.MethodPatch, recipePath(recipe.ID), token, jsonMap{"tags": []jsonMap{}})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[RecipeDetailResponse](t, w)
	assert.Empty(t, updated.Tags)
	assert.Equal(t, []string{"Rice"}, attributeNames(updated.Ingredients))

	w = api.do(t, http.MethodPatch, recipePath(recipe.ID), token, jsonMap{"tags": []jsonMap{{"name": "Lunch"}}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Lunch"}, attributeNames(decode[RecipeDetailResponse](t, w).Tags))
}

func TestRecipeValidation(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "user@example.com")

	for name, body := range map[string]jsonMap{
		"missing price":   {"title": "x", "time_minutes": 5},
		"price too large": {"title": "x", "time_minutes": 5, "price": "1000"},
		"three decimals":  {"title": "x", "time_minutes": 5, "price": "1.005"},
		"negative time":   {"title": "x", "time_minutes": -5, "price": "1"},
		"nameless tag":    {"title": "x", "time_minutes": 5, "price": "1", "tags": []jsonMap{{}}},
	} {
		t.Run(name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/api/recipes", token, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestRecipeFilters(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "user@example.com")

	curry := createRecipe(t, api, token, jsonMap{"title": "Curry", "tags": []jsonMap{{"name": "Vegan"}, {"name": "Spicy"}}})
	soup := createRecipe(t, api, token, jsonMap{"title": "Soup", "tags": []jsonMap{{"name": "Vegan"}}, "ingredients": []jsonMap{{"name": "Leek"}}})
	createRecipe(t, api, token, jsonMap{"title": "Steak"})

	var vegan, spicy uint
	for _, tag := range curry.Tags {
		switch tag.Name {
		case "Vegan":
			vegan = tag.ID
		case "Spicy":
			spicy = tag.ID
		}
	}
	leek := soup.Ingredients[0].ID

	titles := func(query string) []string {
		w := api.do(t, http.MethodGet, "/api/recipes?"+query, token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var out []string
		for _, r := range decode[[]RecipeResponse](t, w) {
			out = append(out, r.Title)
		}
		return out
	}

	assert.Equal(t, []string{"Soup", "Curry"}, titles(fmt.Sprintf("tags=%d,%d", vegan, spicy)), "any tag matches, no duplicates")
	assert.Equal(t, []string{"Curry"}, titles(fmt.Sprintf("tags=%d", spicy)))
	assert.Equal(t, []string{"Soup"}, titles(fmt.Sprintf("tags=%d&ingredients=%d", vegan, leek)), "tags and ingredients combine")
	assert.Empty(t, titles(fmt.Sprintf("tags=%d&ingredients=%d", spicy, leek)))

	w := api.do(t, http.MethodGet, "/api/recipes?tags=1,abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteRecipe(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "user@example.com")
	recipe := createRecipe(t, api, token, jsonMap{"tags": []jsonMap{{"name": "Dinner"}}})

	w := api.do(t, http.MethodDelete, recipePath(recipe.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(t, http.MethodGet, recipePath(recipe.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, "/api/tags", token, nil)
	assert.Len(t, decode[[]AttributeResponse](t, w), 1, "tags outlive the recipe")
}

func uploadRequest(t *testing.T, path, token, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 10, 10))))
	return buf.Bytes()
}

func TestUploadImage(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "user@example.com")
	other := api.register(t, "other@example.com")
	recipe := createRecipe(t, api, token, nil)
	uploadPath := recipePath(recipe.ID) + "/upload-image"

	w := api.serve(uploadRequest(t, uploadPath, token, "image", "photo.png", pngBytes(t)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	uploaded := decode[RecipeImageResponse](t, w)
	assert.Equal(t, recipe.ID, uploaded.ID)
	require.NotNil(t, uploaded.Image)
	assert.True(t, strings.HasPrefix(*uploaded.Image, "/media/uploads/recipe/"), *uploaded.Image)
	assert.True(t, strings.HasSuffix(*uploaded.Image, ".png"))

	served := api.serve(httptest.NewRequest(http.MethodGet, *uploaded.Image, nil))
	assert.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, pngBytes(t), served.Body.Bytes())

	t.Run("Not an image", func(t *testing.T) {
		w := api.serve(uploadRequest(t, uploadPath, token, "image", "photo.png", []byte("notimage")))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		detail := decode[RecipeDetailResponse](t, api.do(t, http.MethodGet, recipePath(recipe.ID), token, nil))
		assert.Equal(t, uploaded.Image, detail.Image, "previous image kept")
	})

	t.Run("Truncated image", func(t *testing.T) {
		// Signature and IHDR chunk only; the header parses but no pixels follow.
		w := api.serve(uploadRequest(t, uploadPath, token, "image", "photo.png", pngBytes(t)[:33]))
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

		detail := decode[RecipeDetailResponse](t, api.do(t, http.MethodGet, recipePath(recipe.ID), token, nil))
		assert.Equal(t, uploaded.Image, detail.Image, "previous image kept")
	})

	t.Run("Media directories are not listed", func(t *testing.T) {
		for _, path := range []string{"/media/", "/media/uploads/", "/media/uploads/recipe/", "/media/uploads/recipe"} {
			w := api.serve(httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusNotFound, w.Code, path)
			assert.NotContains(t, w.Body.String(), ".png", path)
		}
	})

	t.Run("Missing field", func(t *testing.T) {
		w := api.serve(uploadRequest(t, uploadPath, token, "file", "photo.png", pngBytes(t)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Foreign recipe", func(t *testing.T) {
		w := api.serve(uploadRequest(t, uploadPath, other, "image", "photo.png", pngBytes(t)))
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = api.serve(uploadRequest(t, uploadPath, other, "file", "photo.png", []byte("notimage")))
		assert.Equal(t, http.StatusNotFound, w.Code, "ownership is reported before the body is inspected")
	})
}

func TestHealthAndDocs(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, HealthResponse{Status: "ok"}, decode[HealthResponse](t, w))

	w = api.do(t, http.MethodGet, APIDocsPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	docs := decode[jsonMap](t, w)
	assert.Equal(t, "2.0", docs["swagger"])
	paths, ok := docs["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/api/recipes/{id}/upload-image")
	assert.Contains(t, paths, "/api/tags")

	sqlDB, err := api.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	w = api.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
