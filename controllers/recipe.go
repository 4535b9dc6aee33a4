package controllers

import (
	"errors"
	"io"
	"net/http"

	"recipe-restful/models"
	"recipe-restful/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// MaxImageSize caps the multipart body accepted by the upload route.
const MaxImageSize = 10 << 20

type RecipeController struct {
	recipeService services.RecipeService
	authFilter    restful.FilterFunction
	mediaURL      string
	logger        *zap.Logger
}

func NewRecipeController(recipeService services.RecipeService, authFilter restful.FilterFunction, mediaURL string, logger *zap.Logger) *RecipeController {
	return &RecipeController{recipeService: recipeService, authFilter: authFilter, mediaURL: mediaURL, logger: logger}
}

// AttributeResponse is how tags and ingredients are serialized, standalone
// and nested in recipes.
type AttributeResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// RecipeResponse is a recipe list item.
type RecipeResponse struct {
	ID          uint                `json:"id"`
	Title       string              `json:"title"`
	TimeMinutes int                 `json:"time_minutes"`
	Price       string              `json:"price" description:"Fixed two decimal places, e.g. 5.50"`
	Link        string              `json:"link"`
	Tags        []AttributeResponse `json:"tags"`
	Ingredients []AttributeResponse `json:"ingredients"`
}

// RecipeDetailResponse adds the fields only shown on a single recipe.
type RecipeDetailResponse struct {
	RecipeResponse
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

type RecipeImageResponse struct {
	ID    uint    `json:"id"`
	Image *string `json:"image"`
}

func mapAttributes[T any, PT labeledModel[T]](rows []T) []AttributeResponse {
	out := make([]AttributeResponse, 0, len(rows))
	for i := range rows {
		base := PT(&rows[i]).Base()
		out = append(out, AttributeResponse{ID: base.ID, Name: base.Name})
	}
	return out
}

func mapModelToRecipeResponse(recipe *models.Recipe) RecipeResponse {
	return RecipeResponse{
		ID:          recipe.ID,
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       recipe.Price.StringFixed(2),
		Link:        recipe.Link,
		Tags:        mapAttributes(recipe.Tags),
		Ingredients: mapAttributes(recipe.Ingredients),
	}
}

func (ctl *RecipeController) imageURL(recipe *models.Recipe) *string {
	if recipe.Image == "" {
		return nil
	}
	url := ctl.mediaURL + recipe.Image
	return &url
}

func (ctl *RecipeController) mapModelToRecipeDetail(recipe *models.Recipe) RecipeDetailResponse {
	return RecipeDetailResponse{
		RecipeResponse: mapModelToRecipeResponse(recipe),
		Description:    recipe.Description,
		Image:          ctl.imageURL(recipe),
	}
}

// RegisterRoutes sets up the recipe routes. All of them require a token.
func (ctl *RecipeController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/api/recipes").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON).Filter(ctl.authFilter)
	tags := []string{"recipes"}
	id := ws.PathParameter("id", "Identifier of the recipe").DataType("integer")

	ws.Route(ws.GET("").To(ctl.listHandler).
		Doc("List the authenticated user's recipes, newest first").
		Param(ws.QueryParameter("tags", "Comma separated tag ids; recipes with any of them").DataType("string")).
		Param(ws.QueryParameter("ingredients", "Comma separated ingredient ids; recipes with any of them").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]RecipeResponse{}).
		Returns(http.StatusOK, "OK", []RecipeResponse{}).
		Returns(http.StatusBadRequest, "Malformed filter", MessageResponse{}))

	ws.Route(ws.POST("").To(ctl.createHandler).
		Doc("Create a recipe; nested tags and ingredients are matched by name or created").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.RecipeInput{}).
		Returns(http.StatusCreated, "Created", RecipeDetailResponse{}).
		Returns(http.StatusBadRequest, "Invalid input", MessageResponse{}))

	ws.Route(ws.GET("/{id}").To(ctl.getHandler).
		Doc("Get a recipe").
		Param(id).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(RecipeDetailResponse{}).
		Returns(http.StatusOK, "OK", RecipeDetailResponse{}).
		Returns(http.StatusNotFound, "Recipe not found", MessageResponse{}))

	ws.Route(ws.PUT("/{id}").To(ctl.updateHandler(false)).
		Doc("Replace a recipe").
		Param(id).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.RecipeInput{}).
		Returns(http.StatusOK, "Updated", RecipeDetailResponse{}).
		Returns(http.StatusBadRequest, "Invalid input", MessageResponse{}).
		Returns(http.StatusNotFound, "Recipe not found", MessageResponse{}))

	ws.Route(ws.PATCH("/{id}").To(ctl.updateHandler(true)).
		Doc("Partially update a recipe; an absent tags/ingredients key keeps them, [] clears them").
		Param(id).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.RecipeInput{}).
		Returns(http.StatusOK, "Updated", RecipeDetailResponse{}).
		Returns(http.StatusBadRequest, "Invalid input", MessageResponse{}).
		Returns(http.StatusNotFound, "Recipe not found", MessageResponse{}))

	ws.Route(ws.DELETE("/{id}").To(ctl.deleteHandler).
		Doc("Delete a recipe").
		Param(id).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusNoContent, "Deleted", nil).
		Returns(http.StatusNotFound, "Recipe not found", MessageResponse{}))

	ws.Route(ws.POST("/{id}/upload-image").To(ctl.uploadImageHandler).
		Doc("Upload an image for a recipe").
		Consumes("multipart/form-data").
		Param(id).
		Param(ws.MultiPartFormParameter("image", "Image file").DataType("file").Required(true)).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Image stored", RecipeImageResponse{}).
		Returns(http.StatusBadRequest, "Missing or invalid image", MessageResponse{}).
		Returns(http.StatusNotFound, "Recipe not found", MessageResponse{}))
}

func (ctl *RecipeController) listHandler(request *restful.Request, response *restful.Response) {
	userID, ok := requestingUser(request, response)
	if !ok {
		return
	}

	filter, err := services.ParseRecipeFilter(request.QueryParameter("tags"), request.QueryParameter("ingredients"))
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}

	recipes, err := ctl.recipeService.List(request.Request.Context(), userID, filter)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}

	out := make([]RecipeResponse, len(recipes))
	for i := range recipes {
		out[i] = mapModelToRecipeResponse(&recipes[i])
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, out, restful.MIME_JSON)
}

func (ctl *RecipeController) createHandler(request *restful.Request, response *restful.Response) {
	userID, ok := requestingUser(request, response)
	if !ok {
		return
	}

	input := new(services.RecipeInput)
	if err := readEntity(request, input); err != nil {
		writeMessage(response, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	recipe, err := ctl.recipeService.Create(request.Request.Context(), userID, input)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, ctl.mapModelToRecipeDetail(recipe), restful.MIME_JSON)
}

func (ctl *RecipeController) getHandler(request *restful.Request, response *restful.Response) {
	userID, ok := requestingUser(request, response)
	if !ok {
		return
	}
	id, ok := pathID(request, response)
	if !ok {
		return
	}

	recipe, err := ctl.recipeService.Get(request.Request.Context(), userID, id)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, ctl.mapModelToRecipeDetail(recipe), restful.MIME_JSON)
}

func (ctl *RecipeController) updateHandler(partial bool) restful.RouteFunction {
	return func(request *restful.Request, response *restful.Response) {
		userID, ok := requestingUser(request, response)
		if !ok {
			return
		}
		id, ok := pathID(request, response)
		if !ok {
			return
		}

		input := new(services.RecipeInput)
		if err := readEntity(request, input); err != nil {
			writeMessage(response, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}

		recipe, err := ctl.recipeService.Update(request.Request.Context(), userID, id, input, partial)
		if err != nil {
			handleServiceError(response, ctl.logger, err)
			return
		}
		_ = response.WriteHeaderAndJson(http.StatusOK, ctl.mapModelToRecipeDetail(recipe), restful.MIME_JSON)
	}
}

func (ctl *RecipeController) deleteHandler(request *restful.Request, response *restful.Response) {
	userID, ok := requestingUser(request, response)
	if !ok {
		return
	}
	id, ok := pathID(request, response)
	if !ok {
		return
	}

	if err := ctl.recipeService.Delete(request.Request.Context(), userID, id); err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}

func (ctl *RecipeController) uploadImageHandler(request *restful.Request, response *restful.Response) {
	userID, ok := requestingUser(request, response)
	if !ok {
		return
	}
	id, ok := pathID(request, response)
	if !ok {
		return
	}

	// Ownership is checked before the upload is inspected so a foreign id
	// is a 404 even when the body is also invalid.
	if _, err := ctl.recipeService.Get(request.Request.Context(), userID, id); err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}

	request.Request.Body = http.MaxBytesReader(response, request.Request.Body, MaxImageSize)
	file, header, err := request.Request.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(response, http.StatusBadRequest, "image: upload too large")
			return
		}
		writeMessage(response, http.StatusBadRequest, "image: no file was submitted")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeMessage(response, http.StatusBadRequest, "image: could not read upload")
		return
	}

	image, err := ctl.recipeService.UploadImage(request.Request.Context(), userID, id, header.Filename, data)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	url := ctl.mediaURL + image
	_ = response.WriteHeaderAndJson(http.StatusOK, RecipeImageResponse{ID: id, Image: &url}, restful.MIME_JSON)
}
