package controllers

import (
	"net/http"

	"recipe-restful/models"
	"recipe-restful/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

type labeledModel[T any] interface {
	*T
	models.Labeled
}

// AttributeController serves one kind of owned attribute (tags or
// ingredients) under /api/<plural>.
type AttributeController[T any, PT labeledModel[T]] struct {
	service    services.AttributeService[T]
	authFilter restful.FilterFunction
	kind       string
	plural     string
	logger     *zap.Logger
}

func NewAttributeController[T any, PT labeledModel[T]](service services.AttributeService[T], authFilter restful.FilterFunction, kind, plural string, logger *zap.Logger) *AttributeController[T, PT] {
	return &AttributeController[T, PT]{service: service, authFilter: authFilter, kind: kind, plural: plural, logger: logger}
}

// NewTagController serves /api/tags.
func NewTagController(service services.AttributeService[models.Tag], authFilter restful.FilterFunction, logger *zap.Logger) *AttributeController[models.Tag, *models.Tag] {
	return NewAttributeController[models.Tag](service, authFilter, "tag", "tags", logger)
}

// NewIngredientController serves /api/ingredients.
func NewIngredientController(service services.AttributeService[models.Ingredient], authFilter restful.FilterFunction, logger *zap.Logger) *AttributeController[models.Ingredient, *models.Ingredient] {
	return NewAttributeController[models.Ingredient](service, authFilter, "ingredient", "ingredients", logger)
}

func (ctl *AttributeController[T, PT]) toResponse(row *T) AttributeResponse {
	base := PT(row).Base()
	return AttributeResponse{ID: base.ID, Name: base.Name}
}

// RegisterRoutes sets up the list/detail routes. All of them require a token.
func (ctl *AttributeController[T, PT]) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/api/" + ctl.plural).Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON).Filter(ctl.authFilter)
	tags := []string{ctl.plural}
	id := ws.PathParameter("id", "Identifier of the "+ctl.kind).DataType("integer")

	ws.Route(ws.GET("").To(ctl.listHandler).
		Doc("List the authenticated user's "+ctl.plural+", by name descending").
		Param(ws.QueryParameter("assigned_only", "1 to only list those used by at least one recipe").DataType("integer").DefaultValue("0")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]AttributeResponse{}).
		Returns(http.StatusOK, "OK", []AttributeResponse{}).
		Returns(http.StatusBadRequest, "Malformed assigned_only", MessageResponse{}))

	ws.Route(ws.POST("").To(ctl.createHandler).
		Doc("Create a "+ctl.kind+"; an existing one with the same name is returned instead").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.AttributeInput{}).
		Returns(http.StatusCreated, "Created", AttributeResponse{}).
		Returns(http.StatusOK, "Already existed", AttributeResponse{}).
		Returns(http.StatusBadRequest, "Invalid input", MessageResponse{}))

	ws.Route(ws.GET("/{id}").To(ctl.getHandler).
		Doc("Get a "+ctl.kind).
		Param(id).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(AttributeResponse{}).
		Returns(http.StatusOK, "OK", AttributeResponse{}).
		Returns(http.StatusNotFound, "Not found", MessageResponse{}))

	for _, method := range []struct {
		builder func(string) *restful.RouteBuilder
		partial bool
		doc     string
	}{
		{ws.PUT, false, "Rename a " + ctl.kind},
		{ws.PATCH, true, "Partially update a " + ctl.kind},
	} {
		ws.Route(method.builder("/{id}").To(ctl.updateHandler(method.partial)).
			Doc(method.doc).
			Param(id).
			Metadata(restfulspec.KeyOpenAPITags, tags).
			Reads(services.AttributeInput{}).
			Returns(http.StatusOK, "Updated", AttributeResponse{}).
			Returns(http.StatusBadRequest, "Invalid input", MessageResponse{}).
			Returns(http.StatusNotFound, "Not found", MessageResponse{}))
	}

	ws.Route(ws.DELETE("/{id}").To(ctl.deleteHandler).
		Doc("Delete a "+ctl.kind+" and unlink it from recipes").
		Param(id).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusNoContent, "Deleted", nil).
		Returns(http.StatusNotFound, "Not found", MessageResponse{}))
}

func (ctl *AttributeController[T, PT]) listHandler(request *restful.Request, response *restful.Response) {
	userID, ok := requestingUser(request, response)
	if !ok {
		return
	}

	assignedOnly, err := services.ParseAssignedOnly(request.QueryParameter("assigned_only"))
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}

	rows, err := ctl.service.List(request.Request.Context(), userID, assignedOnly)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, mapAttributes[T, PT](rows), restful.MIME_JSON)
}

func (ctl *AttributeController[T, PT]) createHandler(request *restful.Request, response *restful.Response) {
	userID, ok := requestingUser(request, response)
	if !ok {
		return
	}

	input := new(services.AttributeInput)
	if err := readEntity(request, input); err != nil {
		writeMessage(response, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	row, created, err := ctl.service.Create(request.Request.Context(), userID, input)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	_ = response.WriteHeaderAndJson(status, ctl.toResponse(row), restful.MIME_JSON)
}

func (ctl *AttributeController[T, PT]) getHandler(request *restful.Request, response *restful.Response) {
	userID, ok := requestingUser(request, response)
	if !ok {
		return
	}
	id, ok := pathID(request, response)
	if !ok {
		return
	}

	row, err := ctl.service.Get(request.Request.Context(), userID, id)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, ctl.toResponse(row), restful.MIME_JSON)
}

func (ctl *AttributeController[T, PT]) updateHandler(partial bool) restful.RouteFunction {
	return func(request *restful.Request, response *restful.Response) {
		userID, ok := requestingUser(request, response)
		if !ok {
			return
		}
		id, ok := pathID(request, response)
		if !ok {
			return
		}

		input := new(services.AttributeInput)
		if err := readEntity(request, input); err != nil {
			writeMessage(response, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}

		row, err := ctl.service.Update(request.Request.Context(), userID, id, input, partial)
		if err != nil {
			handleServiceError(response, ctl.logger, err)
			return
		}
		_ = response.WriteHeaderAndJson(http.StatusOK, ctl.toResponse(row), restful.MIME_JSON)
	}
}

func (ctl *AttributeController[T, PT]) deleteHandler(request *restful.Request, response *restful.Response) {
	userID, ok := requestingUser(request, response)
	if !ok {
		return
	}
	id, ok := pathID(request, response)
	if !ok {
		return
	}

	if err := ctl.service.Delete(request.Request.Context(), userID, id); err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}
