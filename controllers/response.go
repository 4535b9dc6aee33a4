package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"recipe-restful/auth"
	"recipe-restful/services"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// MessageResponse is the body of every error response.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeMessage(response *restful.Response, status int, message string) {
	_ = response.WriteHeaderAndJson(status, MessageResponse{Message: message}, restful.MIME_JSON)
}

// readEntity decodes the JSON body into entity. An empty body leaves entity
// untouched, which PATCH relies on.
func readEntity(request *restful.Request, entity any) error {
	if err := request.ReadEntity(entity); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// pathID parses the {id} path parameter. Anything but a positive integer is
// reported as a missing resource.
func pathID(request *restful.Request, response *restful.Response) (uint, bool) {
	id, err := strconv.ParseUint(request.PathParameter("id"), 10, 32)
	if err != nil || id == 0 {
		writeMessage(response, http.StatusNotFound, "not found")
		return 0, false
	}
	return uint(id), true
}

// requestingUser returns the id AuthFilter stored on the request.
func requestingUser(request *restful.Request, response *restful.Response) (uint, bool) {
	userID, ok := auth.RequestingUserID(request)
	if !ok {
		writeMessage(response, http.StatusUnauthorized, "authentication credentials were not provided")
		return 0, false
	}
	return userID, true
}

// handleServiceError translates service errors to HTTP responses.
func handleServiceError(response *restful.Response, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidCredentials):
		writeMessage(response, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrAuth):
		writeMessage(response, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrNotFound):
		writeMessage(response, http.StatusNotFound, err.Error())
	default:
		logger.Error("Unhandled service error", zap.Error(err))
		writeMessage(response, http.StatusInternalServerError, "An internal error occurred")
	}
}
