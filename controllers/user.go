package controllers

import (
	"net/http"

	"recipe-restful/models"
	"recipe-restful/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// Define the Service interface that the Controller depends on
type UserController struct {
	userService services.UserService
	authFilter  restful.FilterFunction
	logger      *zap.Logger
}

// Constructor, used to create a UserController instance
func NewUserController(userService services.UserService, authFilter restful.FilterFunction, logger *zap.Logger) *UserController {
	return &UserController{userService: userService, authFilter: authFilter, logger: logger}
}

// UserResponse Defines the response structure of user information
type UserResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

func mapModelToUserResponse(user *models.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	return UserResponse{Email: user.Email, Name: user.Name}
}

// --- go-restful Route Definitions ---

// RegisterRoutes sets up the user-related routes for a go-restful WebService.
func (ctl *UserController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/api/user").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"user"}

	// --- Public routes ---
	ws.Route(ws.POST("/create").To(ctl.createUserHandler).
		Doc("Register a new user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.CreateUserInput{}).
		Returns(http.StatusCreated, "User created", UserResponse{}).
		Returns(http.StatusBadRequest, "Invalid input or email already registered", MessageResponse{}))

	ws.Route(ws.POST("/token").To(ctl.tokenHandler).
		Doc("Exchange email and password for a bearer token").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.TokenInput{}).
		Returns(http.StatusOK, "Token issued", TokenResponse{}).
		Returns(http.StatusBadRequest, "Unable to authenticate with provided credentials", MessageResponse{}))

	// --- Routes requiring Authentication (Apply AuthFilter) ---
	ws.Route(ws.GET("/me").Filter(ctl.authFilter).To(ctl.getMeHandler).
		Doc("Get the authenticated user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(UserResponse{}).
		Returns(http.StatusOK, "OK", UserResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", MessageResponse{}))

	ws.Route(ws.PUT("/me").Filter(ctl.authFilter).To(ctl.updateMeHandler(false)).
		Doc("Replace name and password of the authenticated user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.UpdateUserInput{}).
		Returns(http.StatusOK, "Updated", UserResponse{}).
		Returns(http.StatusBadRequest, "Invalid input", MessageResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", MessageResponse{}))

	ws.Route(ws.PATCH("/me").Filter(ctl.authFilter).To(ctl.updateMeHandler(true)).
		Doc("Update name and/or password of the authenticated user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.UpdateUserInput{}).
		Returns(http.StatusOK, "Updated", UserResponse{}).
		Returns(http.StatusBadRequest, "Invalid input", MessageResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", MessageResponse{}))
}

// --- go-restful Handler Functions ---

// createUserHandler (Handles POST /api/user/create)
func (ctl *UserController) createUserHandler(request *restful.Request, response *restful.Response) {
	input := new(services.CreateUserInput)
	if err := readEntity(request, input); err != nil {
		writeMessage(response, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	user, err := ctl.userService.CreateUser(request.Request.Context(), input)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}

	_ = response.WriteHeaderAndJson(http.StatusCreated, mapModelToUserResponse(user), restful.MIME_JSON)
}

// tokenHandler (Handles POST /api/user/token)
func (ctl *UserController) tokenHandler(request *restful.Request, response *restful.Response) {
	input := new(services.TokenInput)
	if err := readEntity(request, input); err != nil {
		writeMessage(response, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	token, err := ctl.userService.Authenticate(request.Request.Context(), input)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}

	_ = response.WriteHeaderAndJson(http.StatusOK, TokenResponse{Token: token}, restful.MIME_JSON)
}

// getMeHandler (Handles GET /api/user/me)
func (ctl *UserController) getMeHandler(request *restful.Request, response *restful.Response) {
	userID, ok := requestingUser(request, response)
	if !ok {
		return
	}

	user, err := ctl.userService.GetProfile(request.Request.Context(), userID)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}

	_ = response.WriteHeaderAndJson(http.StatusOK, mapModelToUserResponse(user), restful.MIME_JSON)
}

// updateMeHandler handles PUT (partial=false) and PATCH (partial=true) on /api/user/me.
func (ctl *UserController) updateMeHandler(partial bool) restful.RouteFunction {
	return func(request *restful.Request, response *restful.Response) {
		userID, ok := requestingUser(request, response)
		if !ok {
			return
		}

		input := new(services.UpdateUserInput)
		if err := readEntity(request, input); err != nil {
			writeMessage(response, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}

		user, err := ctl.userService.UpdateProfile(request.Request.Context(), userID, input, partial)
		if err != nil {
			handleServiceError(response, ctl.logger, err)
			return
		}

		_ = response.WriteHeaderAndJson(http.StatusOK, mapModelToUserResponse(user), restful.MIME_JSON)
	}
}
