package controllers

import (
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"strings"

	"recipe-restful/interceptors"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"go.uber.org/zap"
)

// APIDocsPath serves the generated OpenAPI document.
const APIDocsPath = "/apidocs.json"

// RouteRegistrar is implemented by every controller.
type RouteRegistrar interface {
	RegisterRoutes(ws *restful.WebService)
}

// ContainerOptions configures NewContainer.
type ContainerOptions struct {
	Logger    *zap.Logger
	MediaRoot string
	MediaURL  string
}

// NewContainer builds the HTTP handler: one WebService per controller, the
// OpenAPI document, uploaded media, request logging and panic recovery.
func NewContainer(opts ContainerOptions, registrars ...RouteRegistrar) *restful.Container {
	restful.DefaultRequestContentType(restful.MIME_JSON)
	restful.DefaultResponseContentType(restful.MIME_JSON)

	container := restful.NewContainer()
	container.Router(restful.CurlyRouter{})
	container.Filter(interceptors.HTTPLoggingFilter(opts.Logger))
	container.DoNotRecover(false)
	container.RecoverHandler(func(reason interface{}, w http.ResponseWriter) {
		opts.Logger.Error("Recovered from panic",
			zap.String("reason", fmt.Sprint(reason)),
			zap.ByteString("stack", debug.Stack()))
		w.Header().Set("Content-Type", restful.MIME_JSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"An internal error occurred"}`))
	})
	container.ServiceErrorHandler(func(serviceErr restful.ServiceError, _ *restful.Request, response *restful.Response) {
		writeMessage(response, serviceErr.Code, serviceErr.Message)
	})

	for _, registrar := range registrars {
		ws := new(restful.WebService)
		registrar.RegisterRoutes(ws)
		container.Add(ws)
	}

	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices:                   container.RegisteredWebServices(),
		APIPath:                       APIDocsPath,
		PostBuildSwaggerObjectHandler: enrichSwaggerObject,
	}))

	if opts.MediaRoot != "" && opts.MediaURL != "" {
		prefix := "/" + strings.Trim(opts.MediaURL, "/") + "/"
		container.Handle(prefix, http.StripPrefix(prefix, http.FileServer(fileOnlyFS{http.Dir(opts.MediaRoot)})))
	}
	return container
}

// fileOnlyFS hides directories so the media mount never renders an index.
type fileOnlyFS struct {
	http.FileSystem
}

func (fs fileOnlyFS) Open(name string) (http.File, error) {
	f, err := fs.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "Recipe API",
			Description: "Per-user recipes with tags, ingredients and images",
			Version:     "1.0.0",
		},
	}
	swo.Tags = []spec.Tag{
		{TagProps: spec.TagProps{Name: "user", Description: "Registration, tokens and the own profile"}},
		{TagProps: spec.TagProps{Name: "recipes", Description: "Recipes of the authenticated user"}},
		{TagProps: spec.TagProps{Name: "tags", Description: "Tags of the authenticated user"}},
		{TagProps: spec.TagProps{Name: "ingredients", Description: "Ingredients of the authenticated user"}},
		{TagProps: spec.TagProps{Name: "health", Description: "Service health"}},
	}
	swo.SecurityDefinitions = spec.SecurityDefinitions{
		"BearerToken": spec.APIKeyAuth("Authorization", "header"),
	}
	swo.Security = []map[string][]string{{"BearerToken": {}}}
}
