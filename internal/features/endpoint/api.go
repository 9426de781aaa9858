package endpoint

import (
	"go-cms/internal/common/api"
	"go-cms/internal/config"
	"go-cms/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type EndpointApi struct {
	controller *EndpointController
	config     *config.Config
}

func NewEndpointApi(controller *EndpointController, config *config.Config) api.Route {
	return &EndpointApi{
		controller: controller,
		config:     config,
	}
}

func (h *EndpointApi) Setup(app *fiber.App) {
	group := app.Group(h.config.APIPrefix+"/endpoints", middleware.AuthMiddleware(h.config.SkipAuth))
	group.Get("/", h.controller.ListEndpoints)
	group.Get("/:slug", h.controller.GetEndpoint)
	group.Patch("/:slug", h.controller.UpdateEndpoint)
}
