package collection

import (
	"go-cms/internal/common/api"
	"go-cms/internal/config"
	"go-cms/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type CollectionApi struct {
	controller *CollectionController
	config     *config.Config
}

func NewCollectionApi(controller *CollectionController, config *config.Config) api.Route {
	return &CollectionApi{
		controller: controller,
		config:     config,
	}
}

func (h *CollectionApi) Setup(app *fiber.App) {
	collections := app.Group(h.config.APIPrefix+"/collections", middleware.AuthMiddleware(h.config.SkipAuth))
	collections.Post("/", h.controller.CreateCollection)
	collections.Get("/", h.controller.GetCollections)
	collections.Get("/:slug", h.controller.GetCollection)
	collections.Put("/:slug", h.controller.UpdateCollection)
	collections.Delete("/:slug", h.controller.DeleteCollection)
	collections.Get("/:slug/export", h.controller.ExportCollection)

	collections.Post("/:slug/attributes", h.controller.AddAttribute)
	collections.Put("/:slug/attributes/:attributeId/files", h.controller.UploadAttributeFile)
	collections.Put("/:slug/attributes/:attributeId", h.controller.UpdateAttribute)
	collections.Delete("/:slug/attributes/:attributeId", h.controller.DeleteAttribute)

	public := app.Group(h.config.APIPrefix + "/public")
	public.Get("/collections/:slug", h.controller.GetPublicAttributes)
	public.Get("/users/:username", h.controller.GetPublicCollections)
	public.Get("/posts/:slug", h.controller.GetPublicPosts)
}
