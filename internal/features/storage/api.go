package storage

import (
	"go-cms/internal/common/api"
	"go-cms/internal/config"
	"go-cms/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type StorageApi struct {
	controller *StorageController
	config     *config.Config
}

func NewStorageApi(controller *StorageController, config *config.Config) api.Route {
	return &StorageApi{
		controller: controller,
		config:     config,
	}
}

func (h *StorageApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)
	group := app.Group(h.config.APIPrefix + "/storage")

	// registered ahead of /:username/:fileId
	group.Get("/files", auth, h.controller.ListFiles)
	group.Delete("/files/:fileId", auth, h.controller.DeleteFile)
	group.Delete("/groups/:groupId", auth, h.controller.DeleteGroup)
	group.Get("/sessions/:sessionId", auth, h.controller.GetSession)
	group.Get("/:username/:fileId", h.controller.GetFile)

	app.Get(h.config.APIPrefix+"/ws/uploads",
		middleware.QueryTokenMiddleware(h.config.SkipAuth),
		h.controller.RequireUpgrade,
		websocket.New(h.controller.StreamProgress),
	)
}
