package storage

import (
	"go-cms/internal/common/api"
	"go-cms/internal/middleware"
	"go-cms/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type StorageController struct {
	Service StorageService
	Hub     *ProgressHub
	logger  *zap.Logger
}

func NewStorageController(service StorageService, hub *ProgressHub, logger *zap.Logger) *StorageController {
	return &StorageController{
		Service: service,
		Hub:     hub,
		logger:  logger,
	}
}

// GetFile godoc
// @Summary Download a stored file
// @Tags storage
// @Produce octet-stream
// @Param username path string true "Owner"
// @Param fileId path string true "File ID"
// @Param thumbnail query bool false "Serve the generated thumbnail"
// @Success 200 {file} file
// @Failure 404 {object} map[string]interface{}
// @Router /storage/{username}/{fileId} [get]
func (ctrl *StorageController) GetFile(c *fiber.Ctx) error {
	thumbnail, err := api.QueryBool(c, "thumbnail", false)
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	path, err := ctrl.Service.GetFilePath(c.UserContext(), c.Params("username"), c.Params("fileId"), thumbnail)
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.SendFile(path)
}

// ListFiles godoc
// @Summary List my uploaded files
// @Tags storage
// @Produce json
// @Param groupId query string false "Group filter"
// @Success 200 {array} FileInfo
// @Router /storage/files [get]
func (ctrl *StorageController) ListFiles(c *fiber.Ctx) error {
	files, err := ctrl.Service.ListFiles(c.UserContext(), middleware.CurrentUsername(c), c.Query("groupId"))
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.JSON(files)
}

func (ctrl *StorageController) DeleteFile(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteFile(c.UserContext(), middleware.CurrentUsername(c), c.Params("fileId")); err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (ctrl *StorageController) DeleteGroup(c *fiber.Ctx) error {
	n, err := ctrl.Service.DeleteGroup(c.UserContext(), middleware.CurrentUsername(c), c.Params("groupId"))
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.JSON(fiber.Map{"deleted": n})
}

// GetSession godoc
// @Summary Files received so far in an upload session
// @Tags storage
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {array} FilePair
// @Failure 404 {object} map[string]interface{}
// @Router /storage/sessions/{sessionId} [get]
func (ctrl *StorageController) GetSession(c *fiber.Ctx) error {
	pairs, err := ctrl.Service.SessionProgress(c.UserContext(), middleware.CurrentUsername(c), c.Params("sessionId"))
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.JSON(fiber.Map{"sessionId": c.Params("sessionId"), "files": pairs})
}

func (ctrl *StorageController) RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// StreamProgress pushes the caller's upload progress events until the socket closes
func (ctrl *StorageController) StreamProgress(c *websocket.Conn) {
	claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok || claims == nil {
		c.Close()
		return
	}

	events, cancel := ctrl.Hub.Subscribe(claims.Username)
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := c.WriteJSON(ev); err != nil {
				ctrl.logger.Debug("Progress stream closed", zap.String("username", claims.Username), zap.Error(err))
				return
			}
		}
	}
}
