package endpoint

import (
	"go-cms/internal/common/api"
	"go-cms/internal/common/apperror"
	"go-cms/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type EndpointController struct {
	Service EndpointService
	logger  *zap.Logger
}

func NewEndpointController(service EndpointService, logger *zap.Logger) *EndpointController {
	return &EndpointController{
		Service: service,
		logger:  logger,
	}
}

// ListEndpoints godoc
// @Summary List my endpoints
// @Tags endpoints
// @Produce json
// @Success 200 {array} Endpoint
// @Router /endpoints [get]
func (ctrl *EndpointController) ListEndpoints(c *fiber.Ctx) error {
	endpoints, err := ctrl.Service.FindEndpointsByUsername(c.UserContext(), middleware.CurrentUsername(c))
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.JSON(endpoints)
}

func (ctrl *EndpointController) GetEndpoint(c *fiber.Ctx) error {
	e, err := ctrl.Service.FindEndpointBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	if e.Username != middleware.CurrentUsername(c) {
		return api.RespondError(c, ctrl.logger, apperror.ErrForbidden)
	}
	return c.JSON(e)
}

// UpdateEndpoint godoc
// @Summary Change how a collection is exposed
// @Tags endpoints
// @Accept json
// @Produce json
// @Param slug path string true "Collection slug"
// @Param body body EndpointPatch true "Fields to change"
// @Success 200 {object} Endpoint
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /endpoints/{slug} [patch]
func (ctrl *EndpointController) UpdateEndpoint(c *fiber.Ctx) error {
	var patch EndpointPatch
	if err := api.BindAndValidate(c, &patch); err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}

	e, err := ctrl.Service.UpdateEndpoint(c.UserContext(), middleware.CurrentUsername(c), c.Params("slug"), patch)
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.JSON(e)
}
