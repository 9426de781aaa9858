package auth

import (
	"go-cms/internal/common/api"
	"go-cms/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthController struct {
	Service AuthService
	logger  *zap.Logger
}

func NewAuthController(service AuthService, logger *zap.Logger) *AuthController {
	return &AuthController{
		Service: service,
		logger:  logger,
	}
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Account"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /register [post]
func (ctrl *AuthController) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := api.BindAndValidate(c, &req); err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}

	resp, err := ctrl.Service.Register(c.UserContext(), req)
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login godoc
// @Summary Log in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} map[string]interface{}
// @Router /login [post]
func (ctrl *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := api.BindAndValidate(c, &req); err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}

	resp, err := ctrl.Service.Login(c.UserContext(), req)
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.JSON(resp)
}

func (ctrl *AuthController) Me(c *fiber.Ctx) error {
	user, err := ctrl.Service.Me(c.UserContext(), middleware.CurrentUsername(c))
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.JSON(user)
}
