package auth

import (
	"go-cms/internal/common/api"
	"go-cms/internal/config"
	"go-cms/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuthApi struct {
	controller *AuthController
	config     *config.Config
}

func NewAuthApi(controller *AuthController, config *config.Config) api.Route {
	return &AuthApi{
		controller: controller,
		config:     config,
	}
}

func (h *AuthApi) Setup(app *fiber.App) {
	app.Post(h.config.APIPrefix+"/register", h.controller.Register)
	app.Post(h.config.APIPrefix+"/login", h.controller.Login)
	app.Get(h.config.APIPrefix+"/me", middleware.AuthMiddleware(h.config.SkipAuth), h.controller.Me)
}
