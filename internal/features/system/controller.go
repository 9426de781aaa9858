package system

import (
	"context"
	"time"

	"go-cms/internal/config"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const checkTimeout = 3 * time.Second

type HealthReport struct {
	Status string            `json:"status"`
	App    string            `json:"app"`
	Checks map[string]string `json:"checks"`
}

type SystemController struct {
	checks []Check
	appID  string
	logger *zap.Logger
}

func NewSystemController(checks []Check, cfg *config.Config, logger *zap.Logger) *SystemController {
	return &SystemController{
		checks: checks,
		appID:  cfg.AppId,
		logger: logger,
	}
}

// Health godoc
// @Summary Report dependency health
// @Tags system
// @Produce json
// @Success 200 {object} HealthReport
// @Failure 503 {object} HealthReport
// @Router /health [get]
func (ctrl *SystemController) Health(c *fiber.Ctx) error {
	report := HealthReport{Status: "ok", App: ctrl.appID, Checks: map[string]string{}}

	for _, check := range ctrl.checks {
		ctx, cancel := context.WithTimeout(c.UserContext(), checkTimeout)
		err := check.Ping(ctx)
		cancel()

		if err != nil {
			ctrl.logger.Warn("Health check failed", zap.String("check", check.Name), zap.Error(err))
			report.Status = "degraded"
			report.Checks[check.Name] = err.Error()
			continue
		}
		report.Checks[check.Name] = "ok"
	}

	if report.Status != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(report)
	}
	return c.JSON(report)
}
