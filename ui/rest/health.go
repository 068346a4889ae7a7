package rest

import (
	domainHealth "github.com/AzielCF/fedisched/domains/health"
	"github.com/AzielCF/fedisched/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Health struct {
	Service domainHealth.IHealthUsecase
}

func InitRestHealth(app fiber.Router, service domainHealth.IHealthUsecase) Health {
	rest := Health{Service: service}
	app.Get("/health", rest.GetHealth)
	return rest
}

func (controller *Health) GetHealth(c *fiber.Ctx) error {
	report, err := controller.Service.Check(c.UserContext())
	if err != nil {
		return c.Status(503).JSON(utils.ResponseData{
			Status:  503,
			Code:    "SERVICE_UNAVAILABLE",
			Message: err.Error(),
			Results: report,
		})
	}

	status := 200
	code := "SUCCESS"
	if report.Status != domainHealth.StatusOk {
		status = 503
		code = "SERVICE_UNAVAILABLE"
	}
	return c.Status(status).JSON(utils.ResponseData{
		Status:  status,
		Code:    code,
		Message: "Health status retrieved",
		Results: report,
	})
}
