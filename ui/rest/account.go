package rest

import (
	domainAccount "github.com/AzielCF/fedisched/domains/account"
	"github.com/AzielCF/fedisched/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Account struct {
	Service domainAccount.IAccountUsecase
}

func InitRestAccount(app fiber.Router, service domainAccount.IAccountUsecase) Account {
	rest := Account{Service: service}

	app.Post("/accounts", rest.ConnectAccount)
	app.Get("/accounts", rest.ListAccounts)
	app.Delete("/accounts/:id", rest.DeleteAccount)

	return rest
}

func (controller *Account) ConnectAccount(c *fiber.Ctx) error {
	var request domainAccount.ConnectRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(400).JSON(utils.ResponseData{Status: 400, Code: "BAD_REQUEST", Message: err.Error()})
	}

	account, err := controller.Service.Connect(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.Status(fiber.StatusCreated).JSON(utils.ResponseData{
		Status:  201,
		Code:    "CREATED",
		Message: "Account connected",
		Results: account,
	})
}

func (controller *Account) ListAccounts(c *fiber.Ctx) error {
	accounts, err := controller.Service.List(c.UserContext())
	utils.PanicIfNeeded(err)

	if accounts == nil {
		accounts = []domainAccount.Account{}
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Accounts fetched",
		Results: accounts,
	})
}

func (controller *Account) DeleteAccount(c *fiber.Ctx) error {
	err := controller.Service.Delete(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Account deleted",
	})
}
