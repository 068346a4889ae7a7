package rest

import (
	domainPost "github.com/AzielCF/fedisched/domains/post"
	"github.com/AzielCF/fedisched/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Post struct {
	Service domainPost.IPostUsecase
}

func InitRestPost(app fiber.Router, service domainPost.IPostUsecase) Post {
	rest := Post{Service: service}

	app.Post("/posts", rest.CreatePosts)
	app.Get("/posts", rest.ListPosts)
	app.Post("/posts/:id/retry", rest.RetryPost)
	app.Delete("/posts/:id", rest.DeletePost)

	return rest
}

func (controller *Post) CreatePosts(c *fiber.Ctx) error {
	var request domainPost.CreateRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(400).JSON(utils.ResponseData{Status: 400, Code: "BAD_REQUEST", Message: err.Error()})
	}

	created, err := controller.Service.Create(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.Status(fiber.StatusCreated).JSON(utils.ResponseData{
		Status:  201,
		Code:    "CREATED",
		Message: "Post(s) scheduled",
		Results: created,
	})
}

func (controller *Post) ListPosts(c *fiber.Ctx) error {
	filter := domainPost.ListFilter{
		Status: c.Query("status"),
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}

	posts, err := controller.Service.List(c.UserContext(), filter)
	utils.PanicIfNeeded(err)

	if posts == nil {
		posts = []domainPost.ScheduledPost{}
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Posts fetched",
		Results: posts,
	})
}

func (controller *Post) RetryPost(c *fiber.Ctx) error {
	post, err := controller.Service.Retry(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Post re-armed for delivery",
		Results: post,
	})
}

func (controller *Post) DeletePost(c *fiber.Ctx) error {
	err := controller.Service.Delete(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Post deleted",
	})
}
