package controller

import (
	"voice-ordering-be/internal/pkg/serverutils"
	"voice-ordering-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMenuController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	GetCategories(ctx *fiber.Ctx) error
	GetByCategory(ctx *fiber.Ctx) error
}

type menuController struct {
	menuService service.IMenuService
}

func NewMenuController(menuService service.IMenuService) IMenuController {
	return &menuController{
		menuService: menuService,
	}
}

func (c *menuController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/menu")
	h.Get("", c.GetAll)
	h.Get("categories", c.GetCategories)
	h.Get("category/:category", c.GetByCategory)
}

func (c *menuController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.menuService.GetAll(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get menu", res))
}

func (c *menuController) GetCategories(ctx *fiber.Ctx) error {
	res, err := c.menuService.GetCategories(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get categories", res))
}

func (c *menuController) GetByCategory(ctx *fiber.Ctx) error {
	category := ctx.Params("category")
	res, err := c.menuService.GetByCategory(ctx.Context(), category)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get menu by category", res))
}
