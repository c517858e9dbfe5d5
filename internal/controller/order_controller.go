package controller

import (
	"voice-ordering-be/internal/dto"
	"voice-ordering-be/internal/pkg/serverutils"
	"voice-ordering-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IOrderController interface {
	RegisterRoutes(r fiber.Router)
	ProcessAudio(ctx *fiber.Ctx) error
	AddToBasket(ctx *fiber.Ctx) error
	RemoveFromBasket(ctx *fiber.Ctx) error
}

type orderController struct {
	orderService service.IOrderService
}

func NewOrderController(orderService service.IOrderService) IOrderController {
	return &orderController{
		orderService: orderService,
	}
}

func (c *orderController) RegisterRoutes(r fiber.Router) {
	audio := r.Group("/audio")
	audio.Post("process", c.ProcessAudio)

	basket := r.Group("/basket")
	basket.Post("add", c.AddToBasket)
	basket.Post("remove", c.RemoveFromBasket)
}

func (c *orderController) ProcessAudio(ctx *fiber.Ctx) error {
	var req dto.AudioRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.orderService.ProcessAudio(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process audio", res))
}

func (c *orderController) AddToBasket(ctx *fiber.Ctx) error {
	var req dto.BasketActionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.orderService.AddToBasket(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success add to basket", res))
}

func (c *orderController) RemoveFromBasket(ctx *fiber.Ctx) error {
	var req dto.BasketActionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.orderService.RemoveFromBasket(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success remove from basket", res))
}
