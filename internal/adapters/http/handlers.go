package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/placeshare/internal/core/usecases"
)

type createPlaceRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required,min=5"`
	Address     string `json:"address" validate:"required"`
	Creator     string `json:"creator" validate:"required"`
	Image       string `json:"image" validate:"omitempty,url"`
}

type updatePlaceRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required,min=5"`
}

// GetPlaceHandler returns a single place by id.
func GetPlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		place, err := deps.Places.GetByID(c.UserContext(), c.Params("pid"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"place": place})
	}
}

// PlacesByUserHandler returns the places a user created, in the order they were added.
func PlacesByUserHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		places, err := deps.Places.ListByUser(c.UserContext(), c.Params("uid"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"places": places})
	}
}

// CreatePlaceHandler geocodes the address and stores a new place for its creator.
func CreatePlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createPlaceRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		place, err := deps.Places.Create(c.UserContext(), usecases.CreatePlaceInput{
			Title:       req.Title,
			Description: req.Description,
			Address:     req.Address,
			CreatorID:   req.Creator,
			Image:       req.Image,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"place": place})
	}
}

// UpdatePlaceHandler changes a place's title and description.
func UpdatePlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req updatePlaceRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		place, err := deps.Places.Update(c.UserContext(), c.Params("pid"), req.Title, req.Description)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"place": place})
	}
}

// DeletePlaceHandler removes a place and detaches it from its creator.
func DeletePlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Places.Delete(c.UserContext(), c.Params("pid")); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": usecases.MsgPlaceDeleted})
	}
}
