package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/placeshare/internal/core/usecases"
)

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Image    string `json:"image" validate:"omitempty,url"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ListUsersHandler returns every registered user.
func ListUsersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := deps.Users.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"users": users})
	}
}

func SignupHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req signupRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		user, err := deps.Users.Signup(c.UserContext(), usecases.SignupInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Image:    req.Image,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
	}
}

func LoginHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		user, err := deps.Users.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": usecases.MsgLoggedIn, "user": user})
	}
}
