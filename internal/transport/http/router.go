package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/skillswap/backend/internal/handlers"
	"github.com/skillswap/backend/internal/middleware"
)

type Deps struct {
	UserHandler *handlers.UserHandler
	ChatHandler *handlers.ChatHandler
	Auth        *middleware.Auth
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	user := e.Group("/user")

	user.POST("", d.UserHandler.Create)
	user.POST("/login", d.UserHandler.Login, d.Auth.RequireLocal)
	user.DELETE("/logout", d.UserHandler.Logout, d.Auth.RequireToken)
	user.PATCH("/refresh", d.UserHandler.Refresh, d.Auth.RequireToken)
	user.GET("/profile", d.UserHandler.Profile, d.Auth.RequireToken)
	user.PUT("/profile", d.UserHandler.UpdateProfile, d.Auth.RequireToken)
	user.GET("/profiles", d.UserHandler.Profiles)
	user.GET("/search", d.UserHandler.Search)

	chatroom := e.Group("/chatroom", d.Auth.RequireToken)

	chatroom.POST("/:user", d.ChatHandler.CreateRoom)
	chatroom.GET("", d.ChatHandler.Rooms)
	chatroom.GET("/:id/messages", d.ChatHandler.Messages)
	chatroom.POST("/:id/messages", d.ChatHandler.PostMessage)
	chatroom.GET("/:id/stream", d.ChatHandler.Stream)
}
