package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"campusevents/cmd/middleware"
	"campusevents/internal/service"
)

type Routers struct {
	Service service.Service
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	apiGroup := app.Group("/v1")

	apiGroup.POST("/events", r.Service.CreateEvent)
	apiGroup.GET("/events", r.Service.GetAllEvents)
	apiGroup.GET("/events/:id", r.Service.GetInfo)

	authed := apiGroup.Group("")
	authed.Use(middleware.Identity())
	authed.POST("/events/:id/register", r.Service.Register)
	authed.POST("/payments/verify", r.Service.VerifyPayment)
	authed.GET("/registrations", r.Service.MyRegistrations)

	return app
}
