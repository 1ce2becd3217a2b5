package router

import (
	"chatcal-api/core/middleware"
	"chatcal-api/modules/colorslot/controller"

	"github.com/labstack/echo/v4"
)

type SlotsRouter struct {
	Controller *controller.SlotsController
}

func NewSlotsRouter(ctrl *controller.SlotsController) *SlotsRouter {
	return &SlotsRouter{Controller: ctrl}
}

func (r *SlotsRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	e.GET("/api/v1/slots", r.Controller.List, mw.RequireAuth)
}
