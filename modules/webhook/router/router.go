package router

import (
	"chatcal-api/modules/webhook/controller"

	"github.com/labstack/echo/v4"
)

type WebhookRouter struct {
	Controller *controller.WebhookController
}

func NewWebhookRouter(ctrl *controller.WebhookController) *WebhookRouter {
	return &WebhookRouter{Controller: ctrl}
}

func (r *WebhookRouter) Setup(e *echo.Echo) {
	e.POST("/webhook/line", r.Controller.HandleLine)
}
