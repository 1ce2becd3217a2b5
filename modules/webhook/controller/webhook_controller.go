package controller

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"

	"chatcal-api/core/constants"
	"chatcal-api/core/controller"
	"chatcal-api/core/errors"
	"chatcal-api/core/logger"
	"chatcal-api/modules/webhook/dto"
	"chatcal-api/modules/webhook/service"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
)

const signatureHeader = "X-Line-Signature"

type WebhookController struct {
	base          controller.BaseController
	svc           *service.WebhookService
	tasks         *asynq.Client
	channelSecret string
}

func NewWebhookController(svc *service.WebhookService, tasks *asynq.Client, channelSecret string) *WebhookController {
	return &WebhookController{
		base:          controller.NewBaseController(),
		svc:           svc,
		tasks:         tasks,
		channelSecret: channelSecret,
	}
}

// HandleLine validates and records the delivery, then acknowledges fast;
// the pipeline itself runs on the task queue.
func (ctrl *WebhookController) HandleLine(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return ctrl.base.BadRequest(errors.ErrInvalidRequestData, "failed to read request body")
	}

	if !VerifySignature(ctrl.channelSecret, body, c.Request().Header.Get(signatureHeader)) {
		logger.Warn("WebhookController:HandleLine:BadSignature")
		return ctrl.base.Unauthorized(errors.ErrUnauthorized, "invalid webhook signature")
	}

	var req dto.WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return ctrl.base.BadRequest(errors.ErrInvalidRequestData, "malformed webhook payload")
	}

	for _, event := range req.Events {
		payload, appErr := ctrl.svc.Accept(ctx, event, body)
		if appErr != nil {
			// Fail the whole delivery so the platform redelivers; dedup
			// makes the replay idempotent.
			return ctrl.base.ErrorResponse(c, appErr)
		}
		if payload == nil {
			continue
		}

		taskBody, err := json.Marshal(payload)
		if err != nil {
			return ctrl.base.ErrorResponse(c, err)
		}
		task := asynq.NewTask(constants.TaskProcessWebhookEvent, taskBody)
		if _, err := ctrl.tasks.EnqueueContext(ctx, task, asynq.MaxRetry(constants.TaskMaxRetry)); err != nil {
			logger.Error("WebhookController:HandleLine:EnqueueError", "error", err, "delivery_id", payload.DeliveryID)
			return ctrl.base.ErrorResponse(c, err)
		}
	}

	return ctrl.base.SuccessResponse(c, nil, "ok")
}

// VerifySignature checks the platform HMAC-SHA256 signature over the raw
// request body.
func VerifySignature(channelSecret string, body []byte, signature string) bool {
	if channelSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
