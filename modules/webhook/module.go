package webhook

import (
	"context"

	corecache "chatcal-api/core/cache"
	"chatcal-api/core/config"
	"chatcal-api/core/constants"
	"chatcal-api/core/database"
	"chatcal-api/core/googleauth"
	"chatcal-api/core/logger"
	"chatcal-api/core/storage"
	calendarService "chatcal-api/modules/calendar/service"
	"chatcal-api/modules/colorslot"
	parserService "chatcal-api/modules/parser/service"
	"chatcal-api/modules/webhook/controller"
	"chatcal-api/modules/webhook/repository"
	"chatcal-api/modules/webhook/router"
	"chatcal-api/modules/webhook/service"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
)

// Init wires the ingress pipeline and returns the task worker pieces for
// the server to run.
func Init(e *echo.Echo, db database.Database, c corecache.Cache) (*asynq.Server, *asynq.ServeMux, error) {
	cfg := config.Get()

	resolver, err := colorslot.GetResolver(db, c)
	if err != nil {
		return nil, nil, err
	}

	calendarClient, err := googleauth.NewServiceClient(context.Background(),
		cfg.GoogleCredentialsFile, googleauth.ScopeCalendar)
	if err != nil {
		return nil, nil, err
	}

	var archive storage.Uploader
	if cfg.S3Bucket != "" {
		archive, err = storage.NewS3Uploader(cfg)
		if err != nil {
			return nil, nil, err
		}
	} else {
		logger.Info("Webhook payload archiving disabled; S3_BUCKET not set")
	}

	repo := repository.NewWebhookDeliveryRepository(&db)
	parser := parserService.NewParserService(cfg.GeminiAPIKey, cfg.GeminiModel)
	calendar := calendarService.NewCalendarService(calendarClient, cfg.GoogleCalendarID)
	svc := service.NewWebhookService(repo, parser, calendar, resolver, archive, cfg.LineChannelToken)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	tasks := asynq.NewClient(redisOpt)

	ctrl := controller.NewWebhookController(svc, tasks, cfg.LineChannelSecret)
	router.NewWebhookRouter(ctrl).Setup(e)

	mux := asynq.NewServeMux()
	mux.HandleFunc(constants.TaskProcessWebhookEvent, svc.HandleProcessEventTask)

	worker := asynq.NewServer(redisOpt, asynq.Config{Concurrency: 5})
	return worker, mux, nil
}
