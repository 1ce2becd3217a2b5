package colorslot

import (
	"context"
	"fmt"

	corecache "chatcal-api/core/cache"
	"chatcal-api/core/config"
	"chatcal-api/core/constants"
	"chatcal-api/core/database"
	"chatcal-api/core/googleauth"
	"chatcal-api/core/middleware"
	rowcache "chatcal-api/modules/colorslot/cache"
	"chatcal-api/modules/colorslot/controller"
	"chatcal-api/modules/colorslot/lock"
	"chatcal-api/modules/colorslot/router"
	"chatcal-api/modules/colorslot/service"
	"chatcal-api/modules/colorslot/store"

	"github.com/gosimple/slug"
	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database, c corecache.Cache) error {
	st, err := newStore(&db)
	if err != nil {
		return err
	}

	ctrl := controller.NewSlotsController(st)
	mw := middleware.NewMiddleware(config.Get().JWTSecret)
	router.NewSlotsRouter(ctrl).Setup(e, mw)
	return nil
}

// GetResolver wires a label resolver against the configured table backend,
// sharing the deployment-wide redis cache and allocation lock.
func GetResolver(db database.Database, c corecache.Cache) (service.LabelResolver, error) {
	st, err := newStore(&db)
	if err != nil {
		return nil, err
	}

	ns := namespace(config.Get())
	rc := rowcache.NewRedisRowCache(c, constants.RedisKeyRowCachePrefix+ns)
	lk := lock.NewRedisLock(c, constants.RedisKeyAllocLockPrefix+ns)

	return service.NewLabelResolver(st, rc, lk), nil
}

func newStore(db database.IDatabase) (store.TabularStore, error) {
	cfg := config.Get()

	switch cfg.ColorStoreBackend {
	case "postgres":
		return store.NewSQLStore(db), nil
	case "sheets":
		client, err := googleauth.NewServiceClient(context.Background(),
			cfg.GoogleCredentialsFile, googleauth.ScopeSpreadsheets)
		if err != nil {
			return nil, err
		}
		return store.NewSheetStore(client, cfg.SpreadsheetID, cfg.SheetName), nil
	default:
		return nil, fmt.Errorf("unknown COLOR_STORE_BACKEND %q", cfg.ColorStoreBackend)
	}
}

// namespace scopes redis keys so deployments sharing a redis but pointing
// at different tables cannot collide.
func namespace(cfg *config.Config) string {
	if cfg.ColorStoreBackend == "postgres" {
		return slug.Make(cfg.DBName + "-color-slots")
	}
	return slug.Make(cfg.SpreadsheetID + "-" + cfg.SheetName)
}
