package api

import (
	"fmt"
	"strings"

	"github.com/gofiber/contrib/fiberzerolog"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// StartAPI boots the job/queue HTTP façade: accepts scan requests,
// persists a db.ScanJob row per request and runs the core engine on a
// bounded worker, the spec.md §1 "optional job/queue façade" external
// collaborator.
func StartAPI() {
	apiLogger := log.With().Str("type", "api").Logger()
	apiLogger.Info().Msg("Initializing scan job façade")

	initScanWorkerPool()

	app := fiber.New(fiber.Config{
		ServerHeader: "gqlsentinel",
		AppName:      "gqlsentinel API",
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(viper.GetStringSlice("api.cors.origins"), ","),
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	app.Use(fiberzerolog.New(fiberzerolog.Config{
		Logger: &apiLogger,
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("gqlsentinel API running")
	})

	group := app.Group("/api/v1/graphql")
	group.Post("/scans", CreateScan)
	group.Get("/scans/:id", GetScan)
	group.Get("/schema", DescribeSchema)

	listenAddr := fmt.Sprintf("%v:%v", viper.Get("api.listen.host"), viper.Get("api.listen.port"))
	if err := app.Listen(listenAddr); err != nil {
		apiLogger.Warn().Err(err).Msg("Error starting server")
	}
}
