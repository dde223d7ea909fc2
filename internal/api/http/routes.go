package httpapi

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkovalv/city-weather/internal/config"
	"github.com/mkovalv/city-weather/internal/weather"
)

// New assembles the fiber application: middleware stack, public endpoints,
// and the authenticated weather API.
func New(cfg *config.AppConfig, service *weather.Service, authmw fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "city-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          errorHandler(cfg.Development()),
	})

	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowCredentials: true,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Content-Type,Authorization",
	}))
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New())
	app.Use(recover.New())

	// Health check and metrics stay outside authentication.
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "OK",
			"message":   "Server is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api",
		limiter.New(limiter.Config{
			Max:        cfg.RateLimitMax,
			Expiration: cfg.RateLimitWindow,
			LimitReached: func(c *fiber.Ctx) error {
				return fiber.NewError(fiber.StatusTooManyRequests,
					"Too many requests from this IP, please try again later.")
			},
		}),
		authmw,
	)

	registerWeatherRoutes(api, service, cfg.CityIDs())

	// 404 fallthrough for unmatched routes.
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": fmt.Sprintf("Route %s %s not found", c.Method(), c.Path()),
		})
	})

	return app
}

// registerWeatherRoutes wires the boundary handlers. They translate between
// the external request/response shapes and the aggregation service; no
// caching or weather logic lives here.
func registerWeatherRoutes(r fiber.Router, service *weather.Service, cityIDs []int) {
	r.Get("/weather", func(c *fiber.Ctx) error {
		records, err := service.ResolveMany(c.UserContext(), cityIDs)
		if err != nil {
			return upstreamToHTTP(err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"count":   len(records),
			"data":    records,
		})
	})

	r.Get("/weather/:cityId", func(c *fiber.Ctx) error {
		cityID, err := strconv.Atoi(c.Params("cityId"))
		if err != nil || cityID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "City ID is required")
		}

		record, err := service.ResolveOne(c.UserContext(), cityID)
		if err != nil {
			return upstreamToHTTP(err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"data":    record,
		})
	})
}

// upstreamToHTTP maps provider failures onto the outward status codes:
// unknown city passes the upstream 404 through, everything else is a 502.
func upstreamToHTTP(err error) error {
	var ue *weather.UpstreamError
	if errors.As(err, &ue) {
		if ue.StatusCode == fiber.StatusNotFound {
			return fiber.NewError(fiber.StatusNotFound, ue.Message)
		}
		return fiber.NewError(fiber.StatusBadGateway, ue.Message)
	}
	return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
}

// errorHandler renders the uniform failure envelope. Internal detail of
// unexpected errors is exposed only in development mode.
func errorHandler(development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else if development {
			message = err.Error()
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   message,
		})
	}
}
