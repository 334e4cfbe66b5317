package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/i474232898/city-dashboard/internal/city"
	"github.com/i474232898/city-dashboard/internal/common"
	"github.com/i474232898/city-dashboard/internal/feed"
)

const appName = "city-dashboard"

var validate = validator.New()

// NewApp builds the Fiber app with the shared error handler, middleware,
// health endpoint and API routes.
func NewApp(service *feed.Service, selected *city.Selected) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler:          errorHandler,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} | ${locals:requestid} | ${status} | ${latency} | ${method} | ${path}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})

	RegisterRoutes(app, service, selected)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *feed.Service, selected *city.Selected) {
	v1 := app.Group("/api/v1")

	v1.Get("/city", func(c *fiber.Ctx) error {
		return c.JSON(cityResponse{City: selected.Get()})
	})

	v1.Put("/city", func(c *fiber.Ctx) error {
		var req cityRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		req.City = strings.TrimSpace(req.City)
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		changed := selected.Set(req.City)
		if changed && c.QueryBool("wait") {
			service.Wait()
		}

		return c.JSON(cityResponse{City: selected.Get(), Changed: changed})
	})

	v1.Get("/cities", func(c *fiber.Ctx) error {
		q := suggestQuery{Prefix: c.Query("prefix")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{"cities": city.Suggest(q.Prefix)})
	})

	v1.Get("/weather", feedHandler(service.Weather))
	v1.Get("/airquality", feedHandler(service.AirQuality))
	v1.Get("/news", feedHandler(service.News))
	v1.Get("/parking", feedHandler(service.Parking))

	v1.Get("/dashboard", func(c *fiber.Ctx) error {
		return c.JSON(service.Dashboard())
	})

	v1.Post("/refresh", func(c *fiber.Ctx) error {
		resp := refreshResponse{}
		if err := service.Refresh(c.UserContext()); err != nil {
			resp.Errors = splitErrors(err)
		}
		resp.Dashboard = service.Dashboard()
		return c.JSON(resp)
	})
}

// feedHandler serves the current model of one feed, or 404 until the feed
// has produced one.
func feedHandler[T any](coord *feed.Coordinator[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, ok := coord.Current()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, feed.ErrNoData.Error()+": "+coord.Name())
		}
		return c.JSON(feed.FeedState[T]{Busy: coord.Busy(), Data: &v})
	}
}

type cityRequest struct {
	City string `json:"city" validate:"required,max=100"`
}

type cityResponse struct {
	City    string `json:"city"`
	Changed bool   `json:"changed"`
}

type suggestQuery struct {
	Prefix string `validate:"max=100"`
}

type refreshResponse struct {
	feed.Dashboard
	Errors []string `json:"errors,omitempty"`
}

// splitErrors flattens a joined error into its messages.
func splitErrors(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var msgs []string
		for _, e := range joined.Unwrap() {
			if !common.IsBlank(e.Error()) {
				msgs = append(msgs, e.Error())
			}
		}
		return msgs
	}
	return []string{err.Error()}
}
