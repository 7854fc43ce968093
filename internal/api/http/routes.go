package httpapi

import (
	"errors"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/weatherdeck/weatherdeck/internal/forecast"
	"github.com/weatherdeck/weatherdeck/internal/prefs"
	"github.com/weatherdeck/weatherdeck/internal/resolve"
	"github.com/weatherdeck/weatherdeck/internal/weather"
)

var (
	validate   = validator.New()
	titleCaser = cases.Title(language.English)
)

// RegisterRoutes wires the HTTP handlers into the Fiber app. The routes
// expose the view-layer inputs: the resolution state, the forecast window,
// and the settings and saved-location surfaces.
func RegisterRoutes(app *fiber.App, resolver *resolve.Resolver, forecasts *forecast.Service, store *prefs.Store) {
	v1 := app.Group("/api/v1")

	v1.Get("/state", func(c *fiber.Ctx) error {
		return c.JSON(statePayload(resolver.State(), store))
	})

	v1.Post("/search", func(c *fiber.Ctx) error {
		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		resolver.Search(req.Query)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "resolving"})
	})

	v1.Post("/locate", func(c *fiber.Ctx) error {
		resolver.RequestDeviceLocation()
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "resolving"})
	})

	v1.Post("/dismiss", func(c *fiber.Ctx) error {
		resolver.DismissError()
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		req := forecastQuery{Mode: c.Query("mode", string(weather.Daily))}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var coords weather.Coordinates
		if st := resolver.State(); st.Conditions != nil {
			coords = st.Conditions.Coords
		}

		window, err := forecasts.Window(c.Context(), coords, store.Units(), weather.WindowMode(req.Mode))
		if err != nil {
			return fiber.NewError(statusForKind(weather.KindOf(err)), "failed to fetch forecast data")
		}
		return c.JSON(window)
	})

	v1.Put("/settings/units", func(c *fiber.Ctx) error {
		var req unitsRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		resolver.SetUnits(weather.UnitSystem(req.Units))
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Put("/settings/theme", func(c *fiber.Ctx) error {
		var req themeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		store.SetTheme(prefs.Theme(req.Theme))
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/locations", func(c *fiber.Ctx) error {
		p := store.Snapshot()
		if p.SavedLocations == nil {
			p.SavedLocations = []string{}
		}
		return c.JSON(fiber.Map{"locations": p.SavedLocations})
	})

	v1.Delete("/locations/:name", func(c *fiber.Ctx) error {
		name, err := url.PathUnescape(c.Params("name"))
		if err != nil || name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "invalid location name")
		}
		if !store.RemoveSavedLocation(name) {
			return fiber.NewError(fiber.StatusNotFound, "location is not saved")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

type searchRequest struct {
	Query string `json:"q" validate:"required,min=1"`
}

type forecastQuery struct {
	Mode string `validate:"required,oneof=hourly daily"`
}

type unitsRequest struct {
	Units string `json:"units" validate:"required,oneof=metric imperial"`
}

type themeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

// conditionsView decorates CurrentConditions with display-oriented fields.
type conditionsView struct {
	weather.CurrentConditions
	DisplayDescription string `json:"displayDescription"`
	IconClass          string `json:"iconClass"`
}

func statePayload(st resolve.State, store *prefs.Store) fiber.Map {
	payload := fiber.Map{
		"conditions": nil,
		"loading":    st.Loading,
		"error":      st.Error,
		"units":      store.Units(),
		"theme":      store.Theme(),
	}
	if st.Conditions != nil {
		payload["conditions"] = conditionsView{
			CurrentConditions:  *st.Conditions,
			DisplayDescription: titleCaser.String(st.Conditions.Description),
			IconClass:          st.Conditions.Condition.IconClass(),
		}
	}
	return payload
}

// statusForKind maps the error taxonomy onto HTTP statuses for the forecast
// endpoint; resolution errors surface through /state instead.
func statusForKind(kind weather.ErrorKind) int {
	switch kind {
	case weather.KindNotFound:
		return fiber.StatusNotFound
	case weather.KindTimedOut:
		return fiber.StatusGatewayTimeout
	case weather.KindUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusBadGateway
	}
}

// ErrorHandler is the centralized fiber error responder.
func ErrorHandler(c *fiber.Ctx, err error) error {
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
