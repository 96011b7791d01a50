package httpapi

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/env-risk-correlator/internal/air"
	"github.com/i474232898/env-risk-correlator/internal/lifeexp"
	"github.com/i474232898/env-risk-correlator/internal/risk"
	"github.com/i474232898/env-risk-correlator/internal/store"
	"github.com/i474232898/env-risk-correlator/internal/vitals"
)

var validate = validator.New()

// Services are the operations exposed over HTTP. Estimator may be nil.
type Services struct {
	Air        *air.Service
	Scorer     *risk.Scorer
	Vitals     vitals.Dataset
	Correlator *lifeexp.Correlator
	Estimator  air.TreeEstimator
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc Services) {
	v1 := app.Group("/api/v1")

	v1.Get("/air/bands", func(c *fiber.Ctx) error {
		q := aqiQuery{AQI: strings.TrimSpace(c.Query("aqi"))}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "aqi must be a non-negative integer")
		}
		aqi, err := strconv.Atoi(q.AQI)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "aqi must be a non-negative integer")
		}
		return c.JSON(fiber.Map{"aqi": aqi, "band": air.Classify(aqi)})
	})

	v1.Post("/air/readings", func(c *fiber.Ctx) error {
		region, err := parseRegion(c)
		if err != nil {
			return err
		}
		reading, err := svc.Air.Ingest(c.UserContext(), region)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(reading)
	})

	v1.Get("/air/latest", func(c *fiber.Ctx) error {
		region, err := parseRegion(c)
		if err != nil {
			return err
		}
		analysis, err := svc.Air.AnalyzeLatest(region)
		if err != nil {
			return err
		}
		return c.JSON(analysis)
	})

	v1.Get("/air/measures", func(c *fiber.Ctx) error {
		region, err := parseRegion(c)
		if err != nil {
			return err
		}
		measures, err := svc.Air.Measures(c.UserContext(), region, svc.Estimator)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"region": air.NormalizeRegion(region), "measures": measures})
	})

	v1.Get("/environment/stress", func(c *fiber.Ctx) error {
		region, err := parseRegion(c)
		if err != nil {
			return err
		}
		stress, err := svc.Scorer.Stress(region)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"region": air.NormalizeRegion(region), "environmental_stress_pct": stress})
	})

	v1.Get("/health/risk", func(c *fiber.Ctx) error {
		region, err := parseRegion(c)
		if err != nil {
			return err
		}
		hr, err := svc.Scorer.HealthRisk(region)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"region": air.NormalizeRegion(region), "health_risk_pct": hr})
	})

	v1.Get("/health/vitals", func(c *fiber.Ctx) error {
		region, err := parseRegion(c)
		if err != nil {
			return err
		}
		assessments, err := vitals.AssessRegion(svc.Vitals, region)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"region": air.NormalizeRegion(region), "records": assessments})
	})

	v1.Post("/correlations", func(c *fiber.Ctx) error {
		region, err := parseRegion(c)
		if err != nil {
			return err
		}
		report, err := svc.Correlator.Correlate(region)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(report)
	})

	v1.Get("/correlations", func(c *fiber.Ctx) error {
		reports, err := svc.Correlator.Reports(c.Query("region"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"reports": reports})
	})
}

// ErrorHandler renders errors as JSON and maps domain errors to statuses.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := StatusOf(err)
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// StatusOf maps an error to its HTTP status code.
func StatusOf(err error) int {
	var fe *fiber.Error
	var schemaErr *store.SchemaError
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, air.ErrNotFound),
		errors.Is(err, air.ErrDataUnavailable),
		errors.Is(err, vitals.ErrNotFound),
		errors.Is(err, lifeexp.ErrNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &schemaErr), errors.Is(err, risk.ErrIncompleteReading):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// regionQuery holds the region query parameter shared by most endpoints.
type regionQuery struct {
	Region string `validate:"required,max=128"`
}

type aqiQuery struct {
	AQI string `validate:"required,number"`
}

func parseRegion(c *fiber.Ctx) (string, error) {
	q := regionQuery{Region: strings.TrimSpace(c.Query("region"))}
	if err := validate.Struct(q); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "region query parameter is required")
	}
	return q.Region, nil
}
