package httpapi

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/sunwatch/suntimes-service/internal/suntimes"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *suntimes.Service) {
	v1 := app.Group("/api/v1")

	v1.Post("/sun_times", func(c *fiber.Ctx) error {
		var req createRequest
		if err := c.BodyParser(&req); err != nil {
			return newAPIError(fiber.StatusBadRequest, "MISSING_PARAMETER", "request body must be valid JSON")
		}
		if err := req.validateRequired(); err != nil {
			return err
		}

		start, end, err := req.parseDates()
		if err != nil {
			return err
		}

		records, err := service.Reconcile(c.Context(), req.Location, start, end)
		if err != nil {
			log.Printf("ERROR: reconciliation failed for %q: %v", req.Location, err)
			return mapDomainError(err)
		}

		return c.JSON(recordListResponse(records))
	})

	v1.Get("/sun_times", func(c *fiber.Ctx) error {
		filter, err := parseListQuery(c)
		if err != nil {
			return err
		}

		records, err := service.List(filter)
		if err != nil {
			log.Printf("ERROR: list failed: %v", err)
			return mapDomainError(err)
		}

		return c.JSON(recordListResponse(records))
	})

	v1.Get("/sun_times/:id", func(c *fiber.Ctx) error {
		record, err := service.Get(c.Params("id"))
		if err != nil {
			return mapDomainError(err)
		}
		return c.JSON(fiber.Map{"record": newRecordResponse(record)})
	})

	v1.Delete("/sun_times/:id", func(c *fiber.Ctx) error {
		if err := service.Delete(c.Params("id")); err != nil {
			return mapDomainError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// createRequest is the POST /sun_times body.
type createRequest struct {
	Location  string `json:"location" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

func (r *createRequest) validateRequired() error {
	r.Location = strings.TrimSpace(r.Location)
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := strings.ToLower(verrs[0].Field())
			return newAPIError(fiber.StatusBadRequest, "MISSING_PARAMETER",
				fmt.Sprintf("Missing required parameter: %s", jsonFieldName(field)))
		}
		return newAPIError(fiber.StatusBadRequest, "MISSING_PARAMETER", err.Error())
	}
	return nil
}

func jsonFieldName(field string) string {
	switch field {
	case "startdate":
		return "start_date"
	case "enddate":
		return "end_date"
	default:
		return field
	}
}

func (r *createRequest) parseDates() (start, end time.Time, err error) {
	start, err = suntimes.ParseDate(r.StartDate)
	if err != nil {
		return start, end, newAPIError(fiber.StatusBadRequest, "INVALID_DATE_RANGE",
			fmt.Sprintf("invalid start_date %q, expected YYYY-MM-DD", r.StartDate))
	}
	end, err = suntimes.ParseDate(r.EndDate)
	if err != nil {
		return start, end, newAPIError(fiber.StatusBadRequest, "INVALID_DATE_RANGE",
			fmt.Sprintf("invalid end_date %q, expected YYYY-MM-DD", r.EndDate))
	}
	if end.Before(start) {
		return start, end, newAPIError(fiber.StatusBadRequest, "INVALID_DATE_RANGE",
			"End date cannot be before start date")
	}
	return start, end, nil
}

func parseListQuery(c *fiber.Ctx) (suntimes.ListFilter, error) {
	filter := suntimes.ListFilter{
		Location: c.Query("location"),
	}

	startStr := c.Query("start_date")
	endStr := c.Query("end_date")
	if startStr != "" && endStr != "" {
		start, err := suntimes.ParseDate(startStr)
		if err != nil {
			return filter, newAPIError(fiber.StatusBadRequest, "INVALID_DATE_RANGE",
				fmt.Sprintf("invalid start_date %q, expected YYYY-MM-DD", startStr))
		}
		end, err := suntimes.ParseDate(endStr)
		if err != nil {
			return filter, newAPIError(fiber.StatusBadRequest, "INVALID_DATE_RANGE",
				fmt.Sprintf("invalid end_date %q, expected YYYY-MM-DD", endStr))
		}
		filter.Start = start
		filter.End = end
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	return filter, nil
}

// recordResponse is a SunTimeRecord plus the derived fields clients chart
// with: a plain formatted date, day length in minutes, and the polar flag.
type recordResponse struct {
	suntimes.SunTimeRecord
	FormattedDate    string   `json:"formatted_date"`
	DayLengthMinutes *float64 `json:"day_length_minutes"`
	IsPolarRegion    bool     `json:"is_polar_region"`
}

func newRecordResponse(record suntimes.SunTimeRecord) recordResponse {
	return recordResponse{
		SunTimeRecord:    record,
		FormattedDate:    suntimes.DayKey(record.Date),
		DayLengthMinutes: dayLengthMinutes(record.DayLength),
		IsPolarRegion:    record.IsPolarRegion(),
	}
}

func recordListResponse(records []suntimes.SunTimeRecord) fiber.Map {
	out := make([]recordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, newRecordResponse(r))
	}
	return fiber.Map{
		"records": out,
		"count":   len(out),
	}
}

// dayLengthMinutes converts an "HH:MM:SS" duration to minutes, nil when the
// value is absent or not in that shape.
func dayLengthMinutes(dayLength string) *float64 {
	if dayLength == "" {
		return nil
	}
	parts := strings.Split(dayLength, ":")
	if len(parts) < 3 {
		return nil
	}

	var nums [3]int
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return nil
		}
		nums[i] = n
	}

	minutes := float64(nums[0]*60) + float64(nums[1]) + float64(nums[2])/60.0
	return &minutes
}
