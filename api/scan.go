package api

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/pyneda/gqlsentinel/db"
	"github.com/pyneda/gqlsentinel/pkg/graphqlaudit"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gorm.io/datatypes"
)

var validate = validator.New()

var (
	scanSemOnce sync.Once
	scanSem     chan struct{}
)

// initScanWorkerPool bounds how many scans run concurrently on the
// façade, mirroring the core engine's own bounded concurrency (spec.md
// §5) rather than letting every HTTP request spawn an unbounded scan.
func initScanWorkerPool() {
	scanSemOnce.Do(func() {
		size := viper.GetInt("jobs.queue_concurrency")
		if size < 1 {
			size = 5
		}
		scanSem = make(chan struct{}, size)
	})
}

// CreateScanInput is the request body for POST /api/v1/graphql/scans.
type CreateScanInput struct {
	URL          string                     `json:"url" validate:"required,url"`
	UserContexts []graphqlaudit.UserContext `json:"user_contexts" validate:"required,min=1,dive"`
	BolaConfig   graphqlaudit.BolaConfig    `json:"bola_config,omitempty"`
}

// CreateScanResponse is returned immediately on enqueue.
type CreateScanResponse struct {
	ID     uint   `json:"id"`
	Status string `json:"status"`
}

// CreateScan godoc
// @Summary Enqueue a GraphQL BOLA/DoS scan
// @Description Creates a scan job row and runs the scan engine on a bounded worker
// @Tags GraphQL
// @Accept json
// @Produce json
// @Param input body CreateScanInput true "Scan target"
// @Success 202 {object} CreateScanResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/graphql/scans [post]
func CreateScan(c *fiber.Ctx) error {
	initScanWorkerPool()

	input := new(CreateScanInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(NewErrorResponse("Cannot parse JSON", err.Error()))
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(NewErrorResponse("Validation failed", err.Error()))
	}

	job, err := db.Connection().CreateScanJob(input.URL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create scan job")
		return c.Status(fiber.StatusInternalServerError).JSON(NewErrorResponse("Failed to create scan job", err.Error()))
	}

	target := graphqlaudit.ScanTarget{
		URL:          input.URL,
		UserContexts: input.UserContexts,
		BolaConfig:   input.BolaConfig,
	}

	go runQueuedScan(job.ID, target)

	return c.Status(fiber.StatusAccepted).JSON(CreateScanResponse{ID: job.ID, Status: string(db.ScanJobStatusQueued)})
}

func runQueuedScan(jobID uint, target graphqlaudit.ScanTarget) {
	scanSem <- struct{}{}
	defer func() { <-scanSem }()

	startedAt := time.Now()
	result := graphqlaudit.RunScan(context.Background(), target)

	findingsJSON, err := encodeFindings(result.Findings)
	if err != nil {
		log.Error().Err(err).Uint("job_id", jobID).Msg("Failed to encode findings")
	}

	status := db.ScanJobStatusCompleted
	if result.Status == graphqlaudit.ScanStatusFailed {
		status = db.ScanJobStatusFailed
	}

	if err := db.Connection().UpdateScanJob(jobID, status, findingsJSON, result.Error, startedAt, time.Now()); err != nil {
		log.Error().Err(err).Uint("job_id", jobID).Msg("Failed to persist scan result")
	}
}

// GetScan godoc
// @Summary Fetch a scan job by id
// @Tags GraphQL
// @Produce json
// @Param id path int true "Scan job id"
// @Success 200 {object} db.ScanJob
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/graphql/scans/{id} [get]
func GetScan(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(NewErrorResponse("Invalid scan id"))
	}

	job, err := db.Connection().GetScanJob(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(NewErrorResponse("Scan job not found"))
	}

	return c.Status(fiber.StatusOK).JSON(job)
}

// DescribeSchemaInput is the request body for GET /api/v1/graphql/schema.
type DescribeSchemaInput struct {
	URL     string            `json:"url" validate:"required,url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// DescribeSchemaResponse summarizes a remote schema's introspection shape.
type DescribeSchemaResponse struct {
	QueryFieldCount    int `json:"query_field_count"`
	MutationFieldCount int `json:"mutation_field_count"`
	TypeCount          int `json:"type_count"`
}

// DescribeSchema godoc
// @Summary Fetch and summarize a remote GraphQL schema via introspection
// @Description Read-only extension of the schema fetcher: reports introspection field/type counts without probing BOLA or DoS
// @Tags GraphQL
// @Accept json
// @Produce json
// @Param input body DescribeSchemaInput true "Target URL and headers"
// @Success 200 {object} DescribeSchemaResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/graphql/schema [get]
func DescribeSchema(c *fiber.Ctx) error {
	input := new(DescribeSchemaInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(NewErrorResponse("Cannot parse JSON", err.Error()))
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(NewErrorResponse("Validation failed", err.Error()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	transport := graphqlaudit.NewTransport()
	schema, findings := graphqlaudit.FetchSchema(ctx, transport, input.URL, input.Headers)
	if schema == nil {
		msg := "introspection unavailable"
		if len(findings) > 0 {
			msg = findings[0].Description
		}
		return c.Status(fiber.StatusBadRequest).JSON(NewErrorResponse("Failed to fetch schema", msg))
	}

	return c.Status(fiber.StatusOK).JSON(DescribeSchemaResponse{
		QueryFieldCount:    len(schema.QueryFields),
		MutationFieldCount: len(schema.MutationFields),
		TypeCount:          len(schema.Types),
	})
}

func encodeFindings(findings []graphqlaudit.VulnerabilityFinding) (datatypes.JSON, error) {
	raw, err := json.Marshal(findings)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
