package graphqlaudit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RunScan is the core's single entry point: it sequences connectivity
// check -> schema fetch -> DoS probes -> BOLA probes, aggregates
// findings and seals the result, per spec.md §4.8. It never panics
// across the boundary: any unexpected failure inside the probe
// pipeline is recovered and turned into a Failed status with a fatal
// finding.
func RunScan(ctx context.Context, target ScanTarget) (result ScanResult) {
	scanLog := log.With().Str("scan_phase", "orchestrator").Str("url", target.URL).Logger()

	result = ScanResult{
		ScanID:    uuid.NewString(),
		Target:    target,
		StartedAt: time.Now(),
	}

	defer func() {
		if r := recover(); r != nil {
			scanLog.Error().Interface("panic", r).Msg("unexpected failure during scan")
			result.Status = ScanStatusFailed
			result.Error = fmt.Sprintf("Error Fatal Durante el Escaneo: %v", r)
			result.Findings = append(result.Findings, NewFinding(
				SeverityCritical,
				"Error Fatal Durante el Escaneo",
				fmt.Sprintf("Ocurrió un error no controlado durante el escaneo: %v", r),
				"Revisar los registros del escaneo y reportar el fallo.",
				nil,
			))
			result.CompletedAt = time.Now()
		}
	}()

	transport := NewTransport()
	firstHeaders := headersFor(target.UserContexts, 0)

	scanLog.Info().Msg("checking connectivity")
	if _, transportErr := transport.Post(ctx, target.URL, "{ __typename }", firstHeaders, connectivityTimeout()); transportErr != nil {
		result.Status = ScanStatusFailed
		result.Error = fmt.Sprintf("No se pudo conectar a %s. Verifique la URL y la conectividad de red: %s", target.URL, transportErr.Error())
		result.CompletedAt = time.Now()
		scanLog.Error().Err(transportErr).Msg("connectivity check failed")
		return result
	}

	sink := newFindingSink()

	scanLog.Info().Msg("fetching schema")
	schema, schemaFindings := FetchSchema(ctx, transport, target.URL, firstHeaders)
	for _, f := range schemaFindings {
		sink.add(f)
	}

	if cancelled(ctx, &result, sink, scanLog) {
		return result
	}

	scanLog.Info().Msg("running DoS probes")
	RunDoSProbes(ctx, transport, target.URL, firstHeaders, schema, sink)

	if cancelled(ctx, &result, sink, scanLog) {
		return result
	}

	scanLog.Info().Msg("running BOLA probes")
	RunBOLAProbes(ctx, transport, target.URL, target, schema, sink)

	result.Status = ScanStatusCompleted
	result.Findings = sink.all()
	result.CompletedAt = time.Now()
	scanLog.Info().Int("findings", len(result.Findings)).Msg("scan completed")
	return result
}

// cancelled checks the host-provided cancellation signal between
// phases; on cancellation it seals the partial finding set into result
// and returns true so RunScan stops issuing new probes at the next
// boundary, per spec.md §5.
func cancelled(ctx context.Context, result *ScanResult, sink *findingSink, scanLog zerolog.Logger) bool {
	select {
	case <-ctx.Done():
		scanLog.Warn().Msg("scan cancelled by host, preserving partial findings")
		result.Status = ScanStatusFailed
		result.Error = fmt.Sprintf("Scan cancelled: %s", ctx.Err())
		result.Findings = sink.all()
		result.CompletedAt = time.Now()
		return true
	default:
		return false
	}
}

// headersFor builds the Authorization header for the idx'th user
// context, or no headers at all when none is configured.
func headersFor(users []UserContext, idx int) map[string]string {
	if idx >= len(users) {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + users[idx].AuthToken}
}
