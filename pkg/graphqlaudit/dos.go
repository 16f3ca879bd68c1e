package graphqlaudit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// RunDoSProbes executes the depth check followed by the pagination
// check, per spec.md §4.6, pausing interProbePause() between every
// probe sent.
func RunDoSProbes(ctx context.Context, transport *Transport, url string, headers map[string]string, schema *Schema, sink *findingSink) {
	dosLog := log.With().Str("phase", "dos").Logger()

	depth := dosDepth()
	dosLog.Info().Int("depth", depth).Msg("running depth check")
	runDepthCheck(ctx, transport, url, headers, depth, schema, sink)

	time.Sleep(interProbePause())

	listFields := FindListFields(schema)
	dosLog.Info().Strs("fields", listFields).Msg("running pagination checks")
	for _, field := range listFields {
		runPaginationCheck(ctx, transport, url, headers, field, schema, sink)
		time.Sleep(interProbePause())
	}
}

func runDepthCheck(ctx context.Context, transport *Transport, url string, headers map[string]string, depth int, schema *Schema, sink *findingSink) {
	query := BuildDeepQuery(depth, schema)
	resp, transportErr := transport.Post(ctx, url, query, headers, dosDepthTimeout())

	if transportErr == nil {
		sink.add(NewFinding(
			SeverityMedium,
			"Potencial DoS por Profundidad",
			fmt.Sprintf("El servidor aceptó una consulta anidada con profundidad %d sin rechazarla ni limitar su complejidad.", depth),
			"Implementar límites de profundidad/complejidad de consulta (p. ej. graphql-depth-limit o análisis de costo de consulta).",
			EvidenceQuery(query),
		))
		return
	}

	class := classifyResponse(resp, transportErr)
	switch class {
	case ClassLimitEnforced, ClassAuthDenied:
		return
	case ClassTimeout:
		sink.add(NewFinding(
			SeverityMedium,
			"Timeout en Chequeo DoS (profundidad)",
			fmt.Sprintf("La consulta de profundidad %d no respondió dentro del tiempo límite, lo que puede indicar una amplificación de costo no controlada.", depth),
			"Investigar el tiempo de procesamiento de consultas profundas y aplicar límites de complejidad/tiempo de ejecución.",
			EvidenceQuery(query),
		))
	default:
		sink.add(NewFinding(
			SeverityLow,
			"Error Inesperado en Chequeo DoS (profundidad)",
			fmt.Sprintf("El chequeo de profundidad produjo un error inesperado: %s", transportErr.Error()),
			"Revisar manualmente la respuesta del servidor ante consultas profundas.",
			EvidenceQuery(query),
		))
	}
}

func runPaginationCheck(ctx context.Context, transport *Transport, url string, headers map[string]string, fieldName string, schema *Schema, sink *findingSink) {
	query := BuildListQuery(fieldName, schema)
	resp, transportErr := transport.Post(ctx, url, query, headers, dosPaginationTimeout())

	if transportErr != nil {
		class := classifyResponse(resp, transportErr)
		switch class {
		case ClassLimitEnforced, ClassAuthDenied:
			return
		case ClassTimeout:
			sink.add(NewFinding(
				SeverityMedium,
				fmt.Sprintf("Timeout en Chequeo DoS (lista %s)", fieldName),
				fmt.Sprintf("La consulta sin paginación sobre '%s' no respondió dentro del tiempo límite.", fieldName),
				"Investigar el costo de materializar la lista completa y aplicar paginación obligatoria.",
				EvidenceQuery(query),
			))
		default:
			sink.add(NewFinding(
				SeverityLow,
				fmt.Sprintf("Error Inesperado en Chequeo DoS (lista %s)", fieldName),
				fmt.Sprintf("El chequeo de paginación sobre '%s' produjo un error inesperado: %s", fieldName, transportErr.Error()),
				"Revisar manualmente la respuesta del servidor ante esta consulta.",
				EvidenceQuery(query),
			))
		}
		return
	}

	count, ok := arrayLength(resp.Body.Data, fieldName)
	if !ok {
		return
	}
	if count > dosPaginationThreshold() {
		sink.add(NewFinding(
			SeverityHigh,
			"Potencial DoS por Falta de Paginación",
			fmt.Sprintf("El campo '%s' devolvió %d elementos en una sola respuesta sin requerir argumentos de paginación.", fieldName, count),
			"Requerir argumentos de paginación (first/limit) y aplicar un máximo de elementos por página en el servidor.",
			EvidenceResponse(query, resp.Body.Data),
		))
	}
}

// arrayLength extracts the length of data[fieldName] when it decodes
// as a JSON array.
func arrayLength(data map[string]any, fieldName string) (int, bool) {
	if data == nil {
		return 0, false
	}
	raw, ok := data[fieldName]
	if !ok {
		return 0, false
	}
	arr, ok := raw.([]any)
	if !ok {
		return 0, false
	}
	return len(arr), true
}

// classifyResponse is the DoS/BOLA-shared helper that feeds Classify
// the right status code and error list for a completed (possibly
// error'd) transport round trip.
func classifyResponse(resp *Response, transportErr *TransportError) Classification {
	status := 0
	var errs []GraphQLError
	hasData := false
	if resp != nil {
		status = resp.StatusCode
		errs = resp.Body.Errors
		hasData = resp.Body.Data != nil
	}
	errString := ""
	if transportErr != nil {
		errString = transportErr.Error()
	}
	return Classify(errString, errs, hasData, status)
}
