package graphqlaudit

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// FetchSchema issues the introspection document against the target and
// returns the parsed schema plus the findings it generates (Info/Low,
// never fatal — a nil schema is a valid downstream state per spec.md
// §4.3). headers carries the first user context's Authorization header,
// matching the orchestrator's single-principal introspection call.
func FetchSchema(ctx context.Context, transport *Transport, url string, headers map[string]string) (*Schema, []VulnerabilityFinding) {
	fetchLog := log.With().Str("phase", "introspection").Str("url", url).Logger()

	resp, transportErr := transport.Post(ctx, url, IntrospectionQuery, headers, introspectionTimeout())

	if resp == nil {
		fetchLog.Warn().Err(transportErr).Msg("introspection request failed")
		return nil, []VulnerabilityFinding{introspectionDisabledFinding(transportErr.Error())}
	}

	raw, err := json.Marshal(resp.Body)
	if err != nil {
		fetchLog.Warn().Err(err).Msg("failed to re-marshal introspection response")
		return nil, []VulnerabilityFinding{introspectionDisabledFinding(err.Error())}
	}

	var envelope introspectionEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Data == nil || envelope.Data.Schema == nil {
		reason := "introspection returned no schema data"
		if transportErr != nil {
			reason = transportErr.Error()
		}
		fetchLog.Info().Str("reason", reason).Msg("introspection disabled or failed")
		return nil, []VulnerabilityFinding{introspectionDisabledFinding(reason)}
	}

	schema := convertSchema(envelope.Data.Schema)

	findings := []VulnerabilityFinding{introspectionEnabledFinding()}
	if len(resp.Body.Errors) > 0 {
		findings = append(findings, introspectionErrorsFinding())
	}
	fetchLog.Info().Int("query_fields", len(schema.QueryFields)).Int("mutation_fields", len(schema.MutationFields)).Msg("introspection succeeded")
	return schema, findings
}

func introspectionEnabledFinding() VulnerabilityFinding {
	return NewFinding(
		SeverityInfo,
		"Introspection Habilitada",
		"El endpoint GraphQL responde a una consulta de introspección completa, exponiendo todo el esquema (tipos, campos, argumentos) a cualquier cliente.",
		"Deshabilitar la introspección en producción o restringirla a clientes autenticados/autorizados.",
		nil,
	)
}

func introspectionErrorsFinding() VulnerabilityFinding {
	return NewFinding(
		SeverityInfo,
		"Introspection Query con Errores",
		"La consulta de introspección devolvió datos de esquema junto con errores GraphQL, lo que puede indicar un esquema parcialmente restringido.",
		"Revisar los errores acompañantes para confirmar si alguna parte del esquema está intencionalmente oculta.",
		nil,
	)
}

func introspectionDisabledFinding(reason string) VulnerabilityFinding {
	return NewFinding(
		SeverityLow,
		"Introspection Deshabilitada o Fallida",
		"No fue posible recuperar el esquema mediante introspección: "+reason,
		"Si la introspección está deshabilitada intencionalmente, ningún cambio es necesario; en caso contrario, investigar el fallo.",
		nil,
	)
}
