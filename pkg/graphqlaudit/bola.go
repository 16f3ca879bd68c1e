package graphqlaudit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

// bolaProbe is one (attacker, victim, point, objectID) combination to
// execute.
type bolaProbe struct {
	attacker UserContext
	victim   UserContext
	point    BolaPointOfInterest
	objectID string
}

// RunBOLAProbes cross-products authenticated principals, victim-owned
// object ids and points of interest, then probes each combination as
// the attacker, per spec.md §4.7. Skips entirely (no finding) when
// fewer than two principals are configured or the schema is nil.
func RunBOLAProbes(ctx context.Context, transport *Transport, url string, target ScanTarget, schema *Schema, sink *findingSink) {
	bolaLog := log.With().Str("phase", "bola").Logger()

	if len(target.UserContexts) < 2 {
		bolaLog.Debug().Msg("fewer than two user contexts configured, skipping BOLA checks")
		return
	}
	if schema == nil {
		bolaLog.Debug().Msg("no schema available, skipping BOLA checks")
		return
	}

	points := FindBolaPointsOfInterest(schema, target.BolaConfig.TargetObjectTypes)
	if len(points) == 0 {
		if len(target.BolaConfig.TargetObjectTypes) == 0 {
			sink.add(NewFinding(
				SeverityInfo,
				"No se encontraron puntos de prueba BOLA",
				"El análisis del esquema no identificó campos con un argumento de tipo identificador adecuado para probar BOLA.",
				"Ninguna acción requerida; si el esquema crece, repetir el análisis.",
				nil,
			))
		} else {
			sink.add(NewFinding(
				SeverityInfo,
				"No se encontraron puntos de prueba BOLA para los tipos especificados",
				fmt.Sprintf("No se encontraron campos que devuelvan alguno de los tipos especificados: %s", strings.Join(target.BolaConfig.TargetObjectTypes, ", ")),
				"Verificar que los nombres de tipo configurados coincidan con los del esquema.",
				nil,
			))
		}
		return
	}

	probes := planBOLAProbes(target.UserContexts, points)
	bolaLog.Info().Int("points", len(points)).Int("probes", len(probes)).Msg("executing BOLA probes")

	p := pool.New().WithMaxGoroutines(bolaPoolSize())
	for _, probe := range probes {
		probe := probe
		p.Go(func() {
			executeBOLAProbe(ctx, transport, url, probe, schema, sink)
			time.Sleep(interProbePause())
		})
	}
	p.Wait()
}

// planBOLAProbes builds the deduplicated probe plan: every
// (attacker != victim, point, owned objectID) triple, keyed on
// attacker-operation-field-objectID so repeated owners across victims
// are only probed once per attacker, per spec.md §4.7/§8 property 10.
func planBOLAProbes(users []UserContext, points []BolaPointOfInterest) []bolaProbe {
	seen := make(map[string]bool)
	var probes []bolaProbe

	for _, attacker := range users {
		for _, victim := range users {
			if attacker.ID == victim.ID {
				continue
			}
			for _, point := range points {
				typeName := point.ReturnTypeName
				if typeName == "" {
					typeName = InferObjectTypeFromFieldName(point.FieldName)
				}
				objectIDs := victim.OwnedObjectIDs[typeName]
				for _, objectID := range objectIDs {
					key := fmt.Sprintf("%s-%s-%s-%s", attacker.ID, point.Operation, point.FieldName, objectID)
					if seen[key] {
						continue
					}
					seen[key] = true
					probes = append(probes, bolaProbe{
						attacker: attacker,
						victim:   victim,
						point:    point,
						objectID: objectID,
					})
				}
			}
		}
	}

	return probes
}

func executeBOLAProbe(ctx context.Context, transport *Transport, url string, probe bolaProbe, schema *Schema, sink *findingSink) {
	query := BuildBolaOperation(probe.point, probe.objectID, schema)
	headers := map[string]string{"Authorization": "Bearer " + probe.attacker.AuthToken}

	resp, transportErr := transport.Post(ctx, url, query, headers, bolaProbeTimeout())

	if transportErr != nil {
		class := classifyResponse(resp, transportErr)
		switch class {
		case ClassAuthDenied:
			return
		case ClassLimitEnforced:
			return
		default:
			if resp != nil && (resp.StatusCode == 401 || resp.StatusCode == 403) {
				return
			}
			sink.add(NewFinding(
				SeverityLow,
				fmt.Sprintf("Error Inesperado en Prueba BOLA (%s)", probe.point.FieldName),
				fmt.Sprintf("La prueba BOLA de '%s' como '%s' contra el objeto '%s' produjo un error inesperado: %s", probe.point.FieldName, probe.attacker.ID, probe.objectID, transportErr.Error()),
				"Revisar manualmente la respuesta del servidor para esta combinación.",
				EvidenceQuery(query),
			))
		}
		return
	}

	data, ok := resp.Body.Data[probe.point.FieldName]
	if !ok || !holdsObjectData(data) {
		log.Debug().Str("field", probe.point.FieldName).Str("attacker", probe.attacker.ID).Msg("BOLA probe inconclusive: no data returned")
		return
	}

	severity := SeverityHigh
	if probe.point.Operation == OperationMutation {
		severity = SeverityCritical
	}

	sink.add(NewFinding(
		severity,
		"Broken Object Level Authorization (BOLA)",
		fmt.Sprintf(
			"El principal '%s' pudo acceder/modificar, mediante la operación '%s' (%s) con el argumento '%s', un objeto '%s' perteneciente al principal '%s'.",
			probe.attacker.ID, probe.point.FieldName, probe.point.Operation, probe.point.IDArgName, probe.objectID, probe.victim.ID,
		),
		"Validar en el resolver que el principal autenticado sea propietario (o esté autorizado) del objeto solicitado antes de devolver o mutar datos.",
		EvidenceResponse(query, data),
	))
}

// holdsObjectData reports whether a GraphQL field's decoded value
// represents actual object data: a non-null object with at least one
// key beyond __typename, a non-empty array, or any other non-null
// (scalar) value.
func holdsObjectData(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case map[string]any:
		for key := range v {
			if key != "__typename" {
				return true
			}
		}
		return false
	case []any:
		return len(v) > 0
	default:
		return true
	}
}
