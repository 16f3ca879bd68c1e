package graphqlaudit

import (
	"fmt"
	"strconv"
	"strings"
)

// maxSelectedScalarFields caps the "first N scalar fields" selection
// rule from spec.md §4.5.
const maxSelectedScalarFields = 3

// baseSelections are always present in a synthesized selection set.
var baseSelections = []string{"id", "__typename"}

// BuildBolaOperation synthesizes a single-operation document for a
// BOLA point of interest against a specific object id, per spec.md
// §4.5. When schema is available and the return type resolves to a
// known Object, up to three distinct scalar fields are appended to the
// base selection, in schema declaration order.
func BuildBolaOperation(point BolaPointOfInterest, objectID string, schema *Schema) string {
	argValue := encodeStringArgument(objectID)
	selection := selectionSetFor(point.ReturnTypeName, schema)

	var sb strings.Builder
	sb.WriteString(string(point.Operation))
	sb.WriteString(" {\n  ")
	sb.WriteString(point.FieldName)
	sb.WriteString("(")
	sb.WriteString(point.IDArgName)
	sb.WriteString(": ")
	sb.WriteString(argValue)
	sb.WriteString(") {\n    ")
	sb.WriteString(strings.Join(selection, "\n    "))
	sb.WriteString("\n  }\n}")
	return sb.String()
}

// BuildListQuery synthesizes a no-argument list query for a candidate
// list field, per spec.md §4.5.
func BuildListQuery(fieldName string, schema *Schema) string {
	selection := selectionSetFor(listFieldReturnType(fieldName, schema), schema)

	var sb strings.Builder
	sb.WriteString("query {\n  ")
	sb.WriteString(fieldName)
	sb.WriteString(" {\n    ")
	sb.WriteString(strings.Join(selection, "\n    "))
	sb.WriteString("\n  }\n}")
	return sb.String()
}

// listFieldReturnType resolves a list field's element type name, so
// BuildListQuery can reuse the same selection-set rule as BOLA
// operations. Returns "" when the schema is unavailable, yielding the
// base id/__typename selection.
func listFieldReturnType(fieldName string, schema *Schema) string {
	if schema == nil {
		return ""
	}
	for _, f := range schema.QueryFields {
		if f.Name == fieldName {
			return f.Type.NamedType()
		}
	}
	return ""
}

// BuildDeepQuery synthesizes a nested selection set terminating in
// "id __typename". When the analyzer produced a real field path it is
// followed, so the nesting is only as deep as that path (at most depth
// levels, fewer when DeepPath runs out of candidates); otherwise a synthetic
// node/child0/child1/... document is emitted, per spec.md §4.5 and the
// related §9 Open Question (preserved: many servers will reject the
// synthetic fields and this is expected to grade as a Low finding, not
// upgraded to Medium).
func BuildDeepQuery(depth int, schema *Schema) string {
	path := DeepPath(schema, depth)
	if len(path) == 0 {
		path = syntheticPath(depth)
	}

	inner := strings.Join(baseSelections, " ")
	for i := len(path) - 1; i >= 0; i-- {
		inner = fmt.Sprintf("%s {\n  %s\n}", path[i], inner)
	}

	return "query {\n  " + inner + "\n}"
}

func syntheticPath(depth int) []string {
	path := make([]string, 0, depth)
	path = append(path, "node")
	for i := 1; i < depth; i++ {
		path = append(path, fmt.Sprintf("child%d", i-1))
	}
	return path
}

// selectionSetFor builds the base selections plus up to three distinct
// scalar fields of typeName, deduplicated against the base selections,
// in the schema's declaration order (spec.md §9's determinism note).
func selectionSetFor(typeName string, schema *Schema) []string {
	selection := append([]string{}, baseSelections...)
	if schema == nil || typeName == "" {
		return selection
	}

	obj, ok := schema.Types[typeName]
	if !ok {
		return selection
	}

	seen := map[string]bool{"id": true, "__typename": true}
	added := 0
	for _, field := range obj.Fields {
		if added >= maxSelectedScalarFields {
			break
		}
		if seen[field.Name] {
			continue
		}
		if !schema.IsScalarField(field) {
			continue
		}
		seen[field.Name] = true
		selection = append(selection, field.Name)
		added++
	}

	return selection
}

// encodeStringArgument renders an object id as a GraphQL string
// literal argument value, the literal-default-scalar fragment kept
// from the teacher's DefaultValueStrategy.GenerateScalar (fuzzing of
// scalar values themselves is out of scope per spec.md §1).
func encodeStringArgument(value string) string {
	return strconv.Quote(value)
}
