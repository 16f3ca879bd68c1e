package graphqlaudit

import "strings"

// paginationAllowlist lists argument names (case-insensitive) that do
// not disqualify a list field from the "no required pagination
// argument" rule in spec.md §4.4.
var paginationAllowlist = map[string]bool{
	"first": true, "last": true, "before": true, "after": true,
	"limit": true, "offset": true,
}

// fallbackListFields is returned by FindListFields when the schema is
// nil or no field qualifies, so the DoS pagination probe still has
// something to try against a schema-less target.
var fallbackListFields = []string{
	"users", "posts", "items", "orders", "products",
	"nodes", "edges", "connections", "list", "all", "get",
}

// FindBolaPointsOfInterest walks the root query and mutation fields
// looking for an id-shaped argument, per spec.md §4.4. The first
// qualifying argument (declaration order) is selected for each field.
func FindBolaPointsOfInterest(schema *Schema, targetObjectTypes []string) []BolaPointOfInterest {
	if schema == nil {
		return nil
	}

	var points []BolaPointOfInterest
	points = append(points, scanRootFields(schema.QueryFields, OperationQuery)...)
	points = append(points, scanRootFields(schema.MutationFields, OperationMutation)...)

	if len(targetObjectTypes) == 0 {
		return points
	}

	allowed := make(map[string]bool, len(targetObjectTypes))
	for _, t := range targetObjectTypes {
		allowed[t] = true
	}
	filtered := make([]BolaPointOfInterest, 0, len(points))
	for _, p := range points {
		if allowed[p.ReturnTypeName] {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func scanRootFields(fields []FieldDef, op Operation) []BolaPointOfInterest {
	var points []BolaPointOfInterest
	for _, field := range fields {
		argName, ok := firstIDArgument(field.Arguments)
		if !ok {
			continue
		}
		points = append(points, BolaPointOfInterest{
			FieldName:      field.Name,
			Operation:      op,
			IDArgName:      argName,
			ReturnTypeName: field.Type.NamedType(),
		})
	}
	return points
}

// firstIDArgument returns the name of the first argument whose named
// type stringifies to "ID" or whose (lowercased) name contains "id".
func firstIDArgument(args []Argument) (string, bool) {
	for _, arg := range args {
		if arg.Type.NamedType() == "ID" || strings.Contains(strings.ToLower(arg.Name), "id") {
			return arg.Name, true
		}
	}
	return "", false
}

// FindListFields returns root query fields whose type is a List with
// no required argument outside the pagination allowlist, per spec.md
// §4.4. Falls back to a fixed name list when the schema is nil or
// nothing qualifies.
func FindListFields(schema *Schema) []string {
	if schema == nil {
		return fallbackListFields
	}

	var names []string
	for _, field := range schema.QueryFields {
		if !field.Type.IsList() {
			continue
		}
		if hasDisqualifyingRequiredArg(field.Arguments) {
			continue
		}
		names = append(names, field.Name)
	}

	if len(names) == 0 {
		return fallbackListFields
	}
	return names
}

func hasDisqualifyingRequiredArg(args []Argument) bool {
	for _, arg := range args {
		if !arg.Type.Required() {
			continue
		}
		if !paginationAllowlist[strings.ToLower(arg.Name)] {
			return true
		}
	}
	return false
}

// DeepPath greedily walks from the query root, at each step picking a
// field that is not a list, has no required arguments, and returns an
// Object type different from the current type, per spec.md §4.4. The
// returned slice is the sequence of field names; its length is at most
// depth.
func DeepPath(schema *Schema, depth int) []string {
	if schema == nil || depth <= 0 {
		return nil
	}

	path := make([]string, 0, depth)
	currentType := ""
	fields := schema.QueryFields

	for step := 0; step < depth; step++ {
		next, ok := pickDeepCandidate(schema, fields, currentType)
		if !ok {
			break
		}
		path = append(path, next.Name)
		currentType = next.Type.NamedType()
		obj, ok := schema.Types[currentType]
		if !ok {
			break
		}
		fields = obj.Fields
	}

	return path
}

func pickDeepCandidate(schema *Schema, fields []FieldDef, currentType string) (FieldDef, bool) {
	for _, f := range fields {
		if f.Type.IsList() {
			continue
		}
		if len(f.Arguments) > 0 && anyRequired(f.Arguments) {
			continue
		}
		name := f.Type.NamedType()
		if name == "" || name == currentType {
			continue
		}
		if _, ok := schema.Types[name]; !ok {
			continue
		}
		return f, true
	}
	return FieldDef{}, false
}

func anyRequired(args []Argument) bool {
	for _, a := range args {
		if a.Type.Required() {
			return true
		}
	}
	return false
}

var inferPrefixes = []string{"get", "find", "list", "all"}
var inferSuffixes = []string{"ById", "Connection", "Edge", "s"}

// InferObjectTypeFromFieldName is the BOLA fallback used when a point's
// ReturnTypeName is unavailable: strip a leading get/find/list/all,
// strip a trailing ById/Connection/Edge/s, then title-case what's left.
func InferObjectTypeFromFieldName(name string) string {
	remainder := name
	for _, prefix := range inferPrefixes {
		if strings.HasPrefix(remainder, prefix) && len(remainder) > len(prefix) {
			remainder = remainder[len(prefix):]
			break
		}
	}

	for _, suffix := range inferSuffixes {
		if strings.HasSuffix(remainder, suffix) && len(remainder) > len(suffix) {
			remainder = strings.TrimSuffix(remainder, suffix)
			break
		}
	}

	if remainder == "" {
		return "Object"
	}

	return strings.ToUpper(remainder[:1]) + remainder[1:]
}
