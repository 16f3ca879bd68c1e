package graphqlaudit

import "strings"

// TypeKind mirrors the GraphQL introspection __TypeKind enum.
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
	TypeKindList        TypeKind = "LIST"
	TypeKindNonNull     TypeKind = "NON_NULL"
)

// TypeRef is a reference to a GraphQL type with its NonNull/List
// wrapper chain intact, so unwrapping can recover the original shape.
type TypeRef struct {
	Name   string
	Kind   TypeKind
	OfType *TypeRef
}

// IsList reports whether a List wrapper occurs anywhere in the
// NonNull/List chain, e.g. true for both "[String]" and "[String]!".
// Derived from Kind/OfType so it can never drift from the wrapper
// chain a fixture or introspection response actually describes.
func (t TypeRef) IsList() bool {
	if t.Kind == TypeKindList {
		return true
	}
	if t.OfType != nil {
		return t.OfType.IsList()
	}
	return false
}

// Required reports whether the type's outermost wrapper is NonNull,
// i.e. the argument cannot be omitted or the field cannot be null.
func (t TypeRef) Required() bool {
	return t.Kind == TypeKindNonNull
}

// NamedType unwraps NonNull and List wrappers down to the bare type
// name, per spec.md §4.4's "unwrapping NonNull/List to the named type".
func (t TypeRef) NamedType() string {
	if t.Name != "" {
		return t.Name
	}
	if t.OfType != nil {
		return t.OfType.NamedType()
	}
	return ""
}

// String renders the type signature as GraphQL would print it, e.g.
// "[String!]!".
func (t TypeRef) String() string {
	switch t.Kind {
	case TypeKindNonNull:
		if t.OfType != nil {
			return t.OfType.String() + "!"
		}
		return "!"
	case TypeKindList:
		if t.OfType != nil {
			return "[" + t.OfType.String() + "]"
		}
		return "[]"
	default:
		return t.Name
	}
}

// Argument is a single field or directive argument.
type Argument struct {
	Name string
	Type TypeRef
}

// FieldDef is a field on an object type, including root Query/Mutation
// fields, which carry arguments and a return type like any other field.
type FieldDef struct {
	Name      string
	Arguments []Argument
	Type      TypeRef
}

// ObjectType is a GraphQL object type's field list in declaration
// order, the order introspection returns it in.
type ObjectType struct {
	Name   string
	Fields []FieldDef
}

// Schema is the in-memory queryable schema the analyzer, builder and
// probers all read. It is parsed once per scan and owned by the
// orchestrator for the scan's duration; no prober retains a reference
// past the scan (spec.md §9 "pointer to schema is not ownership").
type Schema struct {
	QueryFields    []FieldDef
	MutationFields []FieldDef
	Types          map[string]ObjectType
}

// RootField looks up a field on the query or mutation root.
func (s *Schema) RootField(op Operation, name string) (FieldDef, bool) {
	fields := s.QueryFields
	if op == OperationMutation {
		fields = s.MutationFields
	}
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// ObjectTypeOf returns the declared object type for a name, if any
// (scalars, enums and unions return ok=false).
func (s *Schema) ObjectTypeOf(name string) (ObjectType, bool) {
	t, ok := s.Types[name]
	return t, ok
}

// builtinScalars are never treated as Object selection targets.
var builtinScalars = map[string]bool{
	"String": true, "Int": true, "Float": true, "Boolean": true, "ID": true,
}

// IsScalarField reports whether a field's named type is a builtin
// scalar or is not one of the schema's recorded object types. Custom
// scalars and enums therefore count, but so do interfaces, unions and
// the root operation types, since Types holds only non-root objects.
func (s *Schema) IsScalarField(f FieldDef) bool {
	name := f.Type.NamedType()
	if builtinScalars[name] {
		return true
	}
	_, isObject := s.Types[name]
	return !isObject
}

// IntrospectionQuery is the standard introspection document used by the
// schema fetcher, with descriptions disabled per spec.md §4.3.
const IntrospectionQuery = `
query IntrospectionQuery {
  __schema {
    queryType { name }
    mutationType { name }
    types {
      ...FullType
    }
  }
}

fragment FullType on __Type {
  kind
  name
  fields(includeDeprecated: true) {
    name
    args {
      ...InputValue
    }
    type {
      ...TypeRef
    }
  }
  inputFields {
    ...InputValue
  }
}

fragment InputValue on __InputValue {
  name
  type {
    ...TypeRef
  }
}

fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
            }
          }
        }
      }
    }
  }
}
`

// introspectionTypeRef/introspectionType/... mirror the wire shape of a
// standard introspection response, adapted from
// pkg/graphql/introspection.go.
type introspectionTypeRef struct {
	Kind   string                 `json:"kind"`
	Name   string                 `json:"name"`
	OfType *introspectionTypeRef  `json:"ofType"`
}

type introspectionInputValue struct {
	Name string                `json:"name"`
	Type introspectionTypeRef  `json:"type"`
}

type introspectionField struct {
	Name string                     `json:"name"`
	Args []introspectionInputValue  `json:"args"`
	Type introspectionTypeRef       `json:"type"`
}

type introspectionType struct {
	Kind   string                    `json:"kind"`
	Name   string                    `json:"name"`
	Fields []introspectionField      `json:"fields"`
}

type introspectionSchema struct {
	QueryType    *struct {
		Name string `json:"name"`
	} `json:"queryType"`
	MutationType *struct {
		Name string `json:"name"`
	} `json:"mutationType"`
	Types []introspectionType `json:"types"`
}

type introspectionData struct {
	Schema *introspectionSchema `json:"__schema"`
}

type introspectionEnvelope struct {
	Data   *introspectionData `json:"data"`
	Errors []GraphQLError     `json:"errors,omitempty"`
}

func convertTypeRef(ref introspectionTypeRef) TypeRef {
	tr := TypeRef{Kind: TypeKind(ref.Kind), Name: ref.Name}
	if ref.OfType != nil {
		inner := convertTypeRef(*ref.OfType)
		tr.OfType = &inner
	}
	return tr
}

func convertField(f introspectionField) FieldDef {
	fd := FieldDef{Name: f.Name, Type: convertTypeRef(f.Type)}
	for _, a := range f.Args {
		fd.Arguments = append(fd.Arguments, Argument{Name: a.Name, Type: convertTypeRef(a.Type)})
	}
	return fd
}

// convertSchema builds the queryable Schema from a raw introspection
// payload, following pkg/graphql/parser.go's convertSchema shape.
func convertSchema(raw *introspectionSchema) *Schema {
	schema := &Schema{Types: make(map[string]ObjectType)}

	typeMap := make(map[string]*introspectionType, len(raw.Types))
	for i := range raw.Types {
		typeMap[raw.Types[i].Name] = &raw.Types[i]
	}

	queryTypeName := ""
	if raw.QueryType != nil {
		queryTypeName = raw.QueryType.Name
	}
	mutationTypeName := ""
	if raw.MutationType != nil {
		mutationTypeName = raw.MutationType.Name
	}

	for _, t := range raw.Types {
		if strings.HasPrefix(t.Name, "__") {
			continue
		}
		if t.Kind != "OBJECT" {
			continue
		}
		if t.Name == queryTypeName || t.Name == mutationTypeName {
			continue
		}
		obj := ObjectType{Name: t.Name}
		for _, f := range t.Fields {
			obj.Fields = append(obj.Fields, convertField(f))
		}
		schema.Types[t.Name] = obj
	}

	if queryTypeName != "" {
		if t, ok := typeMap[queryTypeName]; ok {
			for _, f := range t.Fields {
				schema.QueryFields = append(schema.QueryFields, convertField(f))
			}
		}
	}
	if mutationTypeName != "" {
		if t, ok := typeMap[mutationTypeName]; ok {
			for _, f := range t.Fields {
				schema.MutationFields = append(schema.MutationFields, convertField(f))
			}
		}
	}

	return schema
}
