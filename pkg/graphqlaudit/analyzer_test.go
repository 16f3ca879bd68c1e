package graphqlaudit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleSchema() *Schema {
	idType := TypeRef{Kind: TypeKindNonNull, OfType: &TypeRef{Kind: TypeKindScalar, Name: "ID"}}
	orderType := TypeRef{Kind: TypeKindObject, Name: "Order"}
	userListType := TypeRef{Kind: TypeKindList, OfType: &TypeRef{Kind: TypeKindObject, Name: "User"}}

	return &Schema{
		QueryFields: []FieldDef{
			{Name: "order", Arguments: []Argument{{Name: "id", Type: idType}}, Type: orderType},
			{Name: "users", Arguments: nil, Type: userListType},
			{Name: "search", Arguments: []Argument{{Name: "query", Type: TypeRef{Name: "String"}}}, Type: userListType},
			{Name: "paginatedItems", Arguments: []Argument{{Name: "category", Type: TypeRef{Kind: TypeKindNonNull, OfType: &TypeRef{Name: "String"}}}}, Type: TypeRef{Kind: TypeKindList, OfType: &TypeRef{Name: "Item"}}},
			{Name: "viewer", Arguments: nil, Type: TypeRef{Kind: TypeKindObject, Name: "User"}},
		},
		MutationFields: []FieldDef{
			{Name: "updateOrder", Arguments: []Argument{{Name: "orderId", Type: TypeRef{Name: "String"}}}, Type: orderType},
		},
		Types: map[string]ObjectType{
			"Order": {Name: "Order", Fields: []FieldDef{
				{Name: "id", Type: TypeRef{Name: "ID"}},
				{Name: "total", Type: TypeRef{Name: "Float"}},
				{Name: "status", Type: TypeRef{Name: "String"}},
				{Name: "notes", Type: TypeRef{Name: "String"}},
				{Name: "owner", Type: TypeRef{Kind: TypeKindObject, Name: "User"}},
			}},
			"User": {Name: "User", Fields: []FieldDef{
				{Name: "id", Type: TypeRef{Name: "ID"}},
				{Name: "name", Type: TypeRef{Name: "String"}},
				{Name: "order", Type: TypeRef{Kind: TypeKindObject, Name: "Order"}},
			}},
		},
	}
}

func TestFindBolaPointsOfInterest(t *testing.T) {
	points := FindBolaPointsOfInterest(sampleSchema(), nil)

	var order, update bool
	for _, p := range points {
		if p.FieldName == "order" {
			order = true
			assert.Equal(t, OperationQuery, p.Operation)
			assert.Equal(t, "id", p.IDArgName)
			assert.Equal(t, "Order", p.ReturnTypeName)
		}
		if p.FieldName == "updateOrder" {
			update = true
			assert.Equal(t, OperationMutation, p.Operation)
			assert.Equal(t, "orderId", p.IDArgName)
		}
		// property 5: idArgName must be declared on the field
		field, _ := sampleSchema().RootField(p.Operation, p.FieldName)
		found := false
		for _, a := range field.Arguments {
			if a.Name == p.IDArgName {
				found = true
			}
		}
		assert.True(t, found, "idArgName must be declared on the field")
	}
	assert.True(t, order)
	assert.True(t, update)
}

func TestFindBolaPointsOfInterest_FilteredByTargetTypes(t *testing.T) {
	points := FindBolaPointsOfInterest(sampleSchema(), []string{"Order"})
	for _, p := range points {
		assert.Equal(t, "Order", p.ReturnTypeName)
	}
	assert.NotEmpty(t, points)
}

func TestFindBolaPointsOfInterest_NilSchema(t *testing.T) {
	assert.Nil(t, FindBolaPointsOfInterest(nil, nil))
}

func TestFindListFields(t *testing.T) {
	fields := FindListFields(sampleSchema())
	assert.Contains(t, fields, "users")
	assert.Contains(t, fields, "search")
	assert.NotContains(t, fields, "paginatedItems", "required non-pagination arg disqualifies a list field")
}

func TestFindListFields_FallbackWhenNilSchema(t *testing.T) {
	assert.Equal(t, fallbackListFields, FindListFields(nil))
}

func TestFindListFields_FallbackWhenNoneQualify(t *testing.T) {
	schema := &Schema{QueryFields: []FieldDef{
		{Name: "search", Arguments: []Argument{{Name: "query", Type: TypeRef{Kind: TypeKindNonNull, OfType: &TypeRef{Name: "String"}}}}, Type: TypeRef{Kind: TypeKindObject, Name: "User"}},
	}}
	assert.Equal(t, fallbackListFields, FindListFields(schema))
}

func TestDeepPath(t *testing.T) {
	path := DeepPath(sampleSchema(), 3)
	assert.Equal(t, []string{"viewer", "order", "owner"}, path)
}

func TestDeepPath_NilSchema(t *testing.T) {
	assert.Nil(t, DeepPath(nil, 3))
}

func TestInferObjectTypeFromFieldName(t *testing.T) {
	cases := map[string]string{
		"User":        "User",
		"users":       "User",
		"getOrderById": "Order",
		"listPosts":   "Post",
		"allProducts": "Product",
	}
	for input, expected := range cases {
		assert.Equal(t, expected, InferObjectTypeFromFieldName(input), input)
	}
}
