package graphqlaudit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildBolaOperation_Query(t *testing.T) {
	point := BolaPointOfInterest{FieldName: "order", Operation: OperationQuery, IDArgName: "id", ReturnTypeName: "Order"}
	query := BuildBolaOperation(point, "o1", sampleSchema())

	assert.True(t, strings.HasPrefix(query, "query {"))
	assert.Contains(t, query, `order(id: "o1")`)
	assert.Contains(t, query, "id")
	assert.Contains(t, query, "__typename")
	assert.Contains(t, query, "total")
}

func TestBuildBolaOperation_Mutation(t *testing.T) {
	point := BolaPointOfInterest{FieldName: "updateOrder", Operation: OperationMutation, IDArgName: "orderId", ReturnTypeName: "Order"}
	query := BuildBolaOperation(point, "o1", sampleSchema())

	assert.True(t, strings.HasPrefix(query, "mutation {"))
	assert.Contains(t, query, `updateOrder(orderId: "o1")`)
}

func TestBuildBolaOperation_NoSchemaFallsBackToBaseSelection(t *testing.T) {
	point := BolaPointOfInterest{FieldName: "order", Operation: OperationQuery, IDArgName: "id", ReturnTypeName: "Order"}
	query := BuildBolaOperation(point, "o1", nil)

	assert.Contains(t, query, "id")
	assert.Contains(t, query, "__typename")
	assert.NotContains(t, query, "total")
}

func TestBuildListQuery(t *testing.T) {
	query := BuildListQuery("users", sampleSchema())
	assert.Contains(t, query, "users {")
	assert.Contains(t, query, "id")
	assert.Contains(t, query, "__typename")
}

func TestBuildDeepQuery_WithSchemaFollowsRealPath(t *testing.T) {
	query := BuildDeepQuery(3, sampleSchema())
	assert.Contains(t, query, "viewer")
	assert.Contains(t, query, "order")
	assert.Contains(t, query, "owner")
	assert.Contains(t, query, "id __typename")
}

func TestBuildDeepQuery_NoSchemaUsesSyntheticPath(t *testing.T) {
	query := BuildDeepQuery(4, nil)
	assert.Contains(t, query, "node")
	assert.Contains(t, query, "child0")
	assert.Contains(t, query, "child1")
	assert.Contains(t, query, "child2")
}

func TestSelectionSetFor_CapsAtThreeScalarFields(t *testing.T) {
	selection := selectionSetFor("Order", sampleSchema())
	// base (id, __typename) + at most 3 more
	assert.LessOrEqual(t, len(selection), 5)
	assert.Contains(t, selection, "id")
	assert.Contains(t, selection, "__typename")
}
