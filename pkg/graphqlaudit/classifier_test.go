package graphqlaudit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_LimitEnforced(t *testing.T) {
	class := Classify("GraphQL Error: query complexity too high", []GraphQLError{{Message: "query complexity too high"}}, false, 200)
	assert.Equal(t, ClassLimitEnforced, class)
}

func TestClassify_AuthDeniedByStatus(t *testing.T) {
	class := Classify("HTTP Error 403: Forbidden", nil, false, 403)
	assert.Equal(t, ClassAuthDenied, class)
}

func TestClassify_AuthDeniedByMessage(t *testing.T) {
	class := Classify("GraphQL Error: not found", []GraphQLError{{Message: "not found"}}, false, 200)
	assert.Equal(t, ClassAuthDenied, class)
}

func TestClassify_NotFoundWithDataIsNotAuthDenied(t *testing.T) {
	class := Classify("GraphQL Error: not found", []GraphQLError{{Message: "not found"}}, true, 200)
	assert.NotEqual(t, ClassAuthDenied, class)
}

func TestClassify_Timeout(t *testing.T) {
	class := Classify("Timeout de la petición", nil, false, 0)
	assert.Equal(t, ClassTimeout, class)
}

func TestClassify_Network(t *testing.T) {
	class := Classify("Network Error: connection refused", nil, false, 0)
	assert.Equal(t, ClassNetwork, class)
}

func TestClassify_Other(t *testing.T) {
	class := Classify("something unexpected broke", nil, false, 500)
	assert.Equal(t, ClassOther, class)
}
