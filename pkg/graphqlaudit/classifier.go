package graphqlaudit

import "strings"

// Classification is the small tagged enum every transport/GraphQL
// outcome is reduced to before a prober decides whether to emit a
// finding.
type Classification string

const (
	ClassLimitEnforced Classification = "LimitEnforced"
	ClassAuthDenied    Classification = "AuthDenied"
	ClassTimeout       Classification = "Timeout"
	ClassNetwork       Classification = "Network"
	ClassOther         Classification = "Other"
)

var limitMarkers = []string{"limit", "complexity", "depth", "pagination"}
var authDeniedMarkers = []string{"unauthorized", "forbidden", "access denied", "not found"}

// Classify is a pure function over the transport error string plus the
// parsed GraphQL error list and HTTP status, per spec.md §4.2. It never
// inspects the response body beyond what is passed in; probers decide
// separately whether the classification yields a finding.
//
// Conflates missing-object with denied-access when a GraphQL error says
// "not found" and no data came back (spec.md §9 Open Question);
// preserved as specified, flagged here as a known false-negative risk.
func Classify(errString string, graphqlErrors []GraphQLError, hasData bool, statusCode int) Classification {
	lower := strings.ToLower(errString)

	for _, e := range graphqlErrors {
		msg := strings.ToLower(e.Message)
		for _, marker := range limitMarkers {
			if strings.Contains(msg, marker) {
				return ClassLimitEnforced
			}
		}
	}

	if statusCode == 401 || statusCode == 403 {
		return ClassAuthDenied
	}

	for _, e := range graphqlErrors {
		msg := strings.ToLower(e.Message)
		for _, marker := range authDeniedMarkers {
			if strings.Contains(msg, marker) && !hasData {
				return ClassAuthDenied
			}
		}
	}

	if strings.Contains(lower, "timeout") {
		return ClassTimeout
	}

	if strings.HasPrefix(errString, "Network Error:") || (errString != "" && statusCode == 0) {
		return ClassNetwork
	}

	return ClassOther
}
