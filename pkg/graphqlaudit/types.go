// Package graphqlaudit is the core GraphQL security scan engine: schema
// introspection, BOLA/DoS point-of-interest discovery, operation
// synthesis and authenticated probe execution.
package graphqlaudit

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity is a small string-backed enum with a total display order,
// mirroring db/severity.go's severity type.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
	SeverityInfo     Severity = "Info"
)

// Rank returns the severity's position in the total order
// Critical > High > Medium > Low > Info, lower is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	case SeverityInfo:
		return 4
	default:
		return 5
	}
}

// ScanStatus mirrors the teacher's small-string task-status enum idiom.
type ScanStatus string

const (
	ScanStatusQueued    ScanStatus = "Queued"
	ScanStatusRunning   ScanStatus = "Running"
	ScanStatusCompleted ScanStatus = "Completed"
	ScanStatusFailed    ScanStatus = "Failed"
)

// Operation distinguishes root query fields from root mutation fields.
type Operation string

const (
	OperationQuery    Operation = "query"
	OperationMutation Operation = "mutation"
)

// UserContext is a single authenticated principal under test.
type UserContext struct {
	ID             string              `json:"id" mapstructure:"id" validate:"required"`
	AuthToken      string              `json:"auth_token" mapstructure:"auth_token" validate:"required"`
	OwnedObjectIDs map[string][]string `json:"owned_object_ids" mapstructure:"owned_object_ids"`
}

// BolaConfig restricts BOLA point-of-interest discovery to a set of
// return types, when provided.
type BolaConfig struct {
	TargetObjectTypes []string `json:"target_object_types,omitempty" mapstructure:"target_object_types"`
}

// ScanTarget is the immutable input to RunScan. It is the shape a
// caller (CLI config file or job façade request body) fills in.
type ScanTarget struct {
	URL          string        `json:"url" mapstructure:"url" validate:"required,url"`
	Schema       string        `json:"schema,omitempty" mapstructure:"schema"`
	UserContexts []UserContext `json:"user_contexts" mapstructure:"user_contexts" validate:"required,min=1,dive"`
	BolaConfig   BolaConfig    `json:"bola_config,omitempty" mapstructure:"bola_config"`
}

// BolaPointOfInterest is a (field, id-argument) pair on the schema
// suitable for BOLA probing.
type BolaPointOfInterest struct {
	FieldName      string
	Operation      Operation
	IDArgName      string
	ReturnTypeName string
}

// Evidence is a free-form name->value mapping serialized to JSON at the
// API boundary. The constructors below give the common shapes a typed
// feel without changing the wire representation, per the tagged-union
// redesign note.
type Evidence map[string]any

func EvidenceQuery(query string) Evidence {
	return Evidence{"query": query}
}

func EvidenceResponse(query string, response any) Evidence {
	return Evidence{"query": query, "response": response}
}

func EvidenceErrors(query string, errs []GraphQLError) Evidence {
	return Evidence{"query": query, "errors": errs}
}

// VulnerabilityFinding is a single graded, human-readable observation.
type VulnerabilityFinding struct {
	ID             string   `json:"id"`
	Severity       Severity `json:"severity"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	Evidence       Evidence `json:"evidence,omitempty"`
}

// NewFinding mints a finding with a fresh identifier.
func NewFinding(severity Severity, title, description, recommendation string, evidence Evidence) VulnerabilityFinding {
	return VulnerabilityFinding{
		ID:             uuid.NewString(),
		Severity:       severity,
		Title:          title,
		Description:    description,
		Recommendation: recommendation,
		Evidence:       evidence,
	}
}

// ScanResult is the sealed output of RunScan.
type ScanResult struct {
	ScanID      string                 `json:"scan_id"`
	Target      ScanTarget             `json:"target"`
	Status      ScanStatus             `json:"status"`
	Findings    []VulnerabilityFinding `json:"findings"`
	Error       string                 `json:"error,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt time.Time              `json:"completed_at"`
}

// SortedFindings returns a copy of the findings sorted by severity
// descending, ties broken by original emission order (stable sort).
func SortedFindings(findings []VulnerabilityFinding) []VulnerabilityFinding {
	sorted := make([]VulnerabilityFinding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() < sorted[j].Severity.Rank()
	})
	return sorted
}

// findingSink is the orchestrator-owned, mutex-guarded collector every
// prober appends to. It exists so a bounded worker pool (BOLA prober)
// can merge findings from concurrent goroutines without the
// orchestrator exposing its slice directly.
type findingSink struct {
	mu       sync.Mutex
	findings []VulnerabilityFinding
}

func newFindingSink() *findingSink {
	return &findingSink{}
}

func (s *findingSink) add(f VulnerabilityFinding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings = append(s.findings, f)
}

func (s *findingSink) all() []VulnerabilityFinding {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]VulnerabilityFinding, len(s.findings))
	copy(out, s.findings)
	return out
}
