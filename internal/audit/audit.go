// Package audit provides the append-only security audit trail for the
// dashboard. It classifies every recorded action into a fixed severity,
// redacts sensitive fields before storage, and exports entries for
// compliance evidence.
package audit

import "time"

// Action identifies a security-relevant operation in the closed taxonomy.
type Action string

const (
	// PolicyCreated is the creation of a new AppLocker policy.
	PolicyCreated Action = "POLICY_CREATED"
	// PolicyUpdated is a modification of an existing policy.
	PolicyUpdated Action = "POLICY_UPDATED"
	// PolicyDeleted is the removal of a policy.
	PolicyDeleted Action = "POLICY_DELETED"
	// PolicyDeployed is the push of a policy to one or more endpoints.
	PolicyDeployed Action = "POLICY_DEPLOYED"
	// RuleCreated is the creation of a single policy rule.
	RuleCreated Action = "RULE_CREATED"
	// RuleDeleted is the removal of a single policy rule.
	RuleDeleted Action = "RULE_DELETED"
	// ScanInitiated is the start of a fleet or machine scan.
	ScanInitiated Action = "SCAN_INITIATED"
	// ScanCompleted is the end of a fleet or machine scan.
	ScanCompleted Action = "SCAN_COMPLETED"
	// UserAddedToGroup is a directory-service group membership addition.
	UserAddedToGroup Action = "USER_ADDED_TO_GROUP"
	// UserRemovedFromGroup is a directory-service group membership removal.
	UserRemovedFromGroup Action = "USER_REMOVED_FROM_GROUP"
	// GroupCreated is the creation of a directory-service group.
	GroupCreated Action = "GROUP_CREATED"
	// MachineAdded is the enrollment of a machine into the fleet.
	MachineAdded Action = "MACHINE_ADDED"
	// MachineRemoved is the removal of a machine from the fleet.
	MachineRemoved Action = "MACHINE_REMOVED"
	// CredentialUsed is any use of stored administrative credentials.
	CredentialUsed Action = "CREDENTIAL_USED"
	// DataExported is any export of dashboard data to disk.
	DataExported Action = "DATA_EXPORTED"
	// EvidenceGenerated is the assembly of a compliance evidence package.
	EvidenceGenerated Action = "EVIDENCE_GENERATED"
	// AppStarted is dashboard application startup.
	AppStarted Action = "APP_STARTED"
	// AppStopped is dashboard application shutdown.
	AppStopped Action = "APP_STOPPED"
)

// Severity classifies how consequential an audited action is, independent
// of its outcome.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// severityTable is the fixed action-to-severity mapping. Every action in
// the taxonomy has an explicit row; severity is never set independently.
var severityTable = map[Action]Severity{
	PolicyCreated:        SeverityHigh,
	PolicyUpdated:        SeverityHigh,
	PolicyDeleted:        SeverityHigh,
	PolicyDeployed:       SeverityCritical,
	RuleCreated:          SeverityHigh,
	RuleDeleted:          SeverityHigh,
	ScanInitiated:        SeverityMedium,
	ScanCompleted:        SeverityMedium,
	UserAddedToGroup:     SeverityHigh,
	UserRemovedFromGroup: SeverityHigh,
	GroupCreated:         SeverityMedium,
	MachineAdded:         SeverityMedium,
	MachineRemoved:       SeverityMedium,
	CredentialUsed:       SeverityHigh,
	DataExported:         SeverityMedium,
	EvidenceGenerated:    SeverityMedium,
	AppStarted:           SeverityLow,
	AppStopped:           SeverityLow,
}

// SeverityFor returns the severity for the given action. Unmapped actions
// default to MEDIUM so the function is total over arbitrary input.
func SeverityFor(action Action) Severity {
	if sev, ok := severityTable[action]; ok {
		return sev
	}
	return SeverityMedium
}

// Actions returns every action in the taxonomy.
func Actions() []Action {
	actions := make([]Action, 0, len(severityTable))
	for a := range severityTable {
		actions = append(actions, a)
	}
	return actions
}

// IsKnownAction reports whether the action is part of the fixed taxonomy.
func IsKnownAction(a Action) bool {
	_, ok := severityTable[a]
	return ok
}

// Entry is a single immutable audit record. Details has passed redaction
// before storage; readers receive copies.
type Entry struct {
	// ID is unique for the process lifetime, including under concurrent
	// logging within the same millisecond.
	ID string `json:"id"`

	// Timestamp is when the entry was recorded.
	Timestamp time.Time `json:"timestamp"`

	// Action is the taxonomy value this entry records.
	Action Action `json:"action"`

	// Severity is derived from Action via the fixed table.
	Severity Severity `json:"severity"`

	// Actor is the user who performed the action, if known.
	Actor string `json:"actor,omitempty"`

	// Machine is the affected machine, if any.
	Machine string `json:"machine,omitempty"`

	// Success records whether the action completed.
	Success bool `json:"success"`

	// Details is the redacted free-form payload.
	Details map[string]any `json:"details,omitempty"`

	// ErrorMessage carries the failure reason when Success is false.
	ErrorMessage string `json:"error_message,omitempty"`
}

// clone returns a copy of the entry with its Details map duplicated so
// callers cannot mutate stored state.
func (e Entry) clone() Entry {
	out := e
	out.Details = copyDetails(e.Details)
	return out
}

func copyDetails(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
