// Package evidence validates compliance evidence freshness and assembles
// certifiable evidence packages from rule documents, audit exports, and
// system snapshots.
package evidence

import (
	"time"
)

// CategoryState is the tri-state freshness of one evidence category.
type CategoryState string

const (
	// StateComplete and StateSynced mean a recent artifact exists.
	StateComplete CategoryState = "COMPLETE"
	StateSynced   CategoryState = "SYNCED"
	// StateStale means the newest artifact is older than the threshold.
	StateStale CategoryState = "STALE"
	// StateIncomplete and StateMissing mean no artifact exists at all.
	StateIncomplete CategoryState = "INCOMPLETE"
	StateMissing    CategoryState = "MISSING"
)

// Category names the evidence categories an auditor requires.
type Category string

const (
	CategoryPolicyDefinitions Category = "policy_definitions"
	CategoryAuditLogs         Category = "audit_logs"
	CategorySystemSnapshots   Category = "system_snapshots"
)

// Status is the derived evidence readiness, recomputed on every call and
// never persisted.
type Status struct {
	PolicyDefinitions CategoryState `json:"policy_definitions"`
	AuditLogs         CategoryState `json:"audit_logs"`
	SystemSnapshots   CategoryState `json:"system_snapshots"`
	LastUpdate        time.Time     `json:"last_update"`
}

// Completeness reports whether the evidence set can back a compliance
// certification. Stale categories warn without blocking validity.
type Completeness struct {
	IsValid      bool       `json:"is_valid"`
	MissingItems []Category `json:"missing_items,omitempty"`
	Warnings     []Category `json:"warnings,omitempty"`
}

// Artifact names one piece of an evidence package.
type Artifact string

const (
	ArtifactPolicyDocument Artifact = "policy_document"
	ArtifactAuditExport    Artifact = "audit_export"
	ArtifactSnapshots      Artifact = "system_snapshots"
	ArtifactManifest       Artifact = "manifest"
)

// ArtifactFailure records why an artifact could not be included.
type ArtifactFailure struct {
	Artifact Artifact `json:"artifact"`
	Err      string   `json:"error"`
}

// PackageResult reports a package generation: which artifacts made it in
// and which failed. A package with failures is still a package; the
// caller decides whether the gaps are acceptable.
type PackageResult struct {
	ID       string            `json:"id"`
	Path     string            `json:"path"`
	Included []Artifact        `json:"included"`
	Failed   []ArtifactFailure `json:"failed,omitempty"`
}

// Manifest is written into every package as manifest.yaml.
type Manifest struct {
	ID          string            `yaml:"id"`
	GeneratedAt time.Time         `yaml:"generated_at"`
	Redaction   string            `yaml:"redaction"`
	Included    []Artifact        `yaml:"included"`
	Failed      []ArtifactFailure `yaml:"failed,omitempty"`
}

// Report summarizes one historical evidence package.
type Report struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	GeneratedAt time.Time `json:"generated_at"`
}
