package evidence

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lockfleet/lockfleet/internal/audit"
	"github.com/lockfleet/lockfleet/internal/errdefs"
	"github.com/lockfleet/lockfleet/internal/fsys"
)

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func testConfig() Config {
	return Config{
		PolicyDir:   "policies",
		AuditDir:    "audit",
		SnapshotDir: "snapshots",
		EvidenceDir: "evidence",
	}
}

func newTestValidator(t *testing.T, mem *fsys.MemFS) (*Validator, *audit.Trail) {
	t.Helper()
	trail := audit.NewTrail(audit.Options{})
	v := NewValidator(mem, trail, testConfig())
	v.now = func() time.Time { return testNow }
	return v, trail
}

func TestGetStatus(t *testing.T) {
	t.Run("empty directories report absence", func(t *testing.T) {
		v, _ := newTestValidator(t, fsys.NewMemFS())
		status := v.GetStatus()
		if status.PolicyDefinitions != StateIncomplete {
			t.Errorf("policy definitions = %s, want INCOMPLETE", status.PolicyDefinitions)
		}
		if status.AuditLogs != StateMissing {
			t.Errorf("audit logs = %s, want MISSING", status.AuditLogs)
		}
		if status.SystemSnapshots != StateMissing {
			t.Errorf("snapshots = %s, want MISSING", status.SystemSnapshots)
		}
	})

	t.Run("fresh artifacts report presence", func(t *testing.T) {
		mem := fsys.NewMemFS()
		mem.WriteFileAt("policies/policy-1.xml", []byte("<doc/>"), testNow.Add(-time.Hour))
		mem.WriteFileAt("audit/audit.jsonl", []byte("{}\n"), testNow.Add(-time.Hour))
		mem.WriteFileAt("snapshots/machines.yaml", []byte("machines: []"), testNow.Add(-time.Hour))

		v, _ := newTestValidator(t, mem)
		status := v.GetStatus()
		if status.PolicyDefinitions != StateComplete {
			t.Errorf("policy definitions = %s, want COMPLETE", status.PolicyDefinitions)
		}
		if status.AuditLogs != StateSynced {
			t.Errorf("audit logs = %s, want SYNCED", status.AuditLogs)
		}
		if status.SystemSnapshots != StateSynced {
			t.Errorf("snapshots = %s, want SYNCED", status.SystemSnapshots)
		}
	})

	t.Run("artifacts past the threshold are stale", func(t *testing.T) {
		mem := fsys.NewMemFS()
		mem.WriteFileAt("policies/policy-1.xml", []byte("<doc/>"), testNow.AddDate(0, 0, -20))

		v, _ := newTestValidator(t, mem)
		if got := v.GetStatus().PolicyDefinitions; got != StateStale {
			t.Errorf("policy definitions = %s, want STALE", got)
		}
	})

	t.Run("newest artifact decides", func(t *testing.T) {
		mem := fsys.NewMemFS()
		mem.WriteFileAt("policies/policy-old.xml", []byte("<doc/>"), testNow.AddDate(0, 0, -30))
		mem.WriteFileAt("policies/policy-new.xml", []byte("<doc/>"), testNow.Add(-time.Hour))

		v, _ := newTestValidator(t, mem)
		if got := v.GetStatus().PolicyDefinitions; got != StateComplete {
			t.Errorf("policy definitions = %s, want COMPLETE", got)
		}
	})

	t.Run("non-matching files ignored", func(t *testing.T) {
		mem := fsys.NewMemFS()
		mem.WriteFileAt("policies/readme.txt", []byte("notes"), testNow)

		v, _ := newTestValidator(t, mem)
		if got := v.GetStatus().PolicyDefinitions; got != StateIncomplete {
			t.Errorf("policy definitions = %s, want INCOMPLETE", got)
		}
	})
}

func TestValidateCompleteness(t *testing.T) {
	t.Run("missing audit logs with stale policy", func(t *testing.T) {
		mem := fsys.NewMemFS()
		mem.WriteFileAt("policies/policy-1.xml", []byte("<doc/>"), testNow.AddDate(0, 0, -20))
		mem.WriteFileAt("snapshots/machines.yaml", []byte("machines: []"), testNow.Add(-time.Hour))

		v, _ := newTestValidator(t, mem)
		result := v.ValidateCompleteness()
		if result.IsValid {
			t.Error("evidence set with missing audit logs reported valid")
		}
		if len(result.MissingItems) != 1 || result.MissingItems[0] != CategoryAuditLogs {
			t.Errorf("missing items = %v", result.MissingItems)
		}
		if len(result.Warnings) != 1 || result.Warnings[0] != CategoryPolicyDefinitions {
			t.Errorf("warnings = %v", result.Warnings)
		}
	})

	t.Run("all fresh is valid", func(t *testing.T) {
		mem := fsys.NewMemFS()
		mem.WriteFileAt("policies/policy-1.xml", []byte("<doc/>"), testNow.Add(-time.Hour))
		mem.WriteFileAt("audit/export.csv", []byte("ID\n"), testNow.Add(-time.Hour))
		mem.WriteFileAt("snapshots/machines.yaml", []byte("machines: []"), testNow.Add(-time.Hour))

		v, _ := newTestValidator(t, mem)
		result := v.ValidateCompleteness()
		if !result.IsValid || len(result.MissingItems) != 0 || len(result.Warnings) != 0 {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("stale alone stays valid", func(t *testing.T) {
		mem := fsys.NewMemFS()
		mem.WriteFileAt("policies/policy-1.xml", []byte("<doc/>"), testNow.AddDate(0, 0, -20))
		mem.WriteFileAt("audit/export.csv", []byte("ID\n"), testNow.AddDate(0, 0, -20))
		mem.WriteFileAt("snapshots/machines.yaml", []byte("machines: []"), testNow.AddDate(0, 0, -20))

		v, _ := newTestValidator(t, mem)
		result := v.ValidateCompleteness()
		if !result.IsValid {
			t.Error("stale evidence invalidated the set")
		}
		if len(result.Warnings) != 3 {
			t.Errorf("warnings = %v", result.Warnings)
		}
	})
}

func TestGeneratePackage(t *testing.T) {
	seed := func(mem *fsys.MemFS) {
		mem.WriteFileAt("policies/policy-1.xml", []byte("<doc/>"), testNow.Add(-time.Hour))
		mem.WriteFileAt("snapshots/machines.yaml", []byte("machines: []"), testNow.Add(-time.Hour))
	}

	t.Run("full package", func(t *testing.T) {
		mem := fsys.NewMemFS()
		seed(mem)
		v, trail := newTestValidator(t, mem)
		trail.LogAs(audit.PolicyCreated, "alice", "", map[string]any{"policyName": "baseline"}, true, "")

		result, err := v.GeneratePackage(context.Background())
		if err != nil {
			t.Fatalf("GeneratePackage failed: %v", err)
		}
		if !strings.HasPrefix(result.ID, "package-20260314T092653Z-") {
			t.Errorf("package id = %q", result.ID)
		}
		if len(result.Failed) != 0 {
			t.Errorf("unexpected failures: %+v", result.Failed)
		}
		if len(result.Included) != 4 {
			t.Errorf("included = %v, want all four artifacts", result.Included)
		}

		if _, err := mem.ReadFile(result.Path + "/policy-1.xml"); err != nil {
			t.Error("rule document not copied into the package")
		}
		csvData, err := mem.ReadFile(result.Path + "/audit-export.csv")
		if err != nil {
			t.Fatal("audit export missing from the package")
		}
		if !strings.Contains(string(csvData), "POLICY_CREATED") {
			t.Error("audit export does not carry the logged entry")
		}
		if _, err := mem.ReadFile(result.Path + "/snapshots/machines.yaml"); err != nil {
			t.Error("snapshot not copied into the package")
		}

		data, err := mem.ReadFile(result.Path + "/manifest.yaml")
		if err != nil {
			t.Fatal("manifest missing from the package")
		}
		var manifest Manifest
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			t.Fatalf("manifest not parseable: %v", err)
		}
		if manifest.ID != result.ID || manifest.Redaction != "shallow" {
			t.Errorf("manifest = %+v", manifest)
		}
		// The manifest records what was known when it was written, so it
		// lists the three prior artifacts but not itself.
		if len(manifest.Included) != 3 {
			t.Errorf("manifest included = %v", manifest.Included)
		}
	})

	t.Run("missing artifacts are reported not fatal", func(t *testing.T) {
		v, _ := newTestValidator(t, fsys.NewMemFS())

		result, err := v.GeneratePackage(context.Background())
		if err != nil {
			t.Fatalf("GeneratePackage failed: %v", err)
		}
		failed := make(map[Artifact]bool)
		for _, f := range result.Failed {
			failed[f.Artifact] = true
		}
		if !failed[ArtifactPolicyDocument] || !failed[ArtifactSnapshots] {
			t.Errorf("failed = %+v", result.Failed)
		}
		// The audit export always succeeds: an empty trail still exports a
		// header-only CSV.
		if failed[ArtifactAuditExport] {
			t.Error("empty audit trail reported as a failed artifact")
		}
		if _, err := v.fs.ReadFile(result.Path + "/manifest.yaml"); err != nil {
			t.Errorf("manifest not written despite artifact failures: %v", err)
		}
	})

	t.Run("unusable output directory aborts", func(t *testing.T) {
		mem := fsys.NewMemFS()
		seed(mem)
		mem.FailWrites = errors.New("read-only file system")
		v, _ := newTestValidator(t, mem)

		_, err := v.GeneratePackage(context.Background())
		var eerr *errdefs.ExternalServiceError
		if !errors.As(err, &eerr) {
			t.Errorf("got %v, want ExternalServiceError", err)
		}
	})

	t.Run("concurrent generation conflicts", func(t *testing.T) {
		mem := fsys.NewMemFS()
		seed(mem)
		v, _ := newTestValidator(t, mem)

		v.mu.Lock()
		v.generating = true
		v.mu.Unlock()

		_, err := v.GeneratePackage(context.Background())
		var cerr *errdefs.ConflictError
		if !errors.As(err, &cerr) {
			t.Fatalf("got %v, want ConflictError", err)
		}

		v.mu.Lock()
		v.generating = false
		v.mu.Unlock()
		if _, err := v.GeneratePackage(context.Background()); err != nil {
			t.Errorf("generation after release failed: %v", err)
		}
	})

	t.Run("cancelled context stops between artifacts", func(t *testing.T) {
		mem := fsys.NewMemFS()
		seed(mem)
		v, _ := newTestValidator(t, mem)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := v.GeneratePackage(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context.Canceled", err)
		}
	})
}

func TestHistoricalReports(t *testing.T) {
	t.Run("missing evidence directory yields nothing", func(t *testing.T) {
		v, _ := newTestValidator(t, fsys.NewMemFS())
		reports, err := v.HistoricalReports()
		if err != nil {
			t.Fatalf("HistoricalReports failed: %v", err)
		}
		if len(reports) != 0 {
			t.Errorf("reports = %+v", reports)
		}
	})

	t.Run("newest first with manifest timestamps", func(t *testing.T) {
		mem := fsys.NewMemFS()
		older := Manifest{ID: "package-20260301T000000Z-aaaaaaaa", GeneratedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
		newer := Manifest{ID: "package-20260310T000000Z-bbbbbbbb", GeneratedAt: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)}
		for _, m := range []Manifest{older, newer} {
			data, err := yaml.Marshal(m)
			if err != nil {
				t.Fatal(err)
			}
			mem.WriteFileAt("evidence/"+m.ID+"/manifest.yaml", data, m.GeneratedAt)
		}
		// A package whose manifest was lost still appears, dated from its
		// directory name.
		mem.WriteFileAt("evidence/package-20260305T120000Z-cccccccc/audit-export.csv", []byte("ID\n"), testNow)
		// Unrelated directories are not packages.
		mem.WriteFileAt("evidence/scratch/notes.txt", []byte("x"), testNow)

		v, _ := newTestValidator(t, mem)
		reports, err := v.HistoricalReports()
		if err != nil {
			t.Fatalf("HistoricalReports failed: %v", err)
		}
		if len(reports) != 3 {
			t.Fatalf("got %d reports, want 3: %+v", len(reports), reports)
		}
		if reports[0].ID != newer.ID || reports[2].ID != older.ID {
			t.Errorf("order = %s, %s, %s", reports[0].ID, reports[1].ID, reports[2].ID)
		}
		if !reports[1].GeneratedAt.Equal(time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)) {
			t.Errorf("fallback timestamp = %v", reports[1].GeneratedAt)
		}
	})
}

func TestStampFromName(t *testing.T) {
	tests := []struct {
		name     string
		expected time.Time
	}{
		{"package-20260314T092653Z-deadbeef", time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)},
		{"package-garbage", time.Time{}},
		{"package-", time.Time{}},
	}
	for _, tt := range tests {
		if got := stampFromName(tt.name); !got.Equal(tt.expected) {
			t.Errorf("stampFromName(%q) = %v, want %v", tt.name, got, tt.expected)
		}
	}
}
