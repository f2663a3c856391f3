package evidence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/lockfleet/lockfleet/internal/audit"
	"github.com/lockfleet/lockfleet/internal/errdefs"
	"github.com/lockfleet/lockfleet/internal/fsys"
)

// DefaultRequiredAuditDays is the staleness threshold when none is
// configured.
const DefaultRequiredAuditDays = 14

const packagePrefix = "package-"

// Config locates the evidence inputs and output directory.
type Config struct {
	// PolicyDir holds generated rule documents (*.xml).
	PolicyDir string
	// AuditDir holds audit exports and the JSONL audit file.
	AuditDir string
	// SnapshotDir holds system snapshot files.
	SnapshotDir string
	// EvidenceDir receives generated packages.
	EvidenceDir string
	// RequiredAuditDays is the staleness threshold in days. Zero means
	// DefaultRequiredAuditDays.
	RequiredAuditDays int
}

// Validator derives evidence readiness from file-system state and
// assembles evidence packages. Package generation is a critical section
// per validator: concurrent calls against the same output directory fail
// with a conflict instead of interleaving writes.
type Validator struct {
	fs    fsys.FS
	trail *audit.Trail
	cfg   Config
	now   func() time.Time

	mu         sync.Mutex
	generating bool
}

// NewValidator creates a validator over the given collaborators.
func NewValidator(filesystem fsys.FS, trail *audit.Trail, cfg Config) *Validator {
	if cfg.RequiredAuditDays <= 0 {
		cfg.RequiredAuditDays = DefaultRequiredAuditDays
	}
	return &Validator{
		fs:    filesystem,
		trail: trail,
		cfg:   cfg,
		now:   time.Now,
	}
}

func (v *Validator) threshold() time.Duration {
	return time.Duration(v.cfg.RequiredAuditDays) * 24 * time.Hour
}

// categoryState maps the newest-artifact probe outcome onto the
// tri-state: absent, stale, or fresh.
func (v *Validator) categoryState(dir string, match func(string) bool, absent, stale, fresh CategoryState) CategoryState {
	_, mod, err := fsys.NewestFile(v.fs, dir, match)
	if err != nil {
		return absent
	}
	if v.now().Sub(mod) > v.threshold() {
		return stale
	}
	return fresh
}

func isPolicyDoc(name string) bool {
	return strings.HasSuffix(name, ".xml")
}

func isAuditArtifact(name string) bool {
	return strings.HasSuffix(name, ".csv") || name == audit.SinkFilename
}

// GetStatus recomputes the evidence status for each category.
func (v *Validator) GetStatus() Status {
	return Status{
		PolicyDefinitions: v.categoryState(v.cfg.PolicyDir, isPolicyDoc, StateIncomplete, StateStale, StateComplete),
		AuditLogs:         v.categoryState(v.cfg.AuditDir, isAuditArtifact, StateMissing, StateStale, StateSynced),
		SystemSnapshots:   v.categoryState(v.cfg.SnapshotDir, nil, StateMissing, StateStale, StateSynced),
		LastUpdate:        v.now(),
	}
}

// ValidateCompleteness enumerates the required evidence categories.
// Absent categories invalidate the set; stale categories only warn.
func (v *Validator) ValidateCompleteness() Completeness {
	status := v.GetStatus()
	result := Completeness{IsValid: true}

	check := func(category Category, state CategoryState) {
		switch state {
		case StateIncomplete, StateMissing:
			result.IsValid = false
			result.MissingItems = append(result.MissingItems, category)
		case StateStale:
			result.Warnings = append(result.Warnings, category)
		}
	}

	check(CategoryPolicyDefinitions, status.PolicyDefinitions)
	check(CategoryAuditLogs, status.AuditLogs)
	check(CategorySystemSnapshots, status.SystemSnapshots)
	return result
}

// GeneratePackage assembles the latest rule document, a fresh audit
// export, and the current snapshots into one package directory. Each
// artifact that cannot be included is reported in the result rather than
// silently omitted; only an unusable output directory aborts the run.
func (v *Validator) GeneratePackage(ctx context.Context) (PackageResult, error) {
	v.mu.Lock()
	if v.generating {
		v.mu.Unlock()
		return PackageResult{}, errdefs.Conflict(v.cfg.EvidenceDir, "package generation already in progress")
	}
	v.generating = true
	v.mu.Unlock()
	defer func() {
		v.mu.Lock()
		v.generating = false
		v.mu.Unlock()
	}()

	id := fmt.Sprintf("%s%s-%s", packagePrefix, v.now().UTC().Format("20060102T150405Z"), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	dir := filepath.Join(v.cfg.EvidenceDir, id)
	if err := v.fs.MkdirAll(dir, 0700); err != nil {
		return PackageResult{}, errdefs.External("filesystem", "create package directory", err)
	}

	result := PackageResult{ID: id, Path: dir}

	// Latest rule document.
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if src, _, err := fsys.NewestFile(v.fs, v.cfg.PolicyDir, isPolicyDoc); err != nil {
		result.Failed = append(result.Failed, ArtifactFailure{ArtifactPolicyDocument, fmt.Sprintf("no rule document found: %v", err)})
	} else if err := v.fs.Copy(src, filepath.Join(dir, filepath.Base(src))); err != nil {
		result.Failed = append(result.Failed, ArtifactFailure{ArtifactPolicyDocument, err.Error()})
	} else {
		result.Included = append(result.Included, ArtifactPolicyDocument)
	}

	// Fresh audit export.
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if csvData, err := v.trail.ExportCSV(); err != nil {
		result.Failed = append(result.Failed, ArtifactFailure{ArtifactAuditExport, err.Error()})
	} else if err := v.fs.WriteFile(filepath.Join(dir, "audit-export.csv"), []byte(csvData), fs.FileMode(0600)); err != nil {
		result.Failed = append(result.Failed, ArtifactFailure{ArtifactAuditExport, err.Error()})
	} else {
		result.Included = append(result.Included, ArtifactAuditExport)
	}

	// System snapshots.
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if err := v.copySnapshots(dir); err != nil {
		result.Failed = append(result.Failed, ArtifactFailure{ArtifactSnapshots, err.Error()})
	} else {
		result.Included = append(result.Included, ArtifactSnapshots)
	}

	// Manifest last, recording exactly what made it in.
	manifest := Manifest{
		ID:          id,
		GeneratedAt: v.now().UTC(),
		Redaction:   "shallow",
		Included:    result.Included,
		Failed:      result.Failed,
	}
	data, err := yaml.Marshal(manifest)
	if err != nil {
		result.Failed = append(result.Failed, ArtifactFailure{ArtifactManifest, err.Error()})
		return result, nil
	}
	if err := v.fs.WriteFile(filepath.Join(dir, "manifest.yaml"), data, fs.FileMode(0600)); err != nil {
		result.Failed = append(result.Failed, ArtifactFailure{ArtifactManifest, err.Error()})
		return result, nil
	}
	result.Included = append(result.Included, ArtifactManifest)
	return result, nil
}

func (v *Validator) copySnapshots(packageDir string) error {
	entries, err := v.fs.ReadDir(v.cfg.SnapshotDir)
	if err != nil {
		return fmt.Errorf("no snapshots found: %w", err)
	}

	snapDir := filepath.Join(packageDir, "snapshots")
	if err := v.fs.MkdirAll(snapDir, 0700); err != nil {
		return err
	}
	copied := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		src := filepath.Join(v.cfg.SnapshotDir, entry.Name())
		if err := v.fs.Copy(src, filepath.Join(snapDir, entry.Name())); err != nil {
			return fmt.Errorf("failed to copy snapshot %s: %w", entry.Name(), err)
		}
		copied++
	}
	if copied == 0 {
		return errors.New("snapshot directory is empty")
	}
	return nil
}

// HistoricalReports lists prior packages in the evidence directory,
// newest first. Packages without a readable manifest still appear, with
// their generation time taken from the directory name stamp.
func (v *Validator) HistoricalReports() ([]Report, error) {
	names, err := fsys.ListDirs(v.fs, v.cfg.EvidenceDir, func(name string) bool {
		return strings.HasPrefix(name, packagePrefix)
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errdefs.External("filesystem", "list evidence directory", err)
	}

	reports := make([]Report, 0, len(names))
	for _, name := range names {
		report := Report{ID: name, Path: filepath.Join(v.cfg.EvidenceDir, name)}
		if data, err := v.fs.ReadFile(filepath.Join(report.Path, "manifest.yaml")); err == nil {
			var manifest Manifest
			if err := yaml.Unmarshal(data, &manifest); err == nil {
				report.GeneratedAt = manifest.GeneratedAt
			}
		}
		if report.GeneratedAt.IsZero() {
			report.GeneratedAt = stampFromName(name)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// stampFromName recovers the generation time embedded in a package
// directory name.
func stampFromName(name string) time.Time {
	rest := strings.TrimPrefix(name, packagePrefix)
	if i := strings.IndexByte(rest, '-'); i > 0 {
		rest = rest[:i]
	}
	t, err := time.Parse("20060102T150405Z", rest)
	if err != nil {
		return time.Time{}
	}
	return t
}
