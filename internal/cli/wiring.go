package cli

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/lockfleet/lockfleet/internal/audit"
	"github.com/lockfleet/lockfleet/internal/config"
	"github.com/lockfleet/lockfleet/internal/evidence"
	"github.com/lockfleet/lockfleet/internal/fsys"
	"github.com/lockfleet/lockfleet/internal/policy"
)

// app bundles the core components a command needs. Components are
// constructed per invocation and injected explicitly; there is no
// package-level shared state.
type app struct {
	cfg       *config.Config
	trail     *audit.Trail
	sink      *audit.Sink
	compiler  *policy.Compiler
	validator *evidence.Validator
}

// newApp loads configuration and wires the core.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &app{cfg: cfg}

	opts := audit.Options{MaxEntries: cfg.Audit.MaxEntries}
	if cfg.Audit.Persist {
		if err := os.MkdirAll(cfg.Paths.AuditDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create audit directory: %w", err)
		}
		sink, err := audit.NewSink(cfg.Paths.AuditDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit sink: %w", err)
		}
		a.sink = sink
		opts.Sink = sink
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Persisting audit entries to", sink.Path())
		}
	}
	a.trail = audit.NewTrail(opts)

	filesystem := fsys.OS{}
	a.compiler = policy.NewCompiler(filesystem)
	a.validator = evidence.NewValidator(filesystem, a.trail, evidence.Config{
		PolicyDir:         cfg.Paths.PolicyDir,
		AuditDir:          cfg.Paths.AuditDir,
		SnapshotDir:       cfg.Paths.SnapshotDir,
		EvidenceDir:       cfg.Paths.EvidenceDir,
		RequiredAuditDays: cfg.Audit.RequiredAuditDays,
	})
	return a, nil
}

// close flushes the audit sink, if any.
func (a *app) close() {
	if a.sink != nil {
		_ = a.sink.Close()
	}
}
