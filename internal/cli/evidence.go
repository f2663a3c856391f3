package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Validate and assemble compliance evidence",
}

var evidenceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show evidence freshness per category",
	RunE:  runEvidenceStatus,
}

var evidenceValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check evidence completeness",
	Long: `Check whether the evidence set can back a certification.

Missing categories make the set invalid; stale categories warn without
affecting validity. The command exits non-zero when the set is invalid.`,
	RunE: runEvidenceValidate,
}

var evidencePackageCmd = &cobra.Command{
	Use:   "package",
	Short: "Assemble an evidence package",
	Long: `Assemble the latest rule document, a fresh audit export, and the
current system snapshots into one package under the evidence directory.
Artifacts that cannot be included are reported, not silently omitted.`,
	RunE: runEvidencePackage,
}

var evidenceHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List prior evidence packages, newest first",
	RunE:  runEvidenceHistory,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.AddCommand(evidenceStatusCmd)
	evidenceCmd.AddCommand(evidenceValidateCmd)
	evidenceCmd.AddCommand(evidencePackageCmd)
	evidenceCmd.AddCommand(evidenceHistoryCmd)
}

func runEvidenceStatus(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	status := a.validator.GetStatus()
	fmt.Printf("Policy definitions: %s\n", status.PolicyDefinitions)
	fmt.Printf("Audit logs:         %s\n", status.AuditLogs)
	fmt.Printf("System snapshots:   %s\n", status.SystemSnapshots)
	fmt.Printf("Checked at:         %s\n", status.LastUpdate.Format(time.RFC3339))
	return nil
}

func runEvidenceValidate(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	result := a.validator.ValidateCompleteness()
	for _, warning := range result.Warnings {
		fmt.Printf("warning: %s is stale\n", warning)
	}
	for _, missing := range result.MissingItems {
		fmt.Printf("missing: %s\n", missing)
	}
	if !result.IsValid {
		return fmt.Errorf("evidence set is incomplete: %d categor(ies) missing", len(result.MissingItems))
	}
	fmt.Println("Evidence set is complete.")
	return nil
}

func runEvidencePackage(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	result, err := a.validator.GeneratePackage(ctx)
	a.trail.LogEvidenceGenerated(actor(), result.ID, err == nil && len(result.Failed) == 0, errString(err))
	if err != nil {
		return err
	}

	fmt.Printf("Package: %s\n", result.Path)
	for _, artifact := range result.Included {
		fmt.Printf("  included: %s\n", artifact)
	}
	for _, failure := range result.Failed {
		fmt.Printf("  failed:   %s (%s)\n", failure.Artifact, failure.Err)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("package generated with %d missing artifact(s)", len(result.Failed))
	}
	return nil
}

func runEvidenceHistory(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	reports, err := a.validator.HistoricalReports()
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println("No evidence packages found.")
		return nil
	}

	for _, report := range reports {
		stamp := ""
		if !report.GeneratedAt.IsZero() {
			stamp = report.GeneratedAt.Format(time.RFC3339)
		}
		fmt.Printf("%-45s %s\n", report.ID, stamp)
	}
	fmt.Printf("\n%d package(s) found.\n", len(reports))
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
