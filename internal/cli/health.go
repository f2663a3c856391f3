package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lockfleet/lockfleet/internal/fsys"
	"github.com/lockfleet/lockfleet/internal/health"
	"github.com/lockfleet/lockfleet/internal/inventory"
	"github.com/lockfleet/lockfleet/internal/policy"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Score policy health against the rollout phase",
	Long: `Run a health check over the latest rule document.

Findings are bucketed by consequence: missing coverage for an in-scope
category is critical, duplicate rules warn, and trusted publishers with
no corresponding rule are informational. The score starts at the
configured base and subtracts per-finding penalties, clamped at zero.

Example:
  lockfleet health --phase 2 --publishers trusted.yaml`,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)

	healthCmd.Flags().Int("phase", 0, "rollout phase 1-4 (default from config)")
	healthCmd.Flags().String("publishers", "", "trusted publisher YAML file for orphan detection")
	healthCmd.Flags().String("document", "", "rule document to check (default newest in policy_dir)")
}

func runHealth(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	phase, _ := cmd.Flags().GetInt("phase")
	publishersPath, _ := cmd.Flags().GetString("publishers")
	document, _ := cmd.Flags().GetString("document")

	if phase == 0 {
		phase = a.cfg.Health.Phase
	}
	if phase < 1 || phase > 4 {
		return fmt.Errorf("invalid phase: %d (must be 1-4)", phase)
	}

	filesystem := fsys.OS{}
	if document == "" {
		newest, _, err := fsys.NewestFile(filesystem, a.cfg.Paths.PolicyDir, func(name string) bool {
			return len(name) > 4 && name[len(name)-4:] == ".xml"
		})
		if err != nil {
			return fmt.Errorf("no rule document found in %s: %w", a.cfg.Paths.PolicyDir, err)
		}
		document = newest
	}

	data, err := filesystem.ReadFile(document)
	if err != nil {
		return fmt.Errorf("failed to read rule document: %w", err)
	}
	doc, err := policy.ParseDocument(data)
	if err != nil {
		return err
	}

	var pubs []inventory.TrustedPublisher
	if publishersPath != "" {
		pubs, err = inventory.LoadPublishers(publishersPath)
		if err != nil {
			return err
		}
	}

	weights := health.Weights{
		BaseScore:       a.cfg.Health.BaseScore,
		CriticalPenalty: a.cfg.Health.CriticalPenalty,
		WarningPenalty:  a.cfg.Health.WarningPenalty,
		InfoPenalty:     a.cfg.Health.InfoPenalty,
	}
	report := health.RunHealthCheck(doc.Rules(), pubs, health.Phase(phase), weights)

	fmt.Printf("Document: %s\n", document)
	fmt.Printf("Phase: %d\n", phase)
	fmt.Printf("Score: %d/%d\n", report.Score, weights.BaseScore)
	fmt.Printf("Findings: %d critical, %d warning, %d info\n", report.Critical, report.Warning, report.Info)
	for _, finding := range report.Findings {
		fmt.Printf("  [%s] %s\n", finding.Level, finding.Message)
	}
	return nil
}
