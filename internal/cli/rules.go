package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lockfleet/lockfleet/internal/audit"
	"github.com/lockfleet/lockfleet/internal/inventory"
	"github.com/lockfleet/lockfleet/internal/policy"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Compile inventory into AppLocker rule documents",
}

var rulesGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a rule document from a scanned inventory",
	Long: `Generate an AppLocker policy document from an inventory file.

Each inventory item becomes one rule of the selected type. With
--group-by-publisher, items sharing a publisher merge into a single
publisher rule. Per-item failures are reported but do not abort the
batch.

Examples:
  lockfleet rules generate --inventory scan.yaml
  lockfleet rules generate --inventory scan.yaml --type Publisher --group-by-publisher`,
	RunE: runRulesGenerate,
}

var rulesPublisherCmd = &cobra.Command{
	Use:   "publisher",
	Short: "Generate publisher rules from a trusted publisher list",
	Long: `Generate an AppLocker policy document containing one publisher rule
per trusted publisher. Distinguished names are validated against the
O=...[,L=...][,S=...][,C=...] grammar before compilation; invalid
entries are rejected and reported.

Example:
  lockfleet rules publisher --publishers trusted.yaml`,
	RunE: runRulesPublisher,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesGenerateCmd)
	rulesCmd.AddCommand(rulesPublisherCmd)

	rulesGenerateCmd.Flags().String("inventory", "", "inventory YAML file (required)")
	rulesGenerateCmd.Flags().String("type", string(policy.RuleTypePublisher), "rule type: Publisher, Path, or Hash")
	rulesGenerateCmd.Flags().String("action", string(policy.ActionAllow), "rule action: Allow or Deny")
	rulesGenerateCmd.Flags().String("target-group", "", "target group (default from config)")
	rulesGenerateCmd.Flags().Bool("group-by-publisher", false, "merge items sharing a publisher into one rule")
	rulesGenerateCmd.Flags().String("output", "", "output path (default <policy_dir>/policy-<stamp>.xml)")
	_ = rulesGenerateCmd.MarkFlagRequired("inventory")

	rulesPublisherCmd.Flags().String("publishers", "", "trusted publisher YAML file (required)")
	rulesPublisherCmd.Flags().String("action", string(policy.ActionAllow), "rule action: Allow or Deny")
	rulesPublisherCmd.Flags().String("target-group", "", "target group (default from config)")
	rulesPublisherCmd.Flags().String("output", "", "output path (default <policy_dir>/publishers-<stamp>.xml)")
	_ = rulesPublisherCmd.MarkFlagRequired("publishers")
}

func runRulesGenerate(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	inventoryPath, _ := cmd.Flags().GetString("inventory")
	ruleType, _ := cmd.Flags().GetString("type")
	action, _ := cmd.Flags().GetString("action")
	targetGroup, _ := cmd.Flags().GetString("target-group")
	groupByPublisher, _ := cmd.Flags().GetBool("group-by-publisher")
	output, _ := cmd.Flags().GetString("output")

	if targetGroup == "" {
		targetGroup = a.cfg.Defaults.TargetGroup
	}
	if output == "" {
		output = filepath.Join(a.cfg.Paths.PolicyDir, fmt.Sprintf("policy-%s.xml", time.Now().UTC().Format("20060102T150405Z")))
	}

	items, err := inventory.LoadItems(inventoryPath)
	if err != nil {
		return err
	}

	result := a.compiler.BatchGenerateRules(items, output, policy.BatchOptions{
		Action:           policy.RuleAction(action),
		Type:             policy.RuleType(ruleType),
		TargetGroup:      targetGroup,
		GroupByPublisher: groupByPublisher,
		EnforcementMode:  a.cfg.Defaults.EnforcementMode,
	})
	a.trail.LogAs(audit.RuleCreated, actor(), "", map[string]any{
		"ruleCount":  len(result.Rules),
		"outputPath": result.OutputPath,
	}, result.Success, result.Err)

	return reportBatch(result)
}

func runRulesPublisher(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	publishersPath, _ := cmd.Flags().GetString("publishers")
	action, _ := cmd.Flags().GetString("action")
	targetGroup, _ := cmd.Flags().GetString("target-group")
	output, _ := cmd.Flags().GetString("output")

	if targetGroup == "" {
		targetGroup = a.cfg.Defaults.TargetGroup
	}
	if output == "" {
		output = filepath.Join(a.cfg.Paths.PolicyDir, fmt.Sprintf("publishers-%s.xml", time.Now().UTC().Format("20060102T150405Z")))
	}

	pubs, err := inventory.LoadPublishers(publishersPath)
	if err != nil {
		return err
	}

	result := a.compiler.BatchCreatePublisherRules(pubs, output, policy.BatchOptions{
		Action:          policy.RuleAction(action),
		TargetGroup:     targetGroup,
		EnforcementMode: a.cfg.Defaults.EnforcementMode,
	})
	a.trail.LogAs(audit.RuleCreated, actor(), "", map[string]any{
		"ruleCount":  len(result.Rules),
		"outputPath": result.OutputPath,
	}, result.Success, result.Err)

	return reportBatch(result)
}

func reportBatch(result policy.BatchResult) error {
	for _, failure := range result.Failures {
		fmt.Printf("skipped %s: %s\n", failure.Item, failure.Err)
	}
	if !result.Success {
		return fmt.Errorf("rule generation failed: %s", result.Err)
	}
	fmt.Printf("Wrote %d rule(s) to %s\n", len(result.Rules), result.OutputPath)
	return nil
}
