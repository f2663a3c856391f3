// Package policy compiles inventory and publisher facts into AppLocker
// execution-control rules and their serialized policy documents. The
// compiler is pure and stateless apart from fresh rule identifiers;
// concurrent calls with different inputs are independent.
package policy

import (
	"encoding/xml"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/lockfleet/lockfleet/internal/errdefs"
	"github.com/lockfleet/lockfleet/internal/fsys"
	"github.com/lockfleet/lockfleet/internal/inventory"
)

// RuleType selects the matching condition shape of a generated rule.
type RuleType string

const (
	RuleTypePublisher RuleType = "Publisher"
	RuleTypePath      RuleType = "Path"
	RuleTypeHash      RuleType = "Hash"
)

// RuleAction is the rule's allow/deny disposition.
type RuleAction string

const (
	ActionAllow RuleAction = "Allow"
	ActionDeny  RuleAction = "Deny"
)

// Rule is the domain record produced alongside every XML fragment. It is
// immutable once created and feeds downstream policy-health evaluation.
type Rule struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Type        RuleType           `json:"type"`
	Category    inventory.Category `json:"category"`
	Action      RuleAction         `json:"action"`
	TargetGroup string             `json:"target_group"`
}

// Spec describes one rule to compile. Subject carries the inventory item
// or, for publisher rules, at minimum the name and publisher DN.
type Spec struct {
	Action      RuleAction
	Type        RuleType
	TargetGroup string
	Subject     inventory.Item
}

// Compiler turns rule specs into policy rules and documents.
type Compiler struct {
	fs fsys.FS
}

// NewCompiler creates a compiler writing documents through the given
// file-system collaborator.
func NewCompiler(filesystem fsys.FS) *Compiler {
	return &Compiler{fs: filesystem}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// DisplayName derives the rule display name from a subject name: internal
// whitespace runs collapse to a single hyphen.
func DisplayName(subject string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(subject), "-")
}

// GenerateRuleXML compiles one spec into its XML fragment and domain
// rule. Apart from the freshly generated identifier, output is
// byte-identical for identical input.
func (c *Compiler) GenerateRuleXML(spec Spec) (string, Rule, error) {
	if err := validateSpec(spec); err != nil {
		return "", Rule{}, err
	}

	id := uuid.NewString()
	name := DisplayName(spec.Subject.Name)
	rule := Rule{
		ID:          id,
		Name:        name,
		Type:        spec.Type,
		Category:    spec.Subject.Category,
		Action:      spec.Action,
		TargetGroup: spec.TargetGroup,
	}

	var fragment any
	switch spec.Type {
	case RuleTypePublisher:
		fragment = PublisherRule{
			ID:             id,
			Name:           name,
			Description:    fmt.Sprintf("Publisher rule for %s", spec.Subject.Name),
			UserOrGroupSid: spec.TargetGroup,
			Action:         string(spec.Action),
			Conditions: PublisherConditions{
				Condition: PublisherCondition{
					PublisherName: spec.Subject.Publisher,
					ProductName:   "*",
					BinaryName:    "*",
					VersionRange:  openVersionRange,
				},
			},
		}
	case RuleTypePath:
		fragment = PathRule{
			ID:             id,
			Name:           name,
			Description:    fmt.Sprintf("Path rule for %s", spec.Subject.Name),
			UserOrGroupSid: spec.TargetGroup,
			Action:         string(spec.Action),
			Conditions: PathConditions{
				Condition: PathCondition{Path: spec.Subject.Path},
			},
		}
	case RuleTypeHash:
		fragment = HashRule{
			ID:             id,
			Name:           name,
			Description:    fmt.Sprintf("Hash rule for %s", spec.Subject.Name),
			UserOrGroupSid: spec.TargetGroup,
			Action:         string(spec.Action),
			Conditions: HashConditions{
				Condition: HashCondition{
					Hash: FileHash{
						Type:           "SHA256",
						Data:           spec.Subject.Hash,
						SourceFileName: filepath.Base(spec.Subject.Path),
					},
				},
			},
		}
	}

	data, err := xml.MarshalIndent(fragment, "", "  ")
	if err != nil {
		return "", Rule{}, fmt.Errorf("failed to marshal rule fragment: %w", err)
	}
	return string(data), rule, nil
}

func validateSpec(spec Spec) error {
	if strings.TrimSpace(spec.Subject.Name) == "" {
		return errdefs.Validation("subject", "name is empty")
	}
	if !inventory.IsValidCategory(spec.Subject.Category) {
		return errdefs.Validation("subject", fmt.Sprintf("unknown category %q", spec.Subject.Category))
	}
	if spec.TargetGroup == "" {
		return errdefs.Validation("targetGroup", "target group is required")
	}
	switch spec.Action {
	case ActionAllow, ActionDeny:
	default:
		return errdefs.Validation("action", fmt.Sprintf("unknown action %q", spec.Action))
	}
	switch spec.Type {
	case RuleTypePublisher:
		if spec.Subject.Publisher == "" {
			return errdefs.Validation("subject", "publisher rule requires a publisher distinguished name")
		}
	case RuleTypePath:
		if spec.Subject.Path == "" {
			return errdefs.Validation("subject", "path rule requires a path")
		}
	case RuleTypeHash:
		if spec.Subject.Hash == "" {
			return errdefs.Validation("subject", "hash rule requires a file hash")
		}
	default:
		return errdefs.Validation("ruleType", fmt.Sprintf("unknown rule type %q", spec.Type))
	}
	return nil
}

// BatchOptions configures batch generation.
type BatchOptions struct {
	Action      RuleAction
	Type        RuleType
	TargetGroup string
	// GroupByPublisher merges items sharing a publisher DN into a single
	// publisher rule. Only meaningful with RuleTypePublisher.
	GroupByPublisher bool
	// EnforcementMode is stamped on every rule collection. Defaults to
	// AuditOnly: new documents start in audit mode until promoted.
	EnforcementMode string
}

// ItemFailure records why one item was skipped during a batch.
type ItemFailure struct {
	Item string `json:"item"`
	Err  string `json:"error"`
}

// BatchResult reports the outcome of a batch generation.
type BatchResult struct {
	Success    bool          `json:"success"`
	OutputPath string        `json:"output_path,omitempty"`
	Rules      []Rule        `json:"rules,omitempty"`
	Failures   []ItemFailure `json:"failures,omitempty"`
	Err        string        `json:"error,omitempty"`
}

// BatchGenerateRules compiles every item and assembles one policy
// document at outputPath. Per-item failures do not abort the batch:
// whatever compiled is still written, and Success is false only when
// nothing could be produced or the write itself failed.
func (c *Compiler) BatchGenerateRules(items []inventory.Item, outputPath string, opts BatchOptions) BatchResult {
	result := BatchResult{}
	if opts.EnforcementMode == "" {
		opts.EnforcementMode = "AuditOnly"
	}

	doc := Document{Version: "1"}
	collections := make(map[inventory.Category]*Collection)
	seenPublishers := make(map[string]bool)

	for _, item := range items {
		if opts.GroupByPublisher && opts.Type == RuleTypePublisher {
			key := string(item.Category) + "\x00" + item.Publisher
			if item.Publisher != "" && seenPublishers[key] {
				continue
			}
			seenPublishers[key] = true
		}

		spec := Spec{
			Action:      opts.Action,
			Type:        opts.Type,
			TargetGroup: opts.TargetGroup,
			Subject:     item,
		}
		_, rule, err := c.GenerateRuleXML(spec)
		if err != nil {
			result.Failures = append(result.Failures, ItemFailure{Item: item.Name, Err: err.Error()})
			continue
		}
		result.Rules = append(result.Rules, rule)
		c.appendRule(collections, spec, rule, opts.EnforcementMode)
	}

	if len(result.Rules) == 0 {
		result.Err = "no rules could be generated"
		if len(result.Failures) > 0 {
			result.Err = fmt.Sprintf("no rules could be generated: %d item(s) failed", len(result.Failures))
		}
		return result
	}

	for _, category := range inventory.Categories() {
		if coll, ok := collections[category]; ok {
			doc.Collections = append(doc.Collections, *coll)
		}
	}

	data, err := doc.Marshal()
	if err != nil {
		result.Err = err.Error()
		return result
	}
	if err := c.fs.MkdirAll(filepath.Dir(outputPath), 0700); err != nil {
		result.Err = errdefs.External("filesystem", "create output directory", err).Error()
		return result
	}
	if err := c.fs.WriteFile(outputPath, data, fs.FileMode(0600)); err != nil {
		result.Err = errdefs.External("filesystem", "write policy document", err).Error()
		return result
	}

	result.Success = true
	result.OutputPath = outputPath
	return result
}

// appendRule regenerates the typed fragment for the compiled rule and
// slots it into the right collection. The fragment reuses the rule's
// already-assigned identifier so document and domain record agree.
func (c *Compiler) appendRule(collections map[inventory.Category]*Collection, spec Spec, rule Rule, enforcementMode string) {
	coll, ok := collections[spec.Subject.Category]
	if !ok {
		ctype, err := collectionType(spec.Subject.Category)
		if err != nil {
			return
		}
		coll = &Collection{Type: ctype, EnforcementMode: enforcementMode}
		collections[spec.Subject.Category] = coll
	}

	switch spec.Type {
	case RuleTypePublisher:
		coll.PublisherRules = append(coll.PublisherRules, PublisherRule{
			ID:             rule.ID,
			Name:           rule.Name,
			Description:    fmt.Sprintf("Publisher rule for %s", spec.Subject.Name),
			UserOrGroupSid: rule.TargetGroup,
			Action:         string(rule.Action),
			Conditions: PublisherConditions{
				Condition: PublisherCondition{
					PublisherName: spec.Subject.Publisher,
					ProductName:   "*",
					BinaryName:    "*",
					VersionRange:  openVersionRange,
				},
			},
		})
	case RuleTypePath:
		coll.PathRules = append(coll.PathRules, PathRule{
			ID:             rule.ID,
			Name:           rule.Name,
			Description:    fmt.Sprintf("Path rule for %s", spec.Subject.Name),
			UserOrGroupSid: rule.TargetGroup,
			Action:         string(rule.Action),
			Conditions:     PathConditions{Condition: PathCondition{Path: spec.Subject.Path}},
		})
	case RuleTypeHash:
		coll.HashRules = append(coll.HashRules, HashRule{
			ID:             rule.ID,
			Name:           rule.Name,
			Description:    fmt.Sprintf("Hash rule for %s", spec.Subject.Name),
			UserOrGroupSid: rule.TargetGroup,
			Action:         string(rule.Action),
			Conditions: HashConditions{
				Condition: HashCondition{
					Hash: FileHash{Type: "SHA256", Data: spec.Subject.Hash, SourceFileName: filepath.Base(spec.Subject.Path)},
				},
			},
		})
	}
}
