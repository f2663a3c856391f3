package policy

import (
	"fmt"
	"regexp"

	"github.com/lockfleet/lockfleet/internal/errdefs"
	"github.com/lockfleet/lockfleet/internal/inventory"
)

// dnGrammar is the accepted publisher distinguished-name shape:
// a mandatory O= component followed by optional L=, S=, C= components in
// that order, comma separated. Component values may contain anything but
// a comma.
var dnGrammar = regexp.MustCompile(`^O=[^,]+(,\s*L=[^,]+)?(,\s*S=[^,]+)?(,\s*C=[^,]+)?$`)

// ValidatePublisherDN rejects distinguished names outside the grammar
// before any serialization happens, so a malformed DN can never reach a
// generated document.
func ValidatePublisherDN(dn string) error {
	if dn == "" {
		return errdefs.Validation("publisher", "distinguished name is empty")
	}
	if !dnGrammar.MatchString(dn) {
		return errdefs.Validation("publisher", fmt.Sprintf("distinguished name %q does not match O=...[,L=...][,S=...][,C=...]", dn))
	}
	return nil
}

// CreatePublisherRule compiles a rule from a bare publisher string. The
// DN is validated against the grammar first; the derived subject name is
// the DN's organization component.
func (c *Compiler) CreatePublisherRule(dn, targetGroup string, action RuleAction, category inventory.Category) (string, Rule, error) {
	if err := ValidatePublisherDN(dn); err != nil {
		return "", Rule{}, err
	}
	return c.GenerateRuleXML(Spec{
		Action:      action,
		Type:        RuleTypePublisher,
		TargetGroup: targetGroup,
		Subject: inventory.Item{
			Name:      organizationOf(dn),
			Publisher: dn,
			Category:  category,
		},
	})
}

// BatchCreatePublisherRules compiles one rule per trusted publisher into
// a document at outputPath. Invalid DNs are collected as item failures;
// valid publishers still produce a document.
func (c *Compiler) BatchCreatePublisherRules(pubs []inventory.TrustedPublisher, outputPath string, opts BatchOptions) BatchResult {
	opts.Type = RuleTypePublisher

	var items []inventory.Item
	var invalid []ItemFailure
	for _, pub := range pubs {
		if err := ValidatePublisherDN(pub.DistinguishedName); err != nil {
			invalid = append(invalid, ItemFailure{Item: pub.Name, Err: err.Error()})
			continue
		}
		categories := pub.Categories
		if len(categories) == 0 {
			categories = []inventory.Category{inventory.CategoryEXE}
		}
		name := pub.Name
		if name == "" {
			name = organizationOf(pub.DistinguishedName)
		}
		for _, category := range categories {
			items = append(items, inventory.Item{
				Name:      name,
				Publisher: pub.DistinguishedName,
				Category:  category,
			})
		}
	}

	result := c.BatchGenerateRules(items, outputPath, opts)
	result.Failures = append(invalid, result.Failures...)
	return result
}

var orgComponent = regexp.MustCompile(`^O=([^,]+)`)

// organizationOf extracts the O= component value of a validated DN.
func organizationOf(dn string) string {
	m := orgComponent.FindStringSubmatch(dn)
	if m == nil {
		return dn
	}
	return m[1]
}
