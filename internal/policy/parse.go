package policy

import (
	"encoding/xml"
	"fmt"

	"github.com/lockfleet/lockfleet/internal/inventory"
)

// ParseDocument reads a previously generated policy document. Health
// checks run against documents already on disk, not only freshly
// compiled ones.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse policy document: %w", err)
	}
	return &doc, nil
}

// categoryOf inverts collectionType.
func categoryOf(collType string) (inventory.Category, bool) {
	switch collType {
	case "Exe":
		return inventory.CategoryEXE, true
	case "Msi":
		return inventory.CategoryMSI, true
	case "Script":
		return inventory.CategoryScript, true
	case "Dll":
		return inventory.CategoryDLL, true
	}
	return "", false
}

// Rules flattens the document back into domain rules.
func (d *Document) Rules() []Rule {
	var rules []Rule
	for _, coll := range d.Collections {
		category, ok := categoryOf(coll.Type)
		if !ok {
			continue
		}
		for _, r := range coll.PublisherRules {
			rules = append(rules, Rule{
				ID: r.ID, Name: r.Name, Type: RuleTypePublisher,
				Category: category, Action: RuleAction(r.Action), TargetGroup: r.UserOrGroupSid,
			})
		}
		for _, r := range coll.PathRules {
			rules = append(rules, Rule{
				ID: r.ID, Name: r.Name, Type: RuleTypePath,
				Category: category, Action: RuleAction(r.Action), TargetGroup: r.UserOrGroupSid,
			})
		}
		for _, r := range coll.HashRules {
			rules = append(rules, Rule{
				ID: r.ID, Name: r.Name, Type: RuleTypeHash,
				Category: category, Action: RuleAction(r.Action), TargetGroup: r.UserOrGroupSid,
			})
		}
	}
	return rules
}
