package policy

import (
	"encoding/xml"
	"fmt"

	"github.com/lockfleet/lockfleet/internal/inventory"
)

// The document model targets the AppLocker policy schema subset the
// dashboard emits: a rule collection per file category, each holding
// publisher, path, and hash rules. Marshalling through encoding/xml
// guarantees the five reserved markup characters are escaped in every
// free-text attribute.

// Document is a complete AppLocker policy document.
type Document struct {
	XMLName     xml.Name     `xml:"AppLockerPolicy"`
	Version     string       `xml:"Version,attr"`
	Collections []Collection `xml:"RuleCollection"`
}

// Collection groups rules for one file category.
type Collection struct {
	Type            string          `xml:"Type,attr"`
	EnforcementMode string          `xml:"EnforcementMode,attr"`
	PublisherRules  []PublisherRule `xml:"FilePublisherRule"`
	PathRules       []PathRule      `xml:"FilePathRule"`
	HashRules       []HashRule      `xml:"FileHashRule"`
}

// PublisherRule matches software by its signer's distinguished name.
type PublisherRule struct {
	ID             string              `xml:"Id,attr"`
	Name           string              `xml:"Name,attr"`
	Description    string              `xml:"Description,attr"`
	UserOrGroupSid string              `xml:"UserOrGroupSid,attr"`
	Action         string              `xml:"Action,attr"`
	Conditions     PublisherConditions `xml:"Conditions"`
}

// PublisherConditions holds the single publisher matching condition.
type PublisherConditions struct {
	Condition PublisherCondition `xml:"FilePublisherCondition"`
}

// PublisherCondition embeds the full distinguished name with an open
// version range (lowest to highest).
type PublisherCondition struct {
	PublisherName string       `xml:"PublisherName,attr"`
	ProductName   string       `xml:"ProductName,attr"`
	BinaryName    string       `xml:"BinaryName,attr"`
	VersionRange  VersionRange `xml:"BinaryVersionRange"`
}

// VersionRange bounds the matched binary version.
type VersionRange struct {
	Low  string `xml:"LowSection,attr"`
	High string `xml:"HighSection,attr"`
}

// PathRule matches software by installed location.
type PathRule struct {
	ID             string         `xml:"Id,attr"`
	Name           string         `xml:"Name,attr"`
	Description    string         `xml:"Description,attr"`
	UserOrGroupSid string         `xml:"UserOrGroupSid,attr"`
	Action         string         `xml:"Action,attr"`
	Conditions     PathConditions `xml:"Conditions"`
}

// PathConditions holds the single path matching condition.
type PathConditions struct {
	Condition PathCondition `xml:"FilePathCondition"`
}

// PathCondition carries the matched path.
type PathCondition struct {
	Path string `xml:"Path,attr"`
}

// HashRule matches software by file hash.
type HashRule struct {
	ID             string         `xml:"Id,attr"`
	Name           string         `xml:"Name,attr"`
	Description    string         `xml:"Description,attr"`
	UserOrGroupSid string         `xml:"UserOrGroupSid,attr"`
	Action         string         `xml:"Action,attr"`
	Conditions     HashConditions `xml:"Conditions"`
}

// HashConditions holds the hash matching condition.
type HashConditions struct {
	Condition HashCondition `xml:"FileHashCondition"`
}

// HashCondition carries one file hash.
type HashCondition struct {
	Hash FileHash `xml:"FileHash"`
}

// FileHash is a single hash value with its algorithm and source file.
type FileHash struct {
	Type           string `xml:"Type,attr"`
	Data           string `xml:"Data,attr"`
	SourceFileName string `xml:"SourceFileName,attr"`
}

// openVersionRange matches every binary version.
var openVersionRange = VersionRange{Low: "0.0.0.0", High: "*"}

// collectionType maps a file category onto the schema's collection type
// attribute value.
func collectionType(c inventory.Category) (string, error) {
	switch c {
	case inventory.CategoryEXE:
		return "Exe", nil
	case inventory.CategoryMSI:
		return "Msi", nil
	case inventory.CategoryScript:
		return "Script", nil
	case inventory.CategoryDLL:
		return "Dll", nil
	}
	return "", fmt.Errorf("unknown category %q", c)
}

// Marshal renders the document with the XML declaration, indented for
// operator review. Output is deterministic for identical input.
func (d *Document) Marshal() ([]byte, error) {
	body, err := xml.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal policy document: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}
