// Package inventory defines the externally supplied facts the rule
// compiler and health scorer consume: scanned application inventory and
// the trusted publisher list. Both are read-only inputs; scanning and
// directory-service communication happen outside this core.
package inventory

// Category is an AppLocker rule collection category.
type Category string

const (
	CategoryEXE    Category = "EXE"
	CategoryMSI    Category = "MSI"
	CategoryScript Category = "Script"
	CategoryDLL    Category = "DLL"
)

// Categories returns all rule collection categories in document order.
func Categories() []Category {
	return []Category{CategoryEXE, CategoryMSI, CategoryScript, CategoryDLL}
}

// IsValidCategory reports whether c names a known category.
func IsValidCategory(c Category) bool {
	switch c {
	case CategoryEXE, CategoryMSI, CategoryScript, CategoryDLL:
		return true
	}
	return false
}

// Item is one scanned application from the fleet inventory.
type Item struct {
	// Name is the display name of the application.
	Name string `yaml:"name" json:"name"`

	// Publisher is the signer's distinguished name, empty for unsigned
	// binaries.
	Publisher string `yaml:"publisher,omitempty" json:"publisher,omitempty"`

	// Path is the installed location on the scanned machine.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`

	// Version is the file version, if available.
	Version string `yaml:"version,omitempty" json:"version,omitempty"`

	// Hash is the SHA256 authenticode hash, if computed by the scanner.
	Hash string `yaml:"hash,omitempty" json:"hash,omitempty"`

	// Category is the rule collection the item belongs to.
	Category Category `yaml:"category" json:"category"`
}

// TrustedPublisher is one vetted software signer.
type TrustedPublisher struct {
	// Name is the human-readable publisher name.
	Name string `yaml:"name" json:"name"`

	// DistinguishedName is the full X.500 subject of the signing
	// certificate, e.g. "O=CONTOSO, L=REDMOND, S=WASHINGTON, C=US".
	DistinguishedName string `yaml:"distinguished_name" json:"distinguished_name"`

	// Categories lists the rule collections this publisher is trusted
	// for. Empty means EXE only.
	Categories []Category `yaml:"categories,omitempty" json:"categories,omitempty"`
}
