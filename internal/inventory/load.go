package inventory

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lockfleet/lockfleet/internal/errdefs"
)

// LoadItems reads an inventory file (YAML list of items) and validates
// each entry.
func LoadItems(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errdefs.NotFound("inventory file", path)
		}
		return nil, errdefs.External("filesystem", "read inventory", err)
	}

	var items []Item
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, errdefs.Validation("inventory", fmt.Sprintf("malformed YAML: %v", err))
	}

	for i, item := range items {
		if item.Name == "" {
			return nil, errdefs.Validation("inventory", fmt.Sprintf("item %d has no name", i))
		}
		if !IsValidCategory(item.Category) {
			return nil, errdefs.Validation("inventory", fmt.Sprintf("item %q has unknown category %q", item.Name, item.Category))
		}
	}
	return items, nil
}

// LoadPublishers reads a trusted publisher file (YAML list) and validates
// each entry.
func LoadPublishers(path string) ([]TrustedPublisher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errdefs.NotFound("publisher file", path)
		}
		return nil, errdefs.External("filesystem", "read publishers", err)
	}

	var pubs []TrustedPublisher
	if err := yaml.Unmarshal(data, &pubs); err != nil {
		return nil, errdefs.Validation("publishers", fmt.Sprintf("malformed YAML: %v", err))
	}

	for i, pub := range pubs {
		if pub.DistinguishedName == "" {
			return nil, errdefs.Validation("publishers", fmt.Sprintf("publisher %d has no distinguished name", i))
		}
		for _, c := range pub.Categories {
			if !IsValidCategory(c) {
				return nil, errdefs.Validation("publishers", fmt.Sprintf("publisher %q has unknown category %q", pub.Name, c))
			}
		}
	}
	return pubs, nil
}
