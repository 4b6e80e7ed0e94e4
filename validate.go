package stash

import (
	"fmt"
	"strings"
)

const (
	maxTitleLen = 1024
	maxURLLen   = 4096
)

// ItemTypes is the set of valid item type values, fixed at creation.
var ItemTypes = map[string]bool{
	"url":        true,
	"note":       true,
	"pdf":        true,
	"image":      true,
	"screenshot": true,
}

// validateNewItem checks the type discriminator and the resolved title of
// an item about to be created.
func validateNewItem(itemType, title string) error {
	if !ItemTypes[itemType] {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidInput, itemType)
	}
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if len(title) > maxTitleLen {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, maxTitleLen)
	}
	return nil
}

func validateURL(rawURL string) error {
	if len(rawURL) > maxURLLen {
		return fmt.Errorf("%w: url exceeds %d characters", ErrInvalidInput, maxURLLen)
	}
	return nil
}
