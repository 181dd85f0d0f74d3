package assets

import (
	"fmt"
	"strings"
)

// ValidateAssetName checks that an asset name is safe to join into a path.
// Template type names qualify; anything with a separator or a dot does not.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
