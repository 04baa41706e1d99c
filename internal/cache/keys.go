package cache

import "strings"

// KeyPreview returns the memo key for a discount preview.
// The key changes whenever the supplier, the item list or the supplier's rule set changes.
func KeyPreview(supplierID, itemsHash, rulesVersion string) string {
	return strings.Join([]string{"preview", supplierID, itemsHash, rulesVersion}, ":")
}
