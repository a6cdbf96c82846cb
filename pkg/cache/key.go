package cache

import "strings"

// keyPrefix namespaces price records in the shared Redis instance.
const keyPrefix = "steamapis:item"

// Key generates the deterministic cache key for an item.
// Format: steamapis:item:<app_id>:<market_hash_name>
//
// Example:
//
//	steamapis:item:730:AK-47 | Redline (Field-Tested)
func Key(appID, marketHashName string) string {
	return strings.Join([]string{keyPrefix, appID, marketHashName}, ":")
}
