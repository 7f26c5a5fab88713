// Package cache holds the per-market stock-list caches backing the board
// and diagnosis endpoints. Entries are invalidated after every successful
// refine so readers never serve a stale universe past one run.
package cache

const keyPrefix = "refinery:stocks:"

func stockKey(market string) string { return keyPrefix + market }
