package cache

import "fmt"

// GenerateKey joins a prefix and an identifier into one cache key.
func GenerateKey(prefix, id string) string {
	return prefix + ":" + id
}

// GenerateKeyWithParams appends each parameter as a colon-separated key
// segment, so ("summary", "ACME", "1d", 500) becomes "summary:ACME:1d:500".
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	key := prefix
	for _, p := range params {
		key = fmt.Sprintf("%s:%v", key, p)
	}
	return key
}
