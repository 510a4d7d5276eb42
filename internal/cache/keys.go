package cache

import "fmt"

// RateLimitKey namespaces a rate-limit counter by caller identity: the
// authenticated subject id, or the remote IP for unauthenticated requests.
func RateLimitKey(caller string) string {
	return fmt.Sprintf("ratelimit:%s", caller)
}
