package cache

import "fmt"

func AnalysisStatusKey(analysisID string) string {
	return fmt.Sprintf("analysis:status:%s", analysisID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
