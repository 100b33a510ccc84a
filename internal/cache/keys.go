package cache

import "fmt"

func AnalysisStatusKey(analysisID string) string {
	return fmt.Sprintf("analysis:status:%s", analysisID)
}

func RateLimitKey(clientIP string) string {
	return fmt.Sprintf("ratelimit:%s", clientIP)
}
