package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig overrides the default rate for requests matching Path and Method.
type EndpointConfig struct {
	Path   string  // exact path, or a prefix when it ends with "/"
	Method string
	Rate   float64 // requests per second
	Burst  int
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultRate     float64 // requests per second per client
	DefaultBurst    int
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// NewConfig builds a Config from the server's per-client rate and burst.
// A non-positive rate disables limiting.
func NewConfig(rps float64, burst int, whitelist ...string) *Config {
	if burst <= 0 {
		burst = max(1, int(rps))
	}
	return &Config{
		Enabled:         rps > 0,
		DefaultRate:     rps,
		DefaultBurst:    burst,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       parseIPList(strings.Join(whitelist, ",")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns stricter limits for the pipeline endpoints.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Full pipeline runs: 30 per minute, bursts of 3.
		{Path: "/v1/rfp/process", Method: "POST", Rate: 0.5, Burst: 3},
		{Path: "/v1/rfp/process/stream", Method: "POST", Rate: 0.5, Burst: 3},
		// Extraction only.
		{Path: "/v1/rfp/extract", Method: "POST", Rate: 2, Burst: 5},
	}
}

func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
