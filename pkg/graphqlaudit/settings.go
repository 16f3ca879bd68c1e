package graphqlaudit

import (
	"time"

	"github.com/spf13/viper"
)

// Engine tunables, read from the same viper keys
// pkg/config.SetDefaultConfig seeds (scan.timeouts.*, scan.probe_pause_ms,
// scan.bola_concurrency, scan.dos.*), so an operator's config file
// actually changes scan behavior instead of the engine hardcoding its
// own copy of those values. A zero/unset key (e.g. a test that never
// loads the config defaults) falls back to the documented default
// rather than a zero timeout or an unbounded pool.

func connectivityTimeout() time.Duration {
	return secondsOrDefault("scan.timeouts.connectivity", 5)
}

func introspectionTimeout() time.Duration {
	return secondsOrDefault("scan.timeouts.introspection", 15)
}

func dosDepthTimeout() time.Duration {
	return secondsOrDefault("scan.timeouts.depth_probe", 15)
}

func dosPaginationTimeout() time.Duration {
	return secondsOrDefault("scan.timeouts.pagination_probe", 20)
}

func bolaProbeTimeout() time.Duration {
	return secondsOrDefault("scan.timeouts.bola_probe", 15)
}

func interProbePause() time.Duration {
	ms := viper.GetInt("scan.probe_pause_ms")
	if ms <= 0 {
		ms = 50
	}
	return time.Duration(ms) * time.Millisecond
}

func bolaPoolSize() int {
	return intOrDefault("scan.bola_concurrency", 5)
}

func dosDepth() int {
	return intOrDefault("scan.dos.depth", 7)
}

func dosPaginationThreshold() int {
	return intOrDefault("scan.dos.pagination_threshold", 100)
}

func secondsOrDefault(key string, fallback int) time.Duration {
	return time.Duration(intOrDefault(key, fallback)) * time.Second
}

func intOrDefault(key string, fallback int) int {
	if v := viper.GetInt(key); v > 0 {
		return v
	}
	return fallback
}
