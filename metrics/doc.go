// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics holds the Prometheus collectors for voting, answer
// acceptance and score recomputation. Collectors register with the default
// registry on import and are served by promhttp at /metrics.
package metrics
