// Package loadcheck drives a running scoring server with generated sites
// and checks every reply against the local scoring engine.
package loadcheck

import (
	"errors"
	"time"
)

// Errors reported by Run.
var (
	ErrUnhealthy = errors.New("scoring server unhealthy")
	ErrMismatch  = errors.New("server scores differ from local engine")
	ErrFailed    = errors.New("score requests failed")
)

// Config holds configuration for a check run.
type Config struct {
	BaseURL  string        // Base URL of the server
	NumSites int           // Number of sites to generate
	Workers  int           // Number of concurrent submitters
	Timeout  time.Duration // HTTP request timeout
	Seed     uint64        // Generator seed; equal seeds generate equal sites
}

// Mismatch records a site the server scored differently.
type Mismatch struct {
	SiteID      string
	LocalScore  int
	LocalGrade  string
	ServerScore int
	ServerGrade string
}

// Stats holds run statistics.
type Stats struct {
	SitesGenerated int
	Submitted      int
	Succeeded      int
	Failed         int
	Mismatches     []Mismatch
	Latencies      []time.Duration
	Duration       time.Duration
}

// Percentile returns the p-th latency percentile (0 < p <= 100).
func (s *Stats) Percentile(p float64) time.Duration {
	if len(s.Latencies) == 0 {
		return 0
	}
	idx := int(float64(len(s.Latencies))*p/100+0.5) - 1
	idx = max(0, min(idx, len(s.Latencies)-1))
	return s.Latencies[idx]
}
