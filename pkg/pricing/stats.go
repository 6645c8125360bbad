package pricing

import "sync"

// Stat types tracked per service and region
const (
	statSuccess = "success"
	statFailure = "failure"
	statCache   = "cache"
)

// Stats tracks pricing API call statistics by service and region
type Stats struct {
	mu    sync.RWMutex
	calls map[string]map[string]map[string]int // service -> region -> {success, failure, cache}
}

// NewStats creates an empty Stats
func NewStats() *Stats {
	return &Stats{calls: make(map[string]map[string]map[string]int)}
}

// UpdateCacheHitStats updates stats when a cache hit occurs
func (s *Stats) UpdateCacheHitStats(service, region string) {
	s.update(service, region, statCache)
}

// UpdateAPISuccessStats updates stats when an API call succeeds
func (s *Stats) UpdateAPISuccessStats(service, region string) {
	s.update(service, region, statSuccess)
}

// UpdateAPIFailureStats updates stats when an API call fails
func (s *Stats) UpdateAPIFailureStats(service, region string) {
	s.update(service, region, statFailure)
}

func (s *Stats) update(service, region, statType string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.calls[service]; !exists {
		s.calls[service] = make(map[string]map[string]int)
	}

	if _, exists := s.calls[service][region]; !exists {
		s.calls[service][region] = map[string]int{
			statSuccess: 0,
			statFailure: 0,
			statCache:   0,
		}
	}

	s.calls[service][region][statType]++
}

// Snapshot returns a deep copy of the current statistics
func (s *Stats) Snapshot() map[string]map[string]map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statsCopy := make(map[string]map[string]map[string]int)
	for service, regions := range s.calls {
		statsCopy[service] = make(map[string]map[string]int)
		for region, stats := range regions {
			statsCopy[service][region] = make(map[string]int)
			for key, value := range stats {
				statsCopy[service][region][key] = value
			}
		}
	}

	return statsCopy
}
