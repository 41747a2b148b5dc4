package application

import (
	"sync"

	"github.com/looply-app/looply-agent/internal/domain"
)

// AgentState is the process-wide singleton state: the cache version
// currently serving interception. Owned by the LifecycleService; everything
// else only reads it.
type AgentState struct {
	mu      sync.RWMutex
	version domain.CacheVersion
}

func NewAgentState(version domain.CacheVersion) *AgentState {
	return &AgentState{version: version}
}

func (s *AgentState) Version() domain.CacheVersion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
