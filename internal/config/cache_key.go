package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateLoginKey returns the cache key for a candidate's login session (JTI).
func (r *CacheKeyStruct) CandidateLoginKey(candidateID string) string {
	return fmt.Sprintf("login:candidate:%s", candidateID)
}

// SessionDeadlineKey returns the cache key for a test session's absolute deadline.
func (r *CacheKeyStruct) SessionDeadlineKey(sessionID string) string {
	return fmt.Sprintf("session:%s:deadline", sessionID)
}

// CandidateActiveSessionKey returns the cache key for a candidate's currently
// open (not yet terminal) session id.
func (r *CacheKeyStruct) CandidateActiveSessionKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s:active_session", candidateID)
}

// SessionMonitorChannel returns the Redis PubSub channel carrying live
// lifecycle events (begin, violation, terminated, evaluated) for a session.
func (r *CacheKeyStruct) SessionMonitorChannel(sessionID string) string {
	return fmt.Sprintf("session:%s:monitor", sessionID)
}

var CacheKey = NewCacheKeyStruct()
