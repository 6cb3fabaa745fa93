package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserLoginKey returns the cache key for a user's single-device login session.
func (r *CacheKeyStruct) UserLoginKey(userID string) string {
	return fmt.Sprintf("login:%s", userID)
}

// ProctorMonitorChannel returns the Redis PubSub channel name for live
// proctoring events consumed by the admin monitor.
func (r *CacheKeyStruct) ProctorMonitorChannel() string {
	return "quiz:proctor:monitor"
}

var CacheKey = NewCacheKeyStruct()
