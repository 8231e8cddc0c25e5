package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(studentID string) string {
	return fmt.Sprintf("login:%s", studentID)
}

// TimerStartKey returns the cache key holding the Unix start timestamp
// of a student's exam timer for a task
func (r *CacheKeyStruct) TimerStartKey(taskID, studentID string) string {
	return fmt.Sprintf("student:%s:task:%s:timer_start", studentID, taskID)
}

// TimerDurationKey returns the cache key holding the timer duration in
// seconds for a student's attempt at a task
func (r *CacheKeyStruct) TimerDurationKey(taskID, studentID string) string {
	return fmt.Sprintf("student:%s:task:%s:timer_duration", studentID, taskID)
}

// DraftAnswersKey returns the cache key for a student's autosaved draft
// answers on a task
func (r *CacheKeyStruct) DraftAnswersKey(taskID, studentID string) string {
	return fmt.Sprintf("student:%s:task:%s:drafts", studentID, taskID)
}

// ActiveTimersKey returns the sorted-set key indexing running timers by
// their deadline (Unix seconds). Used by the expiry sweeper.
func (r *CacheKeyStruct) ActiveTimersKey() string {
	return "timers:active"
}

// ActiveTimerMember returns the member value stored in the active-timer
// sorted set for a (task, student) pair.
func (r *CacheKeyStruct) ActiveTimerMember(taskID, studentID string) string {
	return fmt.Sprintf("%s:%s", taskID, studentID)
}

var CacheKey = NewCacheKeyStruct()
