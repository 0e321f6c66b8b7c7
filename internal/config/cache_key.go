package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// LoginSessionKey returns the cache key for a user's login session (JTI).
func (r *CacheKeyStruct) LoginSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// AttemptAnswersKey returns the cache key for a student's autosaved answers.
func (r *CacheKeyStruct) AttemptAnswersKey(examID string, studentID int) string {
	return fmt.Sprintf("student:%d:exam:%s:answers", studentID, examID)
}

// ExamPaperKey returns the cache key for an exam's student-facing paper.
func (r *CacheKeyStruct) ExamPaperKey(examID string) string {
	return fmt.Sprintf("exam:%s:paper", examID)
}

// ExamAnswerKeyKey returns the cache key for an exam's correct-answer map.
func (r *CacheKeyStruct) ExamAnswerKeyKey(examID string) string {
	return fmt.Sprintf("exam:%s:key", examID)
}

var CacheKey = NewCacheKeyStruct()
