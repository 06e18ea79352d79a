package repo

import "errors"

var (
	ErrLiveSessionNotFound  = errors.New("live session not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrGroupNotFound        = errors.New("group not found")
	ErrCourseNotFound       = errors.New("course not found")
	ErrUserNotFound         = errors.New("user not found")

	// ErrStatusChanged means a conditional update matched no row because the
	// status moved between the caller's read and its write.
	ErrStatusChanged = errors.New("live session status changed concurrently")
)
