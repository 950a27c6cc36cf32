package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// BatchInvalidate invalidates multiple patterns in batch
func BatchInvalidate(ctx context.Context, helper *CacheHelper, patterns []string) error {
	var lastErr error
	for _, pattern := range patterns {
		if err := helper.InvalidatePattern(ctx, pattern); err != nil {
			lastErr = err
			slog.ErrorContext(ctx, "Failed to invalidate pattern in batch",
				"error", err,
				"pattern", pattern)
		}
	}
	return lastErr
}

// InvalidateStudentCache invalidates all student-related caches using pipeline
func InvalidateStudentCache(ctx context.Context, cm *CacheManager, schoolID, studentID uint) {
	// Delete specific keys using single call
	SafeDelete(ctx, cm.Student,
		fmt.Sprintf("id:%d:%d", schoolID, studentID))

	// Invalidate patterns
	SafeInvalidatePattern(ctx, cm.Student, fmt.Sprintf("list:%d:*", schoolID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("student:%d:*", studentID))
	SafeInvalidatePattern(ctx, cm.Dashboard, fmt.Sprintf("school:%d:*", schoolID))
}

// InvalidateScheduleCache invalidates all schedule-related caches
func InvalidateScheduleCache(ctx context.Context, cm *CacheManager, schoolID uint) {
	SafeInvalidatePattern(ctx, cm.Schedule, fmt.Sprintf("school:%d:*", schoolID))
	SafeInvalidatePattern(ctx, cm.Dashboard, fmt.Sprintf("school:%d:*", schoolID))
}
