package repositories

import "context"

// Repository aggregates all repository interfaces.
type Repository interface {
	// Tenant and people domain
	School() SchoolRepository
	User() UserRepository
	Student() StudentRepository
	Instructor() InstructorRepository

	// Billing and exams
	Payment() PaymentRepository
	Exam() ExamRepository

	// Scheduling and progress
	Schedule() ScheduleRepository
	Progress() ProgressRepository

	// Catalog
	Course() CourseRepository
	Quiz() QuizRepository

	// Notifications
	Notification() NotificationRepository

	// Dashboard aggregation
	Dashboard() DashboardRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
