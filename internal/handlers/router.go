package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/services"
	"github.com/DSM-2025/drivingschool-service/internal/utils"
)

// HandlerManager wires services to HTTP handlers.
type HandlerManager struct {
	auth         *AuthHandler
	student      *StudentHandler
	dashboard    *DashboardHandler
	schedule     *ScheduleHandler
	tracking     *TrackingHandler
	progress     *ProgressHandler
	course       *CourseHandler
	quiz         *QuizHandler
	notification *NotificationHandler
	report       *ReportHandler

	jwtSecret string
	uploadDir string
}

func NewHandlerManager(sm services.ServiceManager, logger utils.Logger, jwtSecret, uploadDir string) *HandlerManager {
	return &HandlerManager{
		auth:         NewAuthHandler(sm.Auth(), logger),
		student:      NewStudentHandler(sm.Student(), logger),
		dashboard:    NewDashboardHandler(sm.Lifecycle(), logger),
		schedule:     NewScheduleHandler(sm.Schedule(), logger),
		tracking:     NewTrackingHandler(sm.Tracking(), logger),
		progress:     NewProgressHandler(sm.Progress(), logger),
		course:       NewCourseHandler(sm.Course(), logger),
		quiz:         NewQuizHandler(sm.Quiz(), logger),
		notification: NewNotificationHandler(sm.Notification(), logger),
		report:       NewReportHandler(sm.Export(), logger),
		jwtSecret:    jwtSecret,
		uploadDir:    uploadDir,
	}
}

// SetupRoutes registers all routes on the router.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "drivingschool-service",
		})
	})

	// Student photos, stored by the tracking service.
	router.Static("/uploads", hm.uploadDir)

	// Public auth surface
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", hm.auth.Register)
		auth.POST("/login", hm.auth.Login)
		auth.POST("/login-tc", hm.auth.LoginTC)
	}

	v1 := router.Group("/api/v1")
	v1.Use(JWTAuthMiddleware(hm.jwtSecret))

	staff := RequireRoleMiddleware(models.RoleAdmin, models.RoleInstructor)
	adminOnly := RequireRoleMiddleware(models.RoleAdmin)

	// CRM dashboard
	dashboard := v1.Group("/dashboard", staff)
	{
		dashboard.GET("/overview", hm.dashboard.GetOverview)
		dashboard.GET("/pipeline", hm.dashboard.GetPipeline)
	}

	// Students and their nested resources
	students := v1.Group("/students")
	{
		students.POST("", staff, hm.student.CreateStudent)
		students.GET("", staff, hm.student.ListStudents)
		students.GET("/:id", hm.student.GetStudent)
		students.PUT("/:id", staff, hm.student.UpdateStudent)
		students.DELETE("/:id", adminOnly, hm.student.DeleteStudent)

		students.PUT("/:id/stage", staff, hm.dashboard.UpdateStage)
		students.POST("/:id/tags", staff, hm.dashboard.AddTag)
		students.DELETE("/:id/tags/:tag", staff, hm.dashboard.RemoveTag)

		students.GET("/:id/schedules", hm.schedule.GetStudentSchedules)
		students.GET("/:id/exam-results", hm.tracking.GetExamResults)
		students.POST("/:id/photo", staff, hm.tracking.UploadPhoto)

		students.GET("/:id/progress/daily", hm.progress.GetDailyRollups)
		students.GET("/:id/progress/:course_id", hm.progress.GetSummary)
		students.POST("/:id/progress", hm.progress.UpdateProgress)
		students.POST("/:id/progress/:content_id/complete", hm.progress.CompleteContent)
	}

	// Instructors
	instructors := v1.Group("/instructors", staff)
	{
		instructors.POST("", hm.student.CreateInstructor)
		instructors.GET("", hm.student.ListInstructors)
		instructors.PUT("/:id", hm.student.UpdateInstructor)
	}

	// Scheduling
	schedules := v1.Group("/schedules")
	{
		schedules.POST("", hm.schedule.BookLesson)
		schedules.GET("", staff, hm.schedule.ListSchedules)
		schedules.GET("/available-slots", hm.schedule.GetAvailableSlots)
		schedules.POST("/:id/cancel", hm.schedule.CancelSchedule)
		schedules.POST("/:id/complete", staff, hm.schedule.CompleteLesson)
	}

	// Billing and exams
	tracking := v1.Group("/tracking", staff)
	{
		tracking.POST("/payments", hm.tracking.RecordPayment)
		tracking.GET("/payments", hm.tracking.ListPayments)
		tracking.PUT("/payments/:id", hm.tracking.UpdatePayment)
		tracking.POST("/exam-results", hm.tracking.RecordExamResult)
	}

	// Catalog
	courses := v1.Group("/courses")
	{
		courses.POST("", staff, hm.course.CreateCourse)
		courses.GET("", hm.course.ListCourses)
		courses.GET("/:id", hm.course.GetCourse)
		courses.PUT("/:id", staff, hm.course.UpdateCourse)
		courses.DELETE("/:id", adminOnly, hm.course.DeleteCourse)

		courses.POST("/:id/contents", staff, hm.course.AddContent)
		courses.GET("/:id/contents", hm.course.GetContents)
		courses.PUT("/:id/contents/:content_id", staff, hm.course.UpdateContent)
		courses.DELETE("/:id/contents/:content_id", staff, hm.course.DeleteContent)
	}

	quizzes := v1.Group("/quizzes")
	{
		quizzes.POST("", staff, hm.quiz.CreateQuiz)
		quizzes.GET("", hm.quiz.ListQuizzes)
		quizzes.GET("/:id", hm.quiz.GetQuiz)
		quizzes.PUT("/:id", staff, hm.quiz.UpdateQuiz)
		quizzes.DELETE("/:id", adminOnly, hm.quiz.DeleteQuiz)

		quizzes.POST("/:id/questions", staff, hm.quiz.AddQuestion)
		quizzes.PUT("/:id/questions/:question_id", staff, hm.quiz.UpdateQuestion)
		quizzes.DELETE("/:id/questions/:question_id", staff, hm.quiz.DeleteQuestion)
	}

	// Notifications
	notifications := v1.Group("/notifications")
	{
		notifications.POST("", staff, hm.notification.CreateNotification)
		notifications.GET("", staff, hm.notification.ListNotifications)
		notifications.GET("/analytics", staff, hm.notification.GetAnalytics)

		notifications.GET("/templates", staff, hm.notification.ListTemplates)
		notifications.POST("/templates", staff, hm.notification.CreateTemplate)
		notifications.PUT("/templates/:id", staff, hm.notification.UpdateTemplate)
		notifications.DELETE("/templates/:id", staff, hm.notification.DeleteTemplate)

		notifications.GET("/rules", staff, hm.notification.ListRules)
		notifications.POST("/rules", staff, hm.notification.CreateRule)
		notifications.PUT("/rules/:id", staff, hm.notification.UpdateRule)
		notifications.DELETE("/rules/:id", staff, hm.notification.DeleteRule)

		notifications.GET("/:id", staff, hm.notification.GetNotification)
		notifications.PUT("/:id", staff, hm.notification.UpdateNotification)
		notifications.DELETE("/:id", staff, hm.notification.DeleteNotification)
		notifications.POST("/:id/send", staff, hm.notification.SendNotification)
		notifications.POST("/:id/resend", staff, hm.notification.ResendNotification)
		notifications.POST("/:id/cancel", staff, hm.notification.CancelNotification)

		// Engagement callbacks come from the recipients themselves.
		notifications.POST("/:id/read", hm.notification.MarkRead)
		notifications.POST("/:id/clicked", hm.notification.MarkClicked)
	}

	// Reports
	reports := v1.Group("/reports", staff)
	{
		reports.GET("/students", hm.report.ExportStudents)
		reports.GET("/payments", hm.report.ExportPayments)
	}
}
