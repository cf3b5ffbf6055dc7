package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/cliniclog/logbook-api/config"
	"github.com/cliniclog/logbook-api/database"
	"github.com/cliniclog/logbook-api/handlers"
	admin_handlers "github.com/cliniclog/logbook-api/handlers/admin"
	auth_handlers "github.com/cliniclog/logbook-api/handlers/auth"
	instructor_handlers "github.com/cliniclog/logbook-api/handlers/instructor"
	student_handlers "github.com/cliniclog/logbook-api/handlers/student"
	"github.com/cliniclog/logbook-api/services"
	"github.com/cliniclog/logbook-api/services/storage"
	"github.com/cliniclog/logbook-api/utils/auth"
	"github.com/cliniclog/logbook-api/utils/cache"
	"github.com/cliniclog/logbook-api/utils/middleware"
)

// SetupRoutes wires every handler into the fiber app
func SetupRoutes(app *fiber.App, store database.Storage) {
	env, err := config.Get()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "clinical-logbook-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	})

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis-backed brute force protection; login still works without it
	redisURL := env.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}
	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	blacklist := auth.NewBlacklistService(db)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Object storage for attestation uploads; optional
	objects, err := storage.NewObjectStore()
	if err != nil {
		log.Printf("Warning: Failed to initialize object storage: %v. Uploads will be disabled.", err)
	}

	// Services
	stores := database.NewStores(db)
	auditRecorder := services.NewAuditRecorder(stores)
	mailer := services.NewEmailService()
	assignmentService := services.NewAssignmentService(stores, auditRecorder)
	statsService := services.NewStatsService(db)

	// A typed-nil *EmailService must not end up inside a non-nil interface
	var invitationMailer services.InvitationMailer
	var reviewMailer services.ReviewMailer
	if mailer != nil {
		invitationMailer = mailer
		reviewMailer = mailer
	}
	invitationService := services.NewInvitationService(stores, auditRecorder, invitationMailer)
	logEntryService := services.NewLogEntryService(stores, auditRecorder, reviewMailer)

	// Handlers
	healthHandler := handlers.NewHealthHandler(store)
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, blacklist, bruteForceProtection, invitationService)
	studentLogHandler := student_handlers.NewLogHandler(logEntryService, assignmentService, statsService)
	studentAssignmentHandler := student_handlers.NewAssignmentHandler(assignmentService)
	attachmentHandler := student_handlers.NewAttachmentHandler(logEntryService, objects)
	reviewHandler := instructor_handlers.NewReviewHandler(logEntryService)
	instructorStudentHandler := instructor_handlers.NewStudentHandler(logEntryService, statsService)
	adminUserHandler := admin_handlers.NewUserHandler(db, invitationService, auditRecorder)
	institutionHandler := admin_handlers.NewInstitutionHandler(db, auditRecorder)
	patientHandler := admin_handlers.NewPatientHandler(db, auditRecorder)
	adminAssignmentHandler := admin_handlers.NewAssignmentHandler(assignmentService)
	dashboardHandler := admin_handlers.NewDashboardHandler(statsService, logEntryService)
	auditHandler := admin_handlers.NewAuditHandler(auditRecorder)

	// Security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}
	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 120,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check (public)
	app.Get("/ping", healthHandler.Health)

	api := app.Group("/api/v1")

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// Profile routes
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.Me)
	profileGroup.Put("/", authHandler.UpdateMe)

	// Student routes
	logs := api.Group("/logs", authMiddleware.Required(), middleware.RequireStudent())
	logs.Get("/", studentLogHandler.List)
	logs.Post("/", studentLogHandler.Create)
	logs.Post("/bulk-lock", studentLogHandler.BulkLock)
	logs.Get("/stats", studentLogHandler.Stats)
	logs.Get("/trend", studentLogHandler.MonthlyTrend)
	logs.Get("/specialties", studentLogHandler.SpecialtyDistribution)
	logs.Get("/export/fhir", studentLogHandler.ExportFHIR)
	logs.Post("/attestations", attachmentHandler.UploadAttestation)
	logs.Get("/:id/export/fhir", studentLogHandler.ExportEntryFHIR)
	logs.Get("/:id", studentLogHandler.Get)
	logs.Put("/:id", studentLogHandler.Update)
	logs.Delete("/:id", studentLogHandler.Delete)

	me := api.Group("/me", authMiddleware.Required(), middleware.RequireStudent())
	me.Get("/preceptor", studentAssignmentHandler.MyPreceptor)
	me.Get("/patients", studentAssignmentHandler.MyPatients)
	me.Get("/instructors", studentAssignmentHandler.MyInstructors)

	// Instructor routes
	reviews := api.Group("/reviews", authMiddleware.Required(), middleware.RequireInstructor())
	reviews.Get("/", reviewHandler.Queue)
	reviews.Get("/:id", reviewHandler.Get)
	reviews.Post("/:id/approve", reviewHandler.Approve)
	reviews.Post("/:id/reject", reviewHandler.Reject)

	myStudents := api.Group("/students", authMiddleware.Required(), middleware.RequireInstructor())
	myStudents.Get("/", instructorStudentHandler.List)
	myStudents.Get("/:id/stats", instructorStudentHandler.Stats)

	// Admin routes
	admin := api.Group("/admin", authMiddleware.Required(), middleware.RequireAdmin())

	admin.Post("/invitations", adminUserHandler.Invite)
	admin.Get("/invitations", adminUserHandler.ListInvitations)
	admin.Get("/users", adminUserHandler.List)
	admin.Get("/users/:id", adminUserHandler.Get)
	admin.Put("/users/:id", adminUserHandler.Update)
	admin.Delete("/users/:id", adminUserHandler.Delete)

	admin.Post("/institutions", institutionHandler.Create)
	admin.Get("/institutions", institutionHandler.List)
	admin.Get("/institutions/:id", institutionHandler.Get)
	admin.Put("/institutions/:id", institutionHandler.Update)
	admin.Delete("/institutions/:id", institutionHandler.Delete)

	admin.Post("/patients", patientHandler.Create)
	admin.Get("/patients", patientHandler.List)
	admin.Get("/patients/:id", patientHandler.Get)
	admin.Put("/patients/:id", patientHandler.Update)
	admin.Delete("/patients/:id", patientHandler.Delete)

	admin.Post("/assignments/preceptor", adminAssignmentHandler.AssignPreceptor)
	admin.Post("/assignments/patient", adminAssignmentHandler.AssignPatient)
	admin.Get("/assignments", adminAssignmentHandler.List)
	admin.Get("/assignments/preceptor-loads", adminAssignmentHandler.PreceptorLoads)

	admin.Get("/dashboard", dashboardHandler.Overview)
	admin.Get("/dashboard/institutions", dashboardHandler.InstitutionRollups)
	admin.Get("/students/:id/stats", dashboardHandler.StudentStats)
	admin.Get("/logs", dashboardHandler.LogEntries)

	admin.Get("/audit", auditHandler.List)
}
