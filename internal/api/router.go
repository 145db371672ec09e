package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/bcastudynepal/portal/internal/app"
	iauth "github.com/bcastudynepal/portal/internal/auth"
	"github.com/bcastudynepal/portal/internal/handlers"
	imail "github.com/bcastudynepal/portal/internal/mail"
	"github.com/bcastudynepal/portal/internal/middleware"
	"github.com/bcastudynepal/portal/internal/services"
)

// Deps carries the shared services the router wires into handlers. Domain
// services are constructed here from the database handle.
type Deps struct {
	DB            *gorm.DB
	Config        *app.Config
	JWT           *iauth.JWTService
	Sessions      *iauth.SessionService
	Registrations *iauth.RegistrationService
	Resets        *iauth.PasswordResetService

	// Gmail consent flow and credential store, nil unless the gmail mail
	// provider is configured.
	GmailFlow  *imail.ConsentFlow
	GmailStore *imail.CredentialStore

	// RateStore coordinates rate limit counters. Nil falls back to the
	// process-local limiter.
	RateStore middleware.RateStore
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session service must be provided")
	}
	if deps.Registrations == nil {
		return nil, fmt.Errorf("registration service must be provided")
	}
	if deps.Resets == nil {
		return nil, fmt.Errorf("password reset service must be provided")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	users, err := services.NewUserService(deps.DB)
	if err != nil {
		return nil, err
	}
	colleges, err := services.NewCollegeService(deps.DB)
	if err != nil {
		return nil, err
	}
	programs, err := services.NewProgramService(deps.DB)
	if err != nil {
		return nil, err
	}
	papers, err := services.NewQuestionPaperService(deps.DB)
	if err != nil {
		return nil, err
	}
	notes, err := services.NewNoteService(deps.DB)
	if err != nil {
		return nil, err
	}
	syllabi, err := services.NewSyllabusService(deps.DB)
	if err != nil {
		return nil, err
	}
	resources, err := services.NewResourceService(deps.DB)
	if err != nil {
		return nil, err
	}
	todos, err := services.NewTodoService(deps.DB)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	if deps.RateStore != nil {
		// 300 requests/minute per IP+path, shared across instances
		r.Use(middleware.RateLimitWithStore(deps.RateStore, 300, time.Minute))
	} else {
		r.Use(middleware.RateLimit(300, time.Minute))
	}

	if deps.Config.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health())
	}

	authHandler := handlers.NewAuthHandler(users, deps.Sessions)
	registrationHandler := handlers.NewRegistrationHandler(deps.Registrations)
	resetHandler := handlers.NewPasswordResetHandler(deps.Resets)
	userHandler := handlers.NewUserHandler(users)
	collegeHandler := handlers.NewCollegeHandler(colleges)
	academicsHandler := handlers.NewAcademicsHandler(programs)
	paperHandler := handlers.NewQuestionPaperHandler(papers)
	noteHandler := handlers.NewNoteHandler(notes)
	syllabusHandler := handlers.NewSyllabusHandler(syllabi)
	resourceHandler := handlers.NewResourceHandler(resources)
	todoHandler := handlers.NewTodoHandler(todos)

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", registrationHandler.Register)
		auth.POST("/register/verify", registrationHandler.Verify)
		auth.POST("/register/resend", registrationHandler.Resend)
		auth.POST("/register/cancel", registrationHandler.Cancel)
		auth.POST("/password-reset", resetHandler.Request)
		auth.POST("/password-reset/confirm", resetHandler.Confirm)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// Public catalogue reads
	public := r.Group("/api")
	{
		public.GET("/colleges", collegeHandler.List)
		public.GET("/colleges/:id", collegeHandler.Get)

		public.GET("/programs", academicsHandler.ListPrograms)
		public.GET("/programs/:id", academicsHandler.GetProgram)
		public.GET("/programs/:id/subjects", academicsHandler.ListSubjects)
		public.GET("/programs/:id/semesters", academicsHandler.SubjectsBySemester)
		public.GET("/subjects/:id", academicsHandler.GetSubject)

		public.GET("/question-papers", paperHandler.List)
		public.GET("/question-papers/:id", paperHandler.Get)
		public.GET("/subjects/:id/question-papers", paperHandler.BySubject)
		public.POST("/question-papers/:id/view", paperHandler.RecordView)
		public.POST("/question-papers/:id/download", paperHandler.RecordDownload)

		public.GET("/notes", noteHandler.List)
		public.GET("/notes/:id", noteHandler.Get)
		public.GET("/subjects/:id/notes", noteHandler.BySubject)

		public.GET("/syllabi", syllabusHandler.List)
		public.GET("/syllabi/:id", syllabusHandler.Get)
		public.GET("/subjects/:id/syllabus", syllabusHandler.CurrentForSubject)
		public.POST("/syllabi/:id/view", syllabusHandler.RecordView)
		public.POST("/syllabi/:id/download", syllabusHandler.RecordDownload)

		public.GET("/resources", resourceHandler.List)
		public.GET("/resources/categories", resourceHandler.ListCategories)
		public.GET("/resources/tags", resourceHandler.ListTags)
		public.GET("/resources/:id", resourceHandler.Get)
		public.POST("/resources/:id/view", resourceHandler.RecordView)
	}

	requireAuth := middleware.Auth(deps.JWT)

	api := r.Group("/api")
	api.Use(requireAuth)
	{
		api.POST("/auth/logout", authHandler.Logout)

		api.GET("/users/me", userHandler.Me)
		api.PATCH("/users/me", userHandler.UpdateMe)
		api.POST("/users/me/password", userHandler.ChangePassword)

		// Contributions from signed-in users land as pending uploads.
		api.POST("/question-papers", paperHandler.Create)
		api.POST("/notes", noteHandler.Create)

		api.GET("/resources/favorites", resourceHandler.ListFavorites)
		api.POST("/resources/:id/favorite", resourceHandler.ToggleFavorite)
		api.POST("/resources/submissions", resourceHandler.Submit)

		todosGroup := api.Group("/todos")
		{
			todosGroup.GET("", todoHandler.List)
			todosGroup.POST("", todoHandler.Create)
			todosGroup.GET("/:id", todoHandler.Get)
			todosGroup.PATCH("/:id", todoHandler.Update)
			todosGroup.DELETE("/:id", todoHandler.Delete)
			todosGroup.POST("/:id/toggle", todoHandler.ToggleComplete)
			todosGroup.POST("/:id/subtasks", todoHandler.AddSubTask)
			todosGroup.POST("/:id/subtasks/:subtaskId/toggle", todoHandler.ToggleSubTask)
			todosGroup.DELETE("/:id/subtasks/:subtaskId", todoHandler.DeleteSubTask)
			todosGroup.POST("/:id/comments", todoHandler.AddComment)
		}
	}

	admin := r.Group("/api")
	admin.Use(requireAuth, middleware.RequireAdmin(deps.DB))
	{
		admin.POST("/colleges", collegeHandler.Create)
		admin.PATCH("/colleges/:id", collegeHandler.Update)
		admin.DELETE("/colleges/:id", collegeHandler.Delete)

		admin.POST("/programs", academicsHandler.CreateProgram)
		admin.DELETE("/programs/:id", academicsHandler.DeleteProgram)
		admin.POST("/subjects", academicsHandler.CreateSubject)
		admin.DELETE("/subjects/:id", academicsHandler.DeleteSubject)

		admin.PATCH("/question-papers/:id/status", paperHandler.SetStatus)
		admin.DELETE("/question-papers/:id", paperHandler.Delete)

		admin.PATCH("/notes/:id/verify", noteHandler.SetVerified)
		admin.DELETE("/notes/:id", noteHandler.Delete)

		admin.POST("/syllabi", syllabusHandler.Create)
		admin.POST("/syllabi/:id/current", syllabusHandler.SetCurrent)
		admin.DELETE("/syllabi/:id", syllabusHandler.Delete)

		admin.POST("/resources", resourceHandler.Create)
		admin.DELETE("/resources/:id", resourceHandler.Delete)
		admin.POST("/resources/categories", resourceHandler.CreateCategory)
		admin.GET("/resources/submissions", resourceHandler.ListSubmissions)
		admin.POST("/resources/submissions/:id/review", resourceHandler.ReviewSubmission)
	}

	// Gmail consent endpoints are mounted only when the provider is wired.
	// The callback stays public: Google redirects the browser there without
	// a bearer token, and the state cookie ties it back to the admin who
	// started the flow.
	if deps.GmailFlow != nil && deps.GmailStore != nil {
		gmailHandler := handlers.NewGmailOAuthHandler(deps.GmailFlow, deps.GmailStore)

		auth.GET("/google/callback", gmailHandler.Callback)
		admin.GET("/auth/google/auth", gmailHandler.Begin)
		admin.GET("/auth/google/status", gmailHandler.Status)
		admin.POST("/auth/google/migrate", gmailHandler.Migrate)
	}

	if deps.Config.Monitoring.Prometheus.Enabled {
		endpoint := deps.Config.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
