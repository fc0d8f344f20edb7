package api

import (
	"net/http"

	"github.com/bindisa/agritech-api/internal/api/handler"
	customMiddleware "github.com/bindisa/agritech-api/internal/api/middleware"
	"github.com/bindisa/agritech-api/internal/config"
	"github.com/bindisa/agritech-api/internal/domain"
	"github.com/bindisa/agritech-api/internal/llm"
	"github.com/bindisa/agritech-api/internal/llm/gemini"
	"github.com/bindisa/agritech-api/internal/llm/openai"
	"github.com/bindisa/agritech-api/internal/notify"
	"github.com/bindisa/agritech-api/internal/ratelimit"
	mongorepo "github.com/bindisa/agritech-api/internal/repository/mongo"
	"github.com/bindisa/agritech-api/internal/repository/postgres"
	"github.com/bindisa/agritech-api/internal/repository/redis"
	"github.com/bindisa/agritech-api/internal/security"
	"github.com/bindisa/agritech-api/internal/service"
	"github.com/bindisa/agritech-api/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, db *postgres.DB, mongoClient *mongorepo.Client, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize security components
	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Initialize encryptor
	encryptionKey := []byte(cfg.Auth.JWTSecret)
	if len(encryptionKey) > 32 {
		encryptionKey = encryptionKey[:32]
	} else if len(encryptionKey) < 32 {
		padded := make([]byte, 32)
		copy(padded, encryptionKey)
		encryptionKey = padded
	}
	encryptor, err := security.NewEncryptor(encryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token encryptor")
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	soilRepo := postgres.NewSoilRepository(db)
	sessionRepo := mongorepo.NewSessionRepository(mongoClient)

	// Rate limiter backend
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Backend == "redis" && redisClient != nil {
		limiter = redis.NewRateLimiter(redisClient, cfg.RateLimit.Burst)
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Burst)
	}

	// Analytics cache
	var analyticsCache *redis.AnalyticsCache
	if redisClient != nil {
		analyticsCache = redis.NewAnalyticsCache(redisClient)
	}

	// Initialize LLM Router with providers
	llmRouter := llm.NewRouter(cfg.LLM.DefaultProvider)

	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.LLM.DefaultProvider)

	if cfg.LLM.OpenAI.APIKey != "" {
		llmRouter.RegisterProvider(openai.NewProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model))
	}
	if cfg.LLM.Gemini.APIKey != "" {
		llmRouter.RegisterProvider(gemini.NewProvider(cfg.LLM.Gemini))
	} else {
		log.Warn().Msg("Gemini API Key is empty, skipping registration")
	}

	// Email and image storage
	var mailer *notify.Mailer
	if cfg.Email.Enabled() {
		mailer = notify.NewMailer(notify.NewSMTPSender(cfg.Email), cfg.Email.FromName)
	} else {
		log.Warn().Msg("SMTP is not configured, emails disabled")
	}

	var uploader storage.Uploader
	if cfg.Storage.CloudinaryURL != "" {
		up, err := storage.NewCloudinaryUploader(cfg.Storage.CloudinaryURL, cfg.Storage.Folder)
		if err != nil {
			log.Warn().Err(err).Msg("Cloudinary setup failed, image uploads disabled")
		} else {
			uploader = up
		}
	}

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		jwtManager,
		encryptor,
		service.NewIDTokenVerifier(cfg.Auth.GoogleClientID),
	)
	var cache service.AnalyticsCache
	if analyticsCache != nil {
		cache = analyticsCache
	}
	chatService := service.NewChatService(sessionRepo, userRepo, cache, cfg.Chat)
	assistantService := service.NewAssistantService(sessionRepo, llmRouter, cfg.Chat, cfg.LLM)
	soilService := service.NewSoilService(soilRepo, userRepo, mailer, uploader)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService)
	assistantHandler := handler.NewAssistantHandler(assistantService)
	soilHandler := handler.NewSoilHandler(soilService)

	// Auth middleware
	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(limiter, cfg.RateLimit)

	// Public routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db, mongoClient, redisClient))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/google", authHandler.GoogleLogin)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)
				r.Get("/me", authHandler.Me)
			})
		})

		// Public assistant routes; anonymous sessions allowed
		r.Route("/chatbot", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.OptionalAuthenticate)
				r.Use(rateLimitMiddleware.Limit)

				r.Post("/session", assistantHandler.CreateSession)
				r.Post("/message", assistantHandler.SendMessage)
				r.Get("/session/{sessionID}/history", assistantHandler.History)
				r.Post("/session/{sessionID}/rating", assistantHandler.Rate)
			})

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)
				r.Use(authMiddleware.RequireRole(domain.RoleAdmin))
				r.Get("/analytics", chatHandler.Analytics)
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(rateLimitMiddleware.Limit)

			// LLM providers
			r.Get("/llm/providers", handler.ListLLMProviders(llmRouter))

			// Support chat routes
			r.Route("/chat", func(r chi.Router) {
				r.Post("/message", chatHandler.SendMessage)
				r.Post("/session", chatHandler.GetOrCreateSession)
				r.Get("/sessions", chatHandler.ListSessions)

				r.Route("/sessions/{sessionID}", func(r chi.Router) {
					r.Get("/", chatHandler.GetSession)
					r.Get("/messages", chatHandler.History)
					r.Post("/read", chatHandler.MarkRead)
					r.Post("/rating", chatHandler.Rate)
					r.Post("/escalate", chatHandler.Escalate)
					r.Post("/close", chatHandler.Close)

					r.Group(func(r chi.Router) {
						r.Use(authMiddleware.RequireRole(domain.RoleExpert, domain.RoleAgent, domain.RoleAdmin))
						r.Post("/resolve", chatHandler.Resolve)
						r.Post("/notes", chatHandler.AddNote)
					})
				})
			})

			// Soil analysis routes
			r.Route("/soil", func(r chi.Router) {
				r.Post("/", soilHandler.Submit)
				r.Get("/", soilHandler.List)
				r.Get("/statistics", soilHandler.Statistics)

				r.Route("/{analysisID}", func(r chi.Router) {
					r.Get("/", soilHandler.Get)
					r.Get("/recommendations", soilHandler.Recommendations)
					r.Post("/images", soilHandler.UploadImage)
					r.Delete("/images/{publicID}", soilHandler.DeleteImage)

					r.Group(func(r chi.Router) {
						r.Use(authMiddleware.RequireRole(domain.RoleExpert, domain.RoleAdmin))
						r.Put("/", soilHandler.Update)
					})
				})
			})

			// Cache management
			if analyticsCache != nil {
				r.Group(func(r chi.Router) {
					r.Use(authMiddleware.RequireRole(domain.RoleAdmin))
					r.Post("/cache/flush", handler.FlushCache(analyticsCache))
				})
			}
		})
	})

	return r
}
