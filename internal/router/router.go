package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/soleserve/api/internal/config"
	"github.com/soleserve/api/internal/database"
	"github.com/soleserve/api/internal/enum"
	"github.com/soleserve/api/internal/handler"
	mw "github.com/soleserve/api/internal/middleware"
	"github.com/soleserve/api/internal/notify"
	"github.com/soleserve/api/internal/service"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Services
	notifier := notify.NewLogNotifier()
	workflowService := service.NewWorkflowService(pool, func(db database.DBTX) service.WorkflowStore {
		return database.New(db)
	}, notifier)
	assignmentService := service.NewAssignmentService(pool, func(db database.DBTX) service.AssignmentStore {
		return database.New(db)
	})
	billingService := service.NewBillingService(pool, func(db database.DBTX) service.BillingStore {
		return database.New(db)
	})
	jobReader := service.NewJobReader(queries)

	// Handlers
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	enquiryHandler := handler.NewEnquiryHandler(workflowService, jobReader)
	pickupHandler := handler.NewPickupHandler(workflowService)
	serviceHandler := handler.NewServiceHandler(assignmentService, workflowService)
	billingHandler := handler.NewBillingHandler(billingService)
	deliveryHandler := handler.NewDeliveryHandler(workflowService)

	// Auth routes (public)
	authHandler.RegisterRoutes(r)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Route("/enquiries", func(r chi.Router) {
			enquiryHandler.RegisterRoutes(r)

			// Deleting an enquiry is management-only
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.StaffRoleOwner, enum.StaffRoleManager))
				r.Delete("/{id}", enquiryHandler.Delete)
			})

			r.Route("/{id}", func(r chi.Router) {
				r.Route("/pickup", pickupHandler.RegisterRoutes)
				r.Route("/service", serviceHandler.RegisterEnquiryRoutes)
				r.Route("/billing", billingHandler.RegisterRoutes)
				r.Route("/delivery", deliveryHandler.RegisterRoutes)
			})
		})

		r.Route("/assignments/{assignmentID}", serviceHandler.RegisterAssignmentRoutes)
	})

	return r
}
