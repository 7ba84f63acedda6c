package routes

import (
	"context"
	"io"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"mutual_aid/internal/auth"
	"mutual_aid/internal/config"
	"mutual_aid/internal/controllers"
	"mutual_aid/internal/metrics"
	"mutual_aid/internal/middleware"
	"mutual_aid/internal/realtime"
	"mutual_aid/internal/store"
)

// Deps are the shared services the handlers are built from.
type Deps struct {
	Settings  *config.Settings
	Store     *store.Store
	Tokens    *auth.TokenIssuer
	Hasher    *auth.PasswordHasher
	Hub       *realtime.Hub
	AccessLog io.Writer
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())
	if d.Settings.RequestLogsEnabled {
		r.Use(ginlog.SetLogger(
			ginlog.WithWriter(d.AccessLog),
			ginlog.WithSkipPath([]string{"/metrics", "/healthz"}),
		))
	}
	r.Use(gin.Recovery())
	r.Use(middleware.AttachUser(d.Tokens))

	r.GET("/healthz", controllers.Health(func(ctx context.Context) error {
		sqlDB, err := d.Store.DB().DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	limiter := middleware.NewRateLimiter(d.Settings.AuthRatePerMinute)

	incidents := controllers.NewIncidentController(d.Store.Incidents)
	volunteers := &controllers.VolunteerController{Users: d.Store.Users}
	history := &controllers.HistoryController{History: d.Store.History}
	emergency := &controllers.EmergencyController{Contacts: d.Store.Emergency}
	content := contentControllers{
		posts:     controllers.NewPostController(d.Store.Posts),
		donations: controllers.NewDonationController(d.Store.Donations),
		events:    controllers.NewEventController(d.Store.Events),
		learning:  controllers.NewLearningController(d.Store.Learning),
	}

	AuthRoutes(api, &controllers.AuthController{
		Users:  d.Store.Users,
		Hasher: d.Hasher,
		Tokens: d.Tokens,
	}, limiter.Handler())
	ContentRoutes(api, content)
	IncidentRoutes(api, incidents)
	VolunteerRoutes(api, volunteers)
	EmergencyRoutes(api, emergency)
	HistoryRoutes(api, history)
	MessageRoutes(api, controllers.NewMessageController(d.Store.Messages, d.Store.Users, d.Hub, d.Tokens, d.Settings.CORSOrigins))
	AdminRoutes(api, adminControllers{
		admin: &controllers.AdminController{
			Users: d.Store.Users,
			Stats: d.Store,
		},
		content:    content,
		incidents:  incidents,
		volunteers: volunteers,
		emergency:  emergency,
		history:    history,
	})

	return r
}
