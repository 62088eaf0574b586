package api

import (
	"net/http"
	"time"

	"ugcads-backend/config"
	adminTransaction "ugcads-backend/internal/api/v1/admin/transaction"
	adminUser "ugcads-backend/internal/api/v1/admin/user"
	adminVideo "ugcads-backend/internal/api/v1/admin/video"
	"ugcads-backend/internal/api/v1/common/upload"
	"ugcads-backend/internal/api/v1/generation"
	"ugcads-backend/internal/api/v1/payment"
	"ugcads-backend/internal/api/v1/token"
	userRoutes "ugcads-backend/internal/api/v1/user"
	"ugcads-backend/internal/api/v1/video"
	"ugcads-backend/internal/middleware"
	"ugcads-backend/internal/notify"
	"ugcads-backend/internal/services"
	"ugcads-backend/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP layer is built from. Hub, Issuer and
// Blocks may be nil.
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Verifier middleware.TokenVerifier
	Users    *services.UserService
	Ledger   *services.Ledger
	Videos   *services.VideoService
	Payments *services.PaymentService
	Hub      *notify.Hub
	Issuer   upload.CredentialIssuer
	Blocks   *services.Blocklist
}

func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	utils.RegisterValidators()

	router := gin.New()
	router.Use(middleware.Logger(log), gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", utils.UserTokenHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           5 * time.Minute,
	}
	if len(cfg.CORSOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	// The UI loads its document from the package generated by `swag init`.
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, utils.NewSuccessResponse("ok", nil))
	})

	paymentHandler := payment.NewHandler(d.Payments, log)

	v1 := router.Group("/api/v1")
	{
		// Called by the platform and the generation backend, which
		// authenticate with signatures instead of user tokens.
		payment.RegisterWebhookRoutes(v1, paymentHandler)
		generation.RegisterRoutes(v1, generation.NewHandler(d.Videos, log), cfg.GenerationCallbackSecret)

		authorized := v1.Group("/")
		authorized.Use(middleware.AuthMiddleware(d.Verifier, d.Users, log))
		if d.Blocks != nil {
			authorized.Use(middleware.RejectBlocked(d.Blocks, log))
		}
		{
			userRoutes.RegisterRoutes(authorized, userRoutes.NewHandler(d.Users, log))
			token.RegisterRoutes(authorized, token.NewHandler(d.Ledger, d.Payments, cfg.PurchaseURL, log))
			payment.RegisterRoutes(authorized, paymentHandler)
			video.RegisterRoutes(authorized, video.NewHandler(d.Videos, d.Hub, video.Config{
				PurchaseURL:    cfg.PurchaseURL,
				UploadMaxBytes: cfg.UploadMaxBytes,
				AllowedOrigins: cfg.CORSOrigins,
			}, log))
			upload.RegisterRoutes(authorized, upload.NewHandler(d.Videos, d.Issuer, cfg.ImageUploadMaxBytes, log))
		}

		if len(cfg.AdminUserIDs) > 0 {
			admin := v1.Group("/admin")
			admin.Use(middleware.AuthMiddleware(d.Verifier, d.Users, log), middleware.AdminOnly(cfg.AdminUserIDs, log))
			{
				adminUser.RegisterRoutes(admin, adminUser.NewHandler(d.Users, d.Ledger, d.Blocks, log))
				adminTransaction.RegisterRoutes(admin, adminTransaction.NewHandler(d.Ledger, log))
				adminVideo.RegisterRoutes(admin, adminVideo.NewHandler(d.Videos, log))
			}
		}
	}

	return router
}
