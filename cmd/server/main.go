package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/unilodge/unilodge-api/internal/config"
	"github.com/unilodge/unilodge-api/internal/database"
	"github.com/unilodge/unilodge-api/internal/handler"
	"github.com/unilodge/unilodge-api/internal/ledger"
	appmw "github.com/unilodge/unilodge-api/internal/middleware"
	"github.com/unilodge/unilodge-api/internal/queue"
	"github.com/unilodge/unilodge-api/internal/repository"
	"github.com/unilodge/unilodge-api/internal/router"
	"github.com/unilodge/unilodge-api/internal/search"
	queuepublisher "github.com/unilodge/unilodge-api/internal/service"
	"github.com/unilodge/unilodge-api/internal/session"
	"github.com/unilodge/unilodge-api/internal/unlock"
)

func main() {
	// .env is a dev convenience; in prod the vars come from the platform
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional; rate limiting, caching and session history all
	// degrade gracefully when it is absent.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; continuing without cache/rate limit")
	}

	// repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	universities := repository.NewUniversityRepo(db)
	listings := repository.NewListingRepo(db)
	grants := repository.NewGrantRepo(db)
	unlocks := repository.NewUnlockRepo(db)
	confirmations := repository.NewConfirmationRepo(db)

	// services
	notifier := queuepublisher.NewPublisher()
	fees := ledger.NewService(grants, confirmations, universities, notifier)
	gate := unlock.NewService(grants, unlocks, listings, universities)
	engine := search.NewEngine(listings, universities)

	var sessions session.Store
	if rdb != nil {
		sessions = session.NewRedisStore(rdb)
	} else {
		sessions = session.NewMemoryStore()
	}

	// handlers
	authH := handler.NewAuthHandler(cfg, users, tokens)
	listingH := handler.NewListingHandler(engine, listings, universities, sessions)
	contactH := handler.NewContactHandler(gate)
	paymentH := handler.NewPaymentHandler(fees, unlocks)
	adminH := handler.NewAdminHandler(fees)

	// notification consumer runs for the life of the process
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, listingH,
		appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		appmw.NewRedisCache(config.LoadCacheConfig(), rdb),
	)
	router.RegisterStudent(e, contactH, paymentH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
