package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/Ayooluwabami/Blogging-API/internal/auth"
	"github.com/Ayooluwabami/Blogging-API/internal/blog"
	"github.com/Ayooluwabami/Blogging-API/internal/config"
	"github.com/Ayooluwabami/Blogging-API/internal/db"
	"github.com/Ayooluwabami/Blogging-API/internal/middleware"
	"github.com/Ayooluwabami/Blogging-API/internal/telemetry/metrics"
	"github.com/Ayooluwabami/Blogging-API/internal/telemetry/tracing"
	"github.com/Ayooluwabami/Blogging-API/internal/users"
	"github.com/Ayooluwabami/Blogging-API/pkg"
)

const authRateLimitKeyPrefix = "users-auth"

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config       *config.Config
	dbPool       *pgxpool.Pool
	redisClient  *redis.Client // nil when rate limiting is off
	tokenService *auth.TokenService

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	SecretKey               string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	tokenService, err := auth.NewTokenService(params.SecretKey, auth.DefaultTTL)
	if err != nil {
		return nil, fmt.Errorf("new token service: %w", err)
	}

	if params.Config.RunMigrations {
		if err := db.Migrate(ctx, params.Config.DatabaseURI); err != nil {
			return nil, fmt.Errorf("migrate db: %w", err)
		}
	}

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		ConnString:     params.Config.DatabaseURI,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": dbPool.Config().ConnConfig.Database},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("blogging", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	var rdb *redis.Client
	if params.Config.RedisHost != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
			Password: params.RedisPassword,
			DB:       0,
		})

		rdbStatus := rdb.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
	} else {
		log.Warnln("redis host not set, credential routes are not rate limited")
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "blogging-api", rdb)
	if err != nil {
		dbPool.Close()
		return nil, err
	}

	return &Server{
		config:       params.Config,
		dbPool:       dbPool,
		redisClient:  rdb,
		tokenService: tokenService,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, "Hello, world!")
	}).Methods("GET").Name("root")

	authGate := middleware.AuthGate(s.tokenService)

	rateLimit := func(next http.Handler) http.Handler { return next }
	if s.redisClient != nil {
		rateLimit = middleware.RateLimit(
			redis_rate.NewLimiter(s.redisClient),
			authRateLimitKeyPrefix,
			s.config.AuthRateLimitPerMin,
			s.metricsManager,
		)
	}

	usersService := users.NewService(users.NewRepo(s.dbPool), s.tokenService)
	users.NewHandler(usersService, s.metricsManager).SetupRoutes(r, authGate, rateLimit)

	blogService := blog.NewService(blog.NewRepo(s.dbPool), usersService)
	blog.NewHandler(blogService, s.metricsManager).SetupRoutes(r, authGate)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteMessage(w, "Not found", http.StatusNotFound)
	})

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

// handler wraps the router with CORS, outside of mux so that preflight
// requests are answered before method matching.
func (s *Server) handler() http.Handler {
	return middleware.Cors(s.config.AllowedOrigins)(s.routerSetup())
}

func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:           s.handler(),
		Addr:              ipAndPort,
		WriteTimeout:      time.Minute,
		ReadTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		ConnState:         s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{Registry: s.promRegistry},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop taking requests before the pool and redis go away under them
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Errorf(" >>> failed to gracefully shutdown http server: %s", err)
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Errorf(" >>> failed to gracefully shutdown metrics http server: %s", err)
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
