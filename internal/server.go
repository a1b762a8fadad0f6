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
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/fittrack/internal/apperr"
	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/catalog"
	"github.com/2beens/fittrack/internal/config"
	"github.com/2beens/fittrack/internal/db"
	"github.com/2beens/fittrack/internal/middleware"
	"github.com/2beens/fittrack/internal/misc"
	"github.com/2beens/fittrack/internal/profile"
	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/internal/trainings"
	"github.com/2beens/fittrack/pkg"
)

const serviceName = "fittrack-backend"

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	tokens      *auth.TokenService

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config      *config.Config
	Secrets     config.Secrets
	VersionInfo string
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		DBUser:         params.Config.PostgresUser,
		DBPassword:     params.Secrets.DBPassword,
		TracingEnabled: params.Secrets.HoneycombEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(params.VersionInfo, pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "fittrack", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.Secrets.RedisPassword,
		DB:       0,
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	tokens, err := auth.NewTokenService(params.Secrets.JWTSecret, params.Config.JWTIssuer, rdb)
	if err != nil {
		dbPool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("new token service: %w", err)
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(
		params.Secrets.HoneycombEnabled,
		serviceName,
		params.Secrets.HoneycombAPIKey,
		rdb,
	)
	if err != nil {
		dbPool.Close()
		_ = rdb.Close()
		return nil, err
	}

	return &Server{
		config:         params.Config,
		dbPool:         dbPool,
		redisClient:    rdb,
		tokens:         tokens,
		versionInfo:    params.VersionInfo,
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	gateway := db.NewGateway(s.dbPool, s.metricsManager)
	catalogRepo := catalog.NewRepoWithCacheSize(s.dbPool, s.config.CatalogCacheSize)

	miscHandler := misc.NewHandler(s.dbPool, s.versionInfo)
	miscHandler.SetupRoutes(r)

	authHandler := auth.NewHandler(auth.NewService(auth.NewServiceParams{
		Users:           auth.NewUsersRepo(s.dbPool),
		Tokens:          s.tokens,
		Limiter:         reqRateLimiter,
		LoginsPerMinute: s.config.LoginsPerMinute,
		Metrics:         s.metricsManager,
	}))
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/", authHandler.HandleRegister).Methods("POST", "OPTIONS").Name("register")
	authRouter.HandleFunc("/token", authHandler.HandleToken).Methods("POST", "OPTIONS").Name("login")
	authRouter.HandleFunc("/refresh", authHandler.HandleRefresh).Methods("POST", "OPTIONS").Name("refresh")
	authRouter.HandleFunc("/logout", authHandler.HandleLogout).Methods("POST", "OPTIONS").Name("logout")
	authRouter.Use(middleware.RateLimit(reqRateLimiter, "auth", s.config.AuthRequestsPerMinute, s.metricsManager))

	catalogHandler := catalog.NewHandler(catalogRepo)
	r.HandleFunc("/exercise/search", catalogHandler.HandleSearch).Methods("GET", "OPTIONS").Name("search-exercises")
	r.HandleFunc("/exercise/fetchall", catalogHandler.HandleFetchAll).Methods("GET", "OPTIONS").Name("all-exercises")

	profileHandler := profile.NewHandler(profile.NewService(profile.NewRepo(gateway)))
	r.HandleFunc("/profile/{user_id:[0-9]+}", profileHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-profile")
	r.HandleFunc("/profile/update/{user_id:[0-9]+}", profileHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-profile")

	trainingsHandler := trainings.NewHandler(
		trainings.NewService(trainings.NewPgStore(gateway, catalogRepo), s.metricsManager),
	)
	r.HandleFunc("/trainings/", trainingsHandler.HandleCreate).Methods("POST", "OPTIONS").Name("new-training")
	r.HandleFunc("/trainings/fetch/sorted/{user_id:[0-9]+}", trainingsHandler.HandleFetchSorted).Methods("GET", "OPTIONS").Name("list-trainings")
	r.HandleFunc("/trainings/fetch/search", trainingsHandler.HandleSearch).Methods("GET", "OPTIONS").Name("search-trainings")
	r.HandleFunc("/trainings/details/{training_id:[0-9]+}", trainingsHandler.HandleDetails).Methods("GET", "OPTIONS").Name("training-details")
	r.HandleFunc("/trainings/delete/{training_id:[0-9]+}", trainingsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-training")
	r.HandleFunc("/trainings/update/{training_id:[0-9]+}", trainingsHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-training")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apperr.WriteHTTP(w, apperr.NotFound("Not Found"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteJSON(w, apperr.Response{
			Kind:   "method_not_allowed",
			Detail: fmt.Sprintf("Method %s not allowed", r.Method),
		}, http.StatusMethodNotAllowed)
	})

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.tokens)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:           router,
		Addr:              ipAndPort,
		WriteTimeout:      time.Minute,
		ReadTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", otelhttp.NewHandler(
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
		"metrics",
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

// GracefulShutdown stops accepting requests first, then releases tracing, redis and the db pool.
func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

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

	if s.otelShutdown != nil {
		s.otelShutdown()
		log.Trace("otel shut down ...")
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close()
		log.Debugln("db pool closed")
	}
}
