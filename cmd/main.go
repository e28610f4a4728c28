package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/anthon-sd/rookify-sub000/internal/adapters"
	"github.com/anthon-sd/rookify-sub000/internal/bootstrap"
	"github.com/anthon-sd/rookify-sub000/internal/commentary"
	analysisDelivery "github.com/anthon-sd/rookify-sub000/internal/delivery/analysis"
	gamesDelivery "github.com/anthon-sd/rookify-sub000/internal/delivery/games"
	"github.com/anthon-sd/rookify-sub000/internal/domain/game"
	"github.com/anthon-sd/rookify-sub000/internal/engine"
	"github.com/anthon-sd/rookify-sub000/internal/features"
	"github.com/anthon-sd/rookify-sub000/internal/httpresponse"
	ownMiddleware "github.com/anthon-sd/rookify-sub000/internal/middleware"
	repo "github.com/anthon-sd/rookify-sub000/internal/repository"
	analysisuc "github.com/anthon-sd/rookify-sub000/internal/usecase/analysis"
	gamesuc "github.com/anthon-sd/rookify-sub000/internal/usecase/games"
)

type mainDeliveryHandler struct {
	analysis  *analysisDelivery.AnalysisHandler
	games     *gamesDelivery.GamesHandler
	evaluator engine.Evaluator
	log       *zap.SugaredLogger
}

type dataBaseAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
}

func main() {
	cfgPath := flag.String("config", ".env", "path to the .env config file")
	flag.Parse()

	cfg, err := bootstrap.Setup(*cfgPath)
	if err != nil {
		panic("failed to setup configuration: " + err.Error())
	}
	logger, err := bootstrap.NewLogger(cfg.LogLevel)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	databaseAdapters := initDatabaseAdapters(ctx, logger, cfg)
	defer databaseAdapters.mongoAdapter.Close(context.Background())
	defer databaseAdapters.redisAdapter.Close(context.Background())

	evaluator, closeEngine := initEvaluator(cfg, logger, databaseAdapters)
	defer closeEngine()

	r := chi.NewRouter()
	handlers := initializeDeliveryHandlers(cfg, logger, evaluator, databaseAdapters)
	handlers.Router(r, cfg.IsLocalCors)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorw("server shutdown failed", "error", err)
		}
	}()

	logger.Infow("server is running", "port", cfg.ServerPort, "engine_mode", cfg.EngineMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalw("failed to start server", "error", err)
	}
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HandleHealth)
	r.Post("/analyzeGame", h.analysis.HandleAnalyzeGame)
	r.Post("/analyzeBatch", h.analysis.HandleAnalyzeBatch)
	r.Get("/games/{gameID}/moments", h.analysis.HandleGetMoments)
	r.Get("/ws/analyze", h.analysis.HandleAnalyzeStream)
	r.Post("/importGames", h.games.HandleImportGames)
}

func (h *mainDeliveryHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.evaluator.Ping(ctx); err != nil {
		h.log.Warnw("health check failed", "error", err)
		httpresponse.WriteErrorResponse(w, http.StatusServiceUnavailable, "engine: "+err.Error())
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, map[string]string{"engine": "ok"})
}

func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) *dataBaseAdapters {
	mongoAdapter := adapters.NewAdapterMongo(cfg, log)
	if err := mongoAdapter.Init(ctx); err != nil {
		log.Fatalw("failed to init mongo", "error", err)
	}

	redisAdapter := adapters.NewAdapterRedis(cfg, log)
	if err := redisAdapter.Init(ctx); err != nil {
		log.Fatalw("failed to init redis", "error", err)
	}

	log.Info("database adapters initialized")
	return &dataBaseAdapters{
		redisAdapter: redisAdapter,
		mongoAdapter: mongoAdapter,
	}
}

// initEvaluator builds the local engine pool or the gRPC client, behind the
// shared Redis evaluation cache.
func initEvaluator(cfg *bootstrap.Config, log *zap.SugaredLogger, databaseAdapters *dataBaseAdapters) (engine.Evaluator, func()) {
	var (
		base    engine.Evaluator
		closeFn func()
	)

	switch cfg.EngineMode {
	case bootstrap.EngineModeRemote:
		remote, err := engine.DialRemote(cfg.EngineGrpcAddr)
		if err != nil {
			log.Fatalw("failed to dial engine service", "addr", cfg.EngineGrpcAddr, "error", err)
		}
		base = remote
		closeFn = func() { _ = remote.Close() }
	default:
		pool := engine.NewPool(cfg.EnginePoolSize, engine.UCIFactory(engine.UCIOptions{
			Path:    cfg.EnginePath,
			HashMB:  cfg.EngineHashMB,
			Threads: cfg.EngineThreads,
		}), log)
		base = pool
		closeFn = pool.Close
	}

	cache := repo.NewRedisEvalCache(databaseAdapters.redisAdapter.GetClient())
	return engine.NewCached(base, cache, cfg.EvalCacheTTL, log), closeFn
}

func initializeDeliveryHandlers(
	cfg *bootstrap.Config,
	log *zap.SugaredLogger,
	evaluator engine.Evaluator,
	databaseAdapters *dataBaseAdapters,
) *mainDeliveryHandler {
	var llm commentary.LlmStore
	if llmAdapter := adapters.NewLlmAdapter(cfg.MistralApiKey, cfg.MistralModel); llmAdapter != nil {
		llm = repo.NewLlmRepository(llmAdapter, log)
	} else {
		log.Warn("MISTRAL_API_KEY is empty, annotations will use template summaries")
	}
	annotator := commentary.NewAnnotator(llm, cfg.AnnotationTimeout, log)

	analysisUC := analysisuc.NewAnalysisUseCase(evaluator, features.NewExtractor(log), annotator, analysisuc.OptionsFromConfig(cfg), log)

	fetchers := map[game.Platform]gamesuc.GameFetcher{
		game.PlatformLichess:  repo.NewLichessClient(cfg.LichessBaseUrl, cfg.PlatformTimeout),
		game.PlatformChessCom: repo.NewChessComClient(cfg.ChessComBaseUrl, cfg.PlatformTimeout),
	}
	momentStore := repo.NewMomentRepository(databaseAdapters.mongoAdapter.Database, log)
	gamesUC := gamesuc.NewGamesUseCase(analysisUC, momentStore, fetchers, log)

	return &mainDeliveryHandler{
		analysis:  analysisDelivery.NewAnalysisHandler(log, analysisUC, gamesUC),
		games:     gamesDelivery.NewGamesHandler(log, gamesUC),
		evaluator: evaluator,
		log:       log,
	}
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("received shutdown signal")
	cancelFunc()
}
