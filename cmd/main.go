package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lizboard/internal/adapters"
	"lizboard/internal/bootstrap"
	gameDelivery "lizboard/internal/delivery/game"
	"lizboard/internal/domain/game"
	ownMiddleware "lizboard/internal/middleware"
	"lizboard/internal/repository"
	gameUsecase "lizboard/internal/usecase/game"
	"lizboard/internal/usecase/record"
	"lizboard/internal/usecase/sgf"
	"lizboard/internal/usecase/winrate"
)

type dataBaseAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:           "lizboard",
		Short:         "Go board viewer backend with engine analysis",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")

	cmd.AddCommand(newServeCmd(&cfgPath))
	cmd.AddCommand(newSGFCmd())
	return cmd
}

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket surface with the engine attached",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap.Setup(*cfgPath)
			if err != nil {
				return fmt.Errorf("setup configuration: %w", err)
			}
			return serve(cmd.Context(), cfg, NewLogger())
		},
	}
}

func newSGFCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sgf <file>",
		Short: "Parse an SGF file and print its normalized export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			loaded, err := sgf.Read(string(data))
			if err != nil {
				return err
			}
			h := game.NewHistory(0)
			h.Splice(0, sgf.EntriesFromNodes(loaded.Tree.PathNodes()))
			h.PlayerBlack, h.PlayerWhite = sgf.Target{Tree: loaded.Tree, Index: -1}.Players()
			fmt.Fprintln(cmd.OutOrStdout(), sgf.Export(h))
			fmt.Fprintf(cmd.OutOrStdout(), "moves: %d, winrate points: %d\n", h.Len(), len(winrate.Series(h)))
			return nil
		},
	}
}

func serve(parent context.Context, cfg *bootstrap.Config, logger *zap.SugaredLogger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	go handleShutdown(cancel, logger)

	databaseAdapters, err := initDatabaseAdapters(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer databaseAdapters.mongoAdapter.Close(context.Background())
	defer databaseAdapters.redisAdapter.Close(context.Background())

	engines, starters := initEngines(cfg, logger)
	hub := gameDelivery.NewHub(logger)
	session := gameUsecase.NewSession(logger, engines, hub, gameUsecase.Options{
		DeletedCapacity: cfg.DeletedSequenceCapacity,
		WeakenPercent:   cfg.WeakenPercent,
	})
	serialized := gameUsecase.NewSerialized(session)
	for _, e := range starters {
		e.Attach(serialized)
		if err := e.Start(ctx); err != nil {
			return err
		}
	}
	_ = serialized.Do(func(s *gameUsecase.Session) error {
		s.Resume()
		return nil
	})

	repo := repository.NewGameRepository(*cfg, logger, databaseAdapters.redisAdapter.GetClient(), databaseAdapters.mongoAdapter.Database)
	handler := gameDelivery.NewGameHandler(logger, serialized, record.NewUseCase(repo, serialized, logger), hub)

	r := chi.NewRouter()
	if cfg.IsLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	handler.Routes(r)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: ":" + cfg.ServerPort, Handler: r}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		logger.Infof("Server is running on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			cancel()
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func initEngines(cfg *bootstrap.Config, log *zap.SugaredLogger) (gameUsecase.Engines, []*repository.KatagoEngine) {
	black := repository.NewKatagoEngine(cfg, log, cfg.EngineArgs())
	engines := gameUsecase.Engines{Black: black}
	starters := []*repository.KatagoEngine{black}
	if args := cfg.WhiteEngineArgs(); len(args) > 0 {
		white := repository.NewKatagoEngine(cfg, log, args)
		engines.White = white
		starters = append(starters, white)
	}
	return engines, starters
}

func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) (*dataBaseAdapters, error) {
	mongoAdapter := adapters.NewAdapterMongo(cfg, log)
	if err := mongoAdapter.Init(ctx); err != nil {
		return nil, err
	}

	redisAdapter := adapters.NewAdapterRedis(cfg, log)
	if err := redisAdapter.Init(ctx); err != nil {
		_ = mongoAdapter.Close(ctx)
		return nil, err
	}

	log.Info("database adapters initialized")
	return &dataBaseAdapters{
		redisAdapter: redisAdapter,
		mongoAdapter: mongoAdapter,
	}, nil
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
}
