package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tiledraft/internal/config"
	"tiledraft/internal/ports/httpapi"
	"tiledraft/internal/ports/memory"
	"tiledraft/internal/table"

	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	configPath := flag.String("config", "data/game_config.json", "game config file")
	players := flag.Int("players", 0, "table size (0 uses the config default)")
	seed := flag.Int64("seed", 0, "shuffle seed (0 uses the clock)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := config.LoadGameConfig(*configPath); err != nil {
		logger.Warn("game config not loaded, using defaults", zap.String("path", *configPath), zap.Error(err))
	}

	n := *players
	if n == 0 {
		n = config.GetDefaultPlayers()
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	setup := memory.Setup{
		Players:       n,
		Factories:     config.GetGameConfig().GetFactoryCount(n),
		TilesPerColor: config.GetTilesPerColor(),
	}
	board, err := table.NewBoard(setup, rand.New(rand.NewSource(*seed)), nil)
	if err != nil {
		logger.Fatal("create table", zap.Int("players", n), zap.Error(err))
	}
	tbl := table.New(board, logger.Named("table"))
	defer tbl.Close()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           httpapi.NewServer(tbl, logger.Named("http")).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tbl.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("dev server listening",
		zap.String("addr", *addr),
		zap.Int("players", n),
		zap.Int("factories", setup.Factories),
		zap.Int64("seed", *seed),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("listen", zap.Error(err))
	}
}
