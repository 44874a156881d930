// Package main is the entry point for the eyewear configurator.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/eyewear-configurator/internal/app"
	"github.com/Faultbox/eyewear-configurator/internal/config"
	"github.com/Faultbox/eyewear-configurator/internal/logger"
	"github.com/Faultbox/eyewear-configurator/internal/skin"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Eyewear Configurator ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	store, err := loadSkins(cfg)
	if err != nil {
		logger.Error("no skins to show", zap.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, store)
	if err != nil {
		logger.Error("failed to create configurator", zap.Error(err))
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		logger.Error("configurator error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("configurator closed normally")
}

// loadSkins reads the configured skin directory, or the built-in catalog
// when none is set. Broken skins are logged and skipped.
func loadSkins(cfg *config.Config) (*skin.Store, error) {
	if cfg.Assets.SkinsDir == "" {
		return skin.Catalog()
	}

	store, err := skin.Load(os.DirFS(cfg.Assets.SkinsDir), ".")
	if errors.Is(err, skin.ErrNoSkins) || store == nil {
		return nil, err
	}
	if err != nil {
		logger.Warn("some skins were skipped", zap.String("dir", cfg.Assets.SkinsDir), zap.Error(err))
	}
	return store, nil
}
