package main

import (
	"fmt"
	"os"

	"github.com/yashjainme/friend-finder-frontend/config"
	"github.com/yashjainme/friend-finder-frontend/contract"
	"github.com/yashjainme/friend-finder-frontend/logger"
	"github.com/yashjainme/friend-finder-frontend/repository"
	"github.com/yashjainme/friend-finder-frontend/rest"
)

func main() {
	if err := run(); err != nil {
		logger.Get().Errorf("%v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Init(os.Stdout, logger.ParseLevel(cfg.LogLevel))
	log := logger.Get()

	var tokens contract.TokenRepo
	switch cfg.TokenStore {
	case config.StoreMysql:
		repo, err := repository.NewTokenRepoMysql(cfg.MysqlUser, cfg.MysqlPassword, cfg.MysqlHost, cfg.MysqlDatabase)
		if err != nil {
			return fmt.Errorf("open token store: %w", err)
		}
		defer repo.Close()
		if err := repo.Migrate(); err != nil {
			return fmt.Errorf("migrate token store: %w", err)
		}
		tokens = repo
	default:
		log.Warnf("using in-memory token store, sessions end with the process")
		tokens = repository.NewTokenRepoMemory()
	}

	log.Infof("Starting Friend Finder front-end ...")
	a := rest.App{}
	if err := a.Init(rest.Options{
		BackendURL:    cfg.BackendURL,
		SessionSecret: cfg.SessionSecret,
		CookieSecure:  cfg.CookieSecure,
		Tokens:        tokens,
	}); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := a.Run(cfg.ListenAddr); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
