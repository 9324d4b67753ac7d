package main

import (
	"context"
	"fmt"
	"os"

	"github.com/OpenClique85/openclique-sub010/internal/cli"
	"github.com/OpenClique85/openclique-sub010/internal/config"
	"github.com/OpenClique85/openclique-sub010/internal/dispatch"
	"github.com/OpenClique85/openclique-sub010/internal/opsstream"
	"github.com/OpenClique85/openclique-sub010/internal/repository"
	"github.com/OpenClique85/openclique-sub010/internal/service"
	"github.com/OpenClique85/openclique-sub010/pkg/logger"
)

func main() {
	configDir := config.DefaultPath
	if dir := os.Getenv("QUESTCTL_CONFIG_DIR"); dir != "" {
		configDir = dir
	}

	rootCmd := cli.RootCmd(func(context.Context) (service.QuestLifecycleServiceI, func(), error) {
		return openService(configDir)
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openService wires the same stack as the server. Side effects always run
// synchronously so nothing is lost when the process exits.
func openService(configDir string) (service.QuestLifecycleServiceI, func(), error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Initialize(cfg.LogLevel, logger.WithConsoleEncoding(), logger.WithService("questctl")); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	repo, err := repository.New(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	closers := []func() error{repo.Close}
	opsSinks := dispatch.OpsFanout{repo}
	if cfg.Redis.Enabled {
		stream, err := opsstream.New(cfg.Redis.Config)
		if err != nil {
			_ = repo.Close()
			return nil, nil, err
		}
		opsSinks = append(opsSinks, stream)
		closers = append(closers, stream.Close)
	}

	dispatchCfg := cfg.Dispatch
	dispatchCfg.Async = false
	dispatcher := dispatch.New(repo, opsSinks, dispatch.NotificationFanout{repo}, dispatchCfg, logger.Logger().Named("dispatch"))

	release := func() {
		dispatcher.Wait()
		for _, c := range closers {
			_ = c()
		}
		_ = logger.Sync()
	}
	return service.NewQuestLifecycleService(repo, dispatcher), release, nil
}
