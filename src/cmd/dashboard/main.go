package main

import (
	"context"
	"os"
	"os/signal"
	"pulse/src/api"
	"pulse/src/common"
	"pulse/src/config"
	"pulse/src/dashboard"
	"pulse/src/page"
	"sync"
	"syscall"
	"time"
)

func main() {
	cfgPath := config.DefaultPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		common.Logger.Sugar().Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		common.Logger.Sugar().Fatalf("Invalid config: %v", err)
	}

	common.InitLogger(cfg.Log.Dev)
	defer common.Logger.Sync()
	common.Logger.Sugar().Infof("Starting dashboard, polling %s every %s", cfg.API.BaseURL, cfg.Poll.Interval)

	doc := page.NewDocument("BTC Price & Sentiment", page.DefaultIDs()...)
	if cfg.Snapshot.File != "" {
		defer page.NewSnapshotWriter(doc, cfg.Snapshot.File).Attach()()
	}
	hub := page.NewHub(doc)

	components := []common.Component{
		dashboard.NewDashboard(api.NewClient(cfg.API.BaseURL, cfg.API.Timeout), doc, cfg.Poll.Interval),
		page.NewServer(cfg.Server.Addr, doc, hub, common.NewFileLogger("access", 7*24*time.Hour)),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup
	for _, component := range components {
		wg.Add(1)
		common.Go(func() {
			defer wg.Done()
			if err := component.Run(ctx); err != nil {
				common.Logger.Sugar().Errorf("%s Run error: %v", component.Name(), err)
				cancel()
			}
		})
	}
	wg.Wait()
	common.Logger.Sugar().Info("Shutdown complete")
}
