package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/axiomesh/axiom-kit/log"
	"github.com/axiomesh/govtracker"
	"github.com/axiomesh/govtracker/api"
	"github.com/axiomesh/govtracker/clock"
	"github.com/axiomesh/govtracker/repo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
)

func start(ctx *cli.Context) error {
	p, err := getRootPath(ctx)
	if err != nil {
		return err
	}
	r, err := repo.Load(p)
	if err != nil {
		return err
	}

	err = log.Initialize(
		log.WithReportCaller(r.Config.Log.ReportCaller),
		log.WithPersist(true),
		log.WithFilePath(filepath.Join(r.Config.RepoRoot, repo.LogsDirName)),
		log.WithFileName(r.Config.Log.Filename),
		log.WithMaxAge(r.Config.Log.MaxAge),
		log.WithRotationTime(r.Config.Log.RotationTime),
	)
	if err != nil {
		return fmt.Errorf("log initialize: %w", err)
	}

	printVersion()

	logger := newLogger(r.Config)
	n, err := openNode(r, logger)
	if err != nil {
		return fmt.Errorf("open node: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx.Context)
	clk, err := clock.New(runCtx, &r.Config.Clock, logger)
	if err != nil {
		cancel()
		_ = n.Close()
		return fmt.Errorf("new clock: %w", err)
	}
	if chain, ok := clk.(*clock.Chain); ok {
		go func() {
			if err := chain.Follow(runCtx); err != nil {
				logger.Errorf("follow chain: %s", err)
			}
		}()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	server := api.NewServer(n.gov, clk, registry, logger)

	go n.listenEvents(runCtx)

	if _, err := server.Start(r.Config.API.Listen); err != nil {
		cancel()
		_ = n.Close()
		return fmt.Errorf("start api server failed: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	handleShutdown(func() error {
		cancel()
		stopCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := server.Stop(stopCtx); err != nil {
			logger.Warnf("stop api server: %s", err)
		}
		if chain, ok := clk.(*clock.Chain); ok {
			chain.Close()
		}
		return n.Close()
	}, &wg)

	fmt.Println("=============govtracker is ready=============")

	wg.Wait()

	return nil
}

func printVersion() {
	fmt.Printf("govtracker version: %s-%s-%s\n", govtracker.CurrentVersion, govtracker.CurrentBranch, govtracker.CurrentCommit)
	fmt.Printf("App build date: %s\n", govtracker.BuildDate)
	fmt.Printf("System version: %s\n", govtracker.Platform)
	fmt.Printf("Golang version: %s\n", govtracker.GoVersion)
	fmt.Println()
}

func handleShutdown(stopNode func() error, wg *sync.WaitGroup) {
	var stop = make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGTERM)
	signal.Notify(stop, syscall.SIGINT)

	go func() {
		<-stop
		fmt.Println("received interrupt signal, shutting down...")
		if err := stopNode(); err != nil {
			fmt.Printf("shutdown: %s\n", err)
		}
		wg.Done()
	}()
}
