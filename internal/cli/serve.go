package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/o9nn/opencoq-sub001/internal/server"
	"github.com/o9nn/opencoq-sub001/internal/snapshot"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and the attention cycle",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := snapshot.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot db: %w", err)
	}
	defer db.Close()

	space, err := buildSpace(cfg)
	if err != nil {
		return fmt.Errorf("build space: %w", err)
	}

	// Restore before installing hooks so the reload itself is not audited.
	if restored, err := db.Load(space.Store()); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	} else if restored > 0 {
		fmt.Fprintf(os.Stderr, "  restored %d atoms\n", restored)
	}
	space.SetHooks(snapshot.NewRecorder(db).Hooks())

	// Attention cycle ticker
	stopCycle := make(chan struct{})
	go func() {
		interval := time.Duration(cfg.Cycle.IntervalSeconds) * time.Second
		if interval <= 0 {
			interval = 5 * time.Second
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				stats := space.Tick()
				space.OptimizeTensor()
				if stats.ForgottenNodes > 0 || stats.ForgottenLinks > 0 {
					fmt.Fprintf(os.Stderr, "cycle: forgot %d nodes, %d links\n",
						stats.ForgottenNodes, stats.ForgottenLinks)
				}
			case <-stopCycle:
				return
			}
		}
	}()

	srv := server.New(space, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "atomspaced serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", path)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")
	close(stopCycle)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return err
	}

	if err := db.Save(space.Store()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
