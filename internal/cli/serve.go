package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frontdesk-ai/frontdesk/internal/agent"
	"github.com/frontdesk-ai/frontdesk/internal/api"
	"github.com/frontdesk-ai/frontdesk/internal/request"
	"github.com/frontdesk-ai/frontdesk/internal/sweeper"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the helpdesk API server and timeout sweeper",
		Run:   runServe,
	}
	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load configuration", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	notifier, closeNotifier := newNotifier(cfg)
	defer closeNotifier()

	lifecycle := request.NewService(st, st, notifier, cfg.Request)
	resolver := agent.NewResolver(st, lifecycle, cfg.Agent.EscalationMessage)
	gateway := api.NewGateway(cfg.Server, resolver, lifecycle, st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sw := sweeper.New(st, notifier, cfg.Sweeper)
	sw.Start(ctx)
	defer sw.Stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- gateway.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Printf("received %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			exitErr("serve", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := gateway.Stop(shutdownCtx); err != nil {
		log.Printf("gateway shutdown: %v", err)
	}
}
