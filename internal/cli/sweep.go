package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frontdesk-ai/frontdesk/internal/sweeper"
)

func init() {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a single timeout sweep and exit",
		Run:   runSweep,
	}
	RootCmd.AddCommand(cmd)
}

func runSweep(cmd *cobra.Command, args []string) {
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

	sw := sweeper.New(st, notifier, cfg.Sweeper)
	n, err := sw.Sweep(context.Background())
	if err != nil {
		exitErr("sweep", err)
	}
	fmt.Printf("marked %d request(s) unresolved\n", n)
}
