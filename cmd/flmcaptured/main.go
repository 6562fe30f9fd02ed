// Command flmcaptured runs the Capture service (spec.md §6): it
// listens for Flash Player telemetry connections and writes each
// session's raw byte stream to flm/logN.flm for later offline
// reporting with flmreport.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relaypoint/flmtrace/pkg/captureserver"
)

func main() {
	var (
		port int
		dir  string
	)

	root := &cobra.Command{
		Use:   "flmcaptured",
		Short: "Accept Flash Player telemetry connections and save them to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := captureserver.Config{
				Addr: fmt.Sprintf(":%d", port),
				Dir:  dir,
			}
			srv := captureserver.New(cfg)

			stop := make(chan struct{})
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sig
				slog.Info("signal received, shutting down")
				close(stop)
			}()

			return srv.Run(stop)
		},
	}

	root.Flags().IntVar(&port, "port", 7934, "TCP port to listen on")
	root.Flags().StringVar(&dir, "dir", captureserver.DefaultDir, "directory to write capture files into")

	if err := root.Execute(); err != nil {
		slog.Error("flmcaptured exited with error", "error", err)
		os.Exit(1)
	}
}
