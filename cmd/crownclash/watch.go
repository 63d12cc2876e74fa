package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fystack/crown-clash/internal/events"
	"github.com/fystack/crown-clash/pkg/common/logger"
)

func (a *app) watchCmd() *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print game events published to NATS until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if logFile != "" {
				if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
					return fmt.Errorf("create log directory: %w", err)
				}
				f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				w = io.MultiWriter(w, f)
			}

			conn, err := events.Connect(a.cfg.NATS, a.cfg.Environment)
			if err != nil {
				return fmt.Errorf("connect nats: %w", err)
			}
			defer conn.Close()

			sub, err := events.Watch(conn, a.cfg.NATS.Subject, func(subject string, ev events.Event, raw json.RawMessage) {
				fmt.Fprintf(w, "%s [%s] round=%d %s %s\n",
					time.Unix(ev.Timestamp, 0).UTC().Format(time.RFC3339), subject, ev.Round, ev.Type, raw)
			})
			if err != nil {
				return fmt.Errorf("subscribe: %w", err)
			}
			defer sub.Unsubscribe()

			logger.Info("Watching events", "subject", a.cfg.NATS.Subject+".>")
			<-cmd.Context().Done()
			logger.Info("Watch stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&logFile, "log", "", "also append events to this file")
	return cmd
}
