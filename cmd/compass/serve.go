package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/compasshq/compass/internal/advisor"
	"github.com/compasshq/compass/internal/auth"
	"github.com/compasshq/compass/internal/config"
	"github.com/compasshq/compass/internal/db"
	"github.com/compasshq/compass/internal/herald"
	"github.com/compasshq/compass/internal/insight"
	"github.com/compasshq/compass/internal/server"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Compass API server",
		Long:  "Starts the HTTP API, the insight scheduler (digest and purge jobs), and the configured chat adapters. Shuts down cleanly on SIGINT/SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "compass.yaml", "path to Compass config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	conn, err := db.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	out := cmd.OutOrStdout()

	var adv insight.Advisor
	if cfg.Advisor.Enabled() {
		adv = advisor.New(cfg.Advisor)
		fmt.Fprintf(out, "Advisor enabled (%s)\n", cfg.Advisor.Model)
	} else {
		fmt.Fprintln(out, "Advisor disabled, using rule-based analysis only")
	}

	h, err := buildHerald(cfg.Herald, out)
	if err != nil {
		return err
	}
	defer h.Close()

	insights := insight.NewService(conn, cfg.Analytics, adv)
	tokens := auth.NewManager(cfg.Auth)
	srv := server.New(conn, tokens, insights, h)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler, err := startScheduler(ctx, cfg.Herald, conn, insights, h)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() { <-scheduler.Stop().Done() }()
	}

	return srv.Start(ctx, server.StartOpts{Server: cfg.Server, Out: out})
}

func buildHerald(cfg config.HeraldConfig, out io.Writer) (*herald.Herald, error) {
	var adapters []herald.Adapter
	if cfg.Slack.BotToken != "" {
		a, err := herald.NewSlack(herald.SlackOpts{BotToken: cfg.Slack.BotToken, ChannelID: cfg.Slack.ChannelID})
		if err != nil {
			return nil, fmt.Errorf("slack adapter: %w", err)
		}
		adapters = append(adapters, a)
		fmt.Fprintln(out, "Slack alerts enabled")
	}
	if cfg.Discord.BotToken != "" {
		a, err := herald.NewDiscord(herald.DiscordOpts{BotToken: cfg.Discord.BotToken, ChannelID: cfg.Discord.ChannelID})
		if err != nil {
			return nil, fmt.Errorf("discord adapter: %w", err)
		}
		adapters = append(adapters, a)
		fmt.Fprintln(out, "Discord alerts enabled")
	}
	return herald.New(cfg.MinPriority, adapters...), nil
}

// startScheduler registers the digest and purge cron jobs. Returns nil when
// neither is configured.
func startScheduler(ctx context.Context, cfg config.HeraldConfig, conn *gorm.DB, insights *insight.Service, h *herald.Herald) (*cron.Cron, error) {
	if cfg.DigestCron == "" && cfg.PurgeCron == "" {
		return nil, nil
	}

	scheduler := cron.New()

	if cfg.DigestCron != "" {
		if !herald.ValidCron(cfg.DigestCron) {
			return nil, fmt.Errorf("herald.digest_cron %q is not a valid cron expression", cfg.DigestCron)
		}
		_, err := scheduler.AddFunc(cfg.DigestCron, func() {
			evt, ok, err := herald.BuildDailyDigest(ctx, conn, time.Now().UTC())
			if err != nil {
				log.Printf("digest: %v", err)
				return
			}
			if !ok || !h.Enabled() {
				return
			}
			if err := h.Broadcast(ctx, evt); err != nil {
				log.Printf("digest: broadcast: %v", err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("schedule digest: %w", err)
		}
	}

	if cfg.PurgeCron != "" {
		if !herald.ValidCron(cfg.PurgeCron) {
			return nil, fmt.Errorf("herald.purge_cron %q is not a valid cron expression", cfg.PurgeCron)
		}
		_, err := scheduler.AddFunc(cfg.PurgeCron, func() {
			n, err := insights.PurgeExpired(ctx)
			if err != nil {
				log.Printf("purge: %v", err)
				return
			}
			if n > 0 {
				log.Printf("purge: removed %d expired insights", n)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("schedule purge: %w", err)
		}
	}

	scheduler.Start()
	return scheduler, nil
}
