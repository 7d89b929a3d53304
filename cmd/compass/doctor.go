package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/compasshq/compass/internal/config"
	"github.com/compasshq/compass/internal/db"
	"github.com/compasshq/compass/internal/herald"
)

func newDoctorCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check system prerequisites and configuration",
		Long:  "Runs diagnostic checks on Compass prerequisites: config, database, schema, auth secret, advisor endpoint, and herald settings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "compass.yaml", "path to Compass config file")
	return cmd
}

type checkResult struct {
	name   string
	status string // "PASS", "FAIL", "WARN"
	detail string
}

func runDoctor(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Compass Doctor")
	fmt.Fprintln(out, "==============")

	var results []checkResult

	cfg, cfgResult := checkConfig(configPath)
	results = append(results, cfgResult)

	if cfg != nil {
		conn, dbResult := checkDatabase(cfg)
		results = append(results, dbResult)
		if conn != nil {
			results = append(results, checkSchema(conn))
		} else {
			results = append(results, checkResult{"Schema", "FAIL", "skipped (no database)"})
		}
		results = append(results, checkAuthSecret(cfg))
		results = append(results, checkAdvisor(cfg))
		results = append(results, checkHerald(cfg)...)
	} else {
		results = append(results, checkResult{"Database", "FAIL", "skipped (no config)"})
	}

	passed, failed, warned := 0, 0, 0
	for _, r := range results {
		printCheckResult(out, r)
		switch r.status {
		case "PASS":
			passed++
		case "FAIL":
			failed++
		case "WARN":
			warned++
		}
	}

	fmt.Fprintf(out, "\n%d passed, %d failed, %d warning\n", passed, failed, warned)

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func printCheckResult(out io.Writer, r checkResult) {
	fmt.Fprintf(out, "[%s] %s: %s\n", r.status, r.name, r.detail)
}

func checkConfig(path string) (*config.Config, checkResult) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, checkResult{"Config file", "FAIL", fmt.Sprintf("%s: %v", path, err)}
	}
	return cfg, checkResult{"Config file", "PASS", path}
}

func checkDatabase(cfg *config.Config) (*gorm.DB, checkResult) {
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, checkResult{"Database", "FAIL", err.Error()}
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, checkResult{"Database", "FAIL", err.Error()}
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, checkResult{"Database", "FAIL", err.Error()}
	}
	return conn, checkResult{"Database", "PASS", cfg.Database.Driver}
}

func checkSchema(conn *gorm.DB) checkResult {
	missing := 0
	for _, model := range db.AllModels() {
		if !conn.Migrator().HasTable(model) {
			missing++
		}
	}
	if missing > 0 {
		return checkResult{"Schema", "WARN", fmt.Sprintf("%d table(s) missing, run 'compass migrate'", missing)}
	}
	return checkResult{"Schema", "PASS", fmt.Sprintf("%d tables", len(db.AllModels()))}
}

func checkAuthSecret(cfg *config.Config) checkResult {
	if len(cfg.Auth.JWTSecret) < 32 {
		return checkResult{"Auth secret", "WARN", fmt.Sprintf("jwt_secret is %d chars, want at least 32", len(cfg.Auth.JWTSecret))}
	}
	return checkResult{"Auth secret", "PASS", "configured"}
}

func checkAdvisor(cfg *config.Config) checkResult {
	if !cfg.Advisor.Enabled() {
		return checkResult{"Advisor", "WARN", "no api_key, rule-based analysis only"}
	}
	base, err := url.Parse(cfg.Advisor.BaseURL)
	if err != nil || base.Host == "" {
		return checkResult{"Advisor", "FAIL", fmt.Sprintf("base_url %q is not a valid URL", cfg.Advisor.BaseURL)}
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Head(cfg.Advisor.BaseURL)
	if err != nil {
		return checkResult{"Advisor", "WARN", fmt.Sprintf("%s unreachable: %v", base.Host, err)}
	}
	resp.Body.Close()
	return checkResult{"Advisor", "PASS", fmt.Sprintf("%s (%s)", base.Host, cfg.Advisor.Model)}
}

func checkHerald(cfg *config.Config) []checkResult {
	var results []checkResult

	if cfg.Herald.Slack.BotToken == "" && cfg.Herald.Discord.BotToken == "" {
		results = append(results, checkResult{"Herald", "WARN", "no chat adapters configured"})
	} else {
		adapters := ""
		if cfg.Herald.Slack.BotToken != "" {
			adapters = "slack"
		}
		if cfg.Herald.Discord.BotToken != "" {
			if adapters != "" {
				adapters += ", "
			}
			adapters += "discord"
		}
		results = append(results, checkResult{"Herald", "PASS", adapters})
	}

	crons := []struct{ name, expr string }{
		{"digest_cron", cfg.Herald.DigestCron},
		{"purge_cron", cfg.Herald.PurgeCron},
	}
	for _, c := range crons {
		name, expr := c.name, c.expr
		if expr == "" {
			continue
		}
		if !herald.ValidCron(expr) {
			results = append(results, checkResult{"Herald " + name, "FAIL", fmt.Sprintf("%q is not a cron expression", expr)})
		} else {
			next := herald.NextCronDuration(expr, time.Now())
			results = append(results, checkResult{"Herald " + name, "PASS", fmt.Sprintf("next run in %s", next.Round(time.Minute))})
		}
	}
	return results
}
