package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/nightowl-sec/vantage/internal/assetgraph"
	"github.com/nightowl-sec/vantage/internal/console"
	"github.com/nightowl-sec/vantage/internal/gateway"
	"github.com/nightowl-sec/vantage/internal/session"
	"github.com/nightowl-sec/vantage/internal/telemetry"
	"github.com/nightowl-sec/vantage/pkg/models"
)

// App bundles the wired components every command needs: config, the
// session store, and the gateway client reading tokens from it.
type App struct {
	Config  *models.Config
	Session *session.Store
	API     *gateway.Client
	Logger  *logrus.Logger
}

func newApp() (*App, error) {
	cfg := resolveConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logrus.StandardLogger()

	store, err := session.Open(cfg.Session.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	client := gateway.NewClient(cfg.API, store, logger)

	return &App{
		Config:  cfg,
		Session: store,
		API:     client,
		Logger:  logger,
	}, nil
}

// resolveConfig layers viper-provided values (config file, env, flags)
// over the built-in defaults.
func resolveConfig() *models.Config {
	cfg := models.DefaultConfig()

	if v := viper.GetString("api.base_url"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := viper.GetDuration("api.timeout"); v > 0 {
		cfg.API.Timeout = v
	}
	if viper.IsSet("api.rate_limit") {
		cfg.API.RateLimit = viper.GetInt("api.rate_limit")
	}
	if viper.IsSet("api.rate_burst") {
		cfg.API.RateBurst = viper.GetInt("api.rate_burst")
	}
	if v := viper.GetString("api.user_agent"); v != "" {
		cfg.API.UserAgent = v
	}
	if viper.IsSet("api.tls_skip_verify") {
		cfg.API.TLSSkipVerify = viper.GetBool("api.tls_skip_verify")
	}

	if v := viper.GetDuration("console.dashboard_interval"); v > 0 {
		cfg.Console.DashboardInterval = v
	}
	if v := viper.GetDuration("console.scans_interval"); v > 0 {
		cfg.Console.ScansInterval = v
	}
	if v := viper.GetInt("console.recent_activity"); v > 0 {
		cfg.Console.RecentActivity = v
	}
	if viper.IsSet("console.dedup_graph_links") {
		cfg.Console.DedupGraphLinks = viper.GetBool("console.dedup_graph_links")
	}
	if v := viper.GetString("console.report_dir"); v != "" {
		cfg.Console.ReportDir = v
	}

	if viper.IsSet("metrics.enabled") {
		cfg.Metrics.Enabled = viper.GetBool("metrics.enabled")
	}
	if v := viper.GetString("metrics.addr"); v != "" {
		cfg.Metrics.Addr = v
	}

	if v := viper.GetString("session.dir"); v != "" {
		cfg.Session.Dir = v
	}

	cfg.Global.LogLevel = viper.GetString("log_level")
	cfg.Global.LogFormat = viper.GetString("log_format")
	cfg.Global.LogFile = viper.GetString("log_file")
	cfg.Global.Quiet = viper.GetBool("quiet")

	return cfg
}

func (a *App) newPipeline() *console.Pipeline {
	return console.NewPipeline(
		a.API,
		telemetry.NewAggregator(a.Config.Console.RecentActivity),
		assetgraph.NewBuilder(a.Config.Console.DedupGraphLinks, a.Logger),
		a.Logger,
	)
}

// handleAPIError translates gateway failures into operator-facing
// messages. An auth failure tears down the stored session here, in the
// command layer: the gateway itself never writes session state.
func (a *App) handleAPIError(err error) error {
	switch {
	case gateway.IsAuth(err):
		if a.Session.IsAuthenticated() {
			if lerr := a.Session.Logout(); lerr != nil {
				a.Logger.Warnf("Failed to clear session: %v", lerr)
			}
		}
		return fmt.Errorf("session expired or unauthorized, run `vantage login`")
	case gateway.IsValidation(err):
		return err
	case gateway.IsNetwork(err):
		return fmt.Errorf("backend unreachable: %w", err)
	default:
		return err
	}
}

func requireAuth(a *App) error {
	if !a.Session.IsAuthenticated() {
		return fmt.Errorf("not logged in, run `vantage login`")
	}
	return nil
}

func promptLine(label string) (string, error) {
	fmt.Printf("%s: ", label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func commandTimeout() time.Duration {
	if d := viper.GetDuration("api.timeout"); d > 0 {
		return d + 5*time.Second
	}
	return 35 * time.Second
}
