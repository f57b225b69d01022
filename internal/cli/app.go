package cli

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/client"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/config"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/repository"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/service"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/signal"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/util"
)

// app holds the components shared by the commands
type app struct {
	cfg     *config.Config
	logger  *zap.SugaredLogger
	service service.ConsoleService
}

// newApp wires the scheduler client, repository and console service
func newApp(cfg *config.Config, log *zap.SugaredLogger) (*app, error) {
	tlsConfig, err := util.LoadTLSConfig(cfg.Scheduler.TLS)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load scheduler TLS config")
	}

	httpClient := cleanhttp.DefaultPooledClient()
	if tlsConfig != nil {
		httpClient.Transport.(*http.Transport).TLSClientConfig = tlsConfig
	}

	c, err := client.New(cfg.Scheduler.BaseURL,
		client.WithHTTPClient(httpClient),
		client.WithRateLimit(cfg.Scheduler.RateLimit, cfg.Scheduler.Burst),
		client.WithUserAgent(cfg.Scheduler.UserAgent),
		client.WithLogger(log),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create scheduler client")
	}

	log.Debugw("scheduler client initialized",
		"base_url", c.BaseURL(),
		"rate_limit", cfg.Scheduler.RateLimit,
	)

	return &app{
		cfg:     cfg,
		logger:  log,
		service: service.NewConsoleService(repository.NewSchedulerRepository(c), signal.NewPending(), log),
	}, nil
}
