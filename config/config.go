// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2021-2022 AdTech Data Ops Ltd. All rights reserved.

package config

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v6"
	"github.com/pkg/errors"

	"github.com/adtech-devops/cm360-relay/pkg/cm360"
	"github.com/adtech-devops/cm360-relay/pkg/statsreceiver"
	"github.com/adtech-devops/cm360-relay/pkg/statsreceiver/statsreceiveriface"
	"github.com/adtech-devops/cm360-relay/pkg/uploader"
)

// CM360Config configures access to the CM360 conversions API
type CM360Config struct {
	// ImpersonateServiceAccount is the delegated identity the relay
	// exchanges its ambient credentials for
	ImpersonateServiceAccount string `env:"CM360_IMPERSONATE_SERVICE_ACCOUNT"`
}

// DelegatorConfig configures the BigQuery to Pub/Sub delegation function
type DelegatorConfig struct {
	ProjectID string `env:"GCP_PROJECT"`

	// BatchSize is how many rows are wrapped into one published envelope
	BatchSize int `env:"DELEGATOR_BATCH_SIZE" envDefault:"1000"`
}

// SentryConfig configures the Sentry error tracker
type SentryConfig struct {
	Dsn   string `env:"SENTRY_DSN"`
	Tags  string `env:"SENTRY_TAGS" envDefault:"{}"`
	Debug bool   `env:"SENTRY_DEBUG" envDefault:"false"`
}

// StatsDStatsReceiverConfig configures the stats metrics receiver
type StatsDStatsReceiverConfig struct {
	Address string `env:"STATS_RECEIVER_STATSD_ADDRESS"`
	Prefix  string `env:"STATS_RECEIVER_STATSD_PREFIX" envDefault:"adtech.cm360-relay"`
	Tags    string `env:"STATS_RECEIVER_STATSD_TAGS" envDefault:"{}"`
}

// Config for holding all configuration details
type Config struct {
	CM360     CM360Config
	Delegator DelegatorConfig

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Timezone is used for operator-facing timestamps in progress lines
	Timezone string `env:"PROJECT_TIMEZONE" envDefault:"America/New_York"`

	GoogleServiceAccountB64 string `env:"GOOGLE_APPLICATION_CREDENTIALS_B64"`

	Sentry SentryConfig

	StatsReceiver  string `env:"STATS_RECEIVER"`
	StatsReceivers StatsDStatsReceiverConfig
}

// NewConfig resolves the config from the environment
func NewConfig() (*Config, error) {
	cfg := Config{}
	err := env.Parse(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetUploader builds a fresh CM360 client for this invocation and returns
// the uploader wired on top of it
func (c *Config) GetUploader(ctx context.Context) (*uploader.Uploader, error) {
	client, err := cm360.NewClient(ctx, c.CM360.ImpersonateServiceAccount)
	if err != nil {
		return nil, err
	}
	return uploader.New(client), nil
}

// GetStatsReceiver builds and returns the stats receiver
func (c *Config) GetStatsReceiver() (statsreceiveriface.StatsReceiver, error) {
	switch c.StatsReceiver {
	case "statsd":
		return statsreceiver.NewStatsDStatsReceiver(
			c.StatsReceivers.Address,
			c.StatsReceivers.Prefix,
			c.StatsReceivers.Tags,
		)
	case "":
		return nil, nil
	default:
		return nil, errors.New(fmt.Sprintf("Invalid stats receiver found; expected one of 'statsd' and got '%s'", c.StatsReceiver))
	}
}
