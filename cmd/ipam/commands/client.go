package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/fivetwenty-io/ipam-client/internal/constants"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
	"github.com/fivetwenty-io/ipam-client/pkg/ipamclient"
)

// CreateClient creates a client for the configured API using the stored session.
func CreateClient(ctx context.Context) (ipam.Client, error) {
	config := loadConfig()
	if config.API == "" {
		return nil, constants.ErrNoAPIConfigured
	}

	clientConfig, err := buildClientConfig(config)
	if err != nil {
		return nil, err
	}

	clientConfig.SessionID = config.SessionID
	clientConfig.CSRFToken = config.CSRFToken

	return ipamclient.New(ctx, clientConfig)
}

// buildClientConfig maps the CLI configuration to an ipam.Config without credentials.
func buildClientConfig(config *Config) (*ipam.Config, error) {
	clientConfig := &ipam.Config{
		APIEndpoint: config.API,
		RetryMax:    config.RetryMax,
	}

	if viper.GetBool("verbose") {
		clientConfig.Logger = NewStderrLogger(os.Stderr, true)
		clientConfig.Debug = true
	}

	cacheType, err := ipam.ParseCacheType(config.Cache)
	if err != nil {
		return nil, err
	}

	switch cacheType {
	case ipam.CacheTypeNone:
	case ipam.CacheTypeMemory:
		clientConfig.Cache = ipam.DefaultCacheConfig()
	case ipam.CacheTypeNATS, ipam.CacheTypeTiered:
		if config.NATSURL == "" {
			return nil, fmt.Errorf("%w: set nats_url", ipam.ErrNATSConfigRequired)
		}

		cacheConfig := ipam.DefaultCacheConfig()
		cacheConfig.Type = cacheType
		cacheConfig.NATS = &ipam.NATSKVConfig{
			URL:    config.NATSURL,
			Bucket: constants.DefaultNATSBucket,
			TTL:    constants.DefaultCacheTTL,
		}

		if cacheType == ipam.CacheTypeNATS {
			cacheConfig.Memory = nil
		}

		clientConfig.Cache = cacheConfig
	}

	return clientConfig, nil
}
