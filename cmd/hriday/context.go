package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mohdateeqmarch2-spec/hriday/internal/api"
	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) apiClient() (*api.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	var opts []api.ClientOption
	if c.apiFlag != nil {
		if addr := strings.TrimSpace(*c.apiFlag); addr != "" {
			if !strings.Contains(addr, "://") {
				addr = "http://" + addr
			}
			opts = append(opts, api.WithBaseURL(addr))
		}
	}
	return api.NewClient(cfg, opts...), nil
}

func (c *commandContext) withClient(fn func(*api.Client) error) error {
	client, err := c.apiClient()
	if err != nil {
		return err
	}
	if err := fn(client); err != nil {
		return describeClientError(err)
	}
	return nil
}

func describeClientError(err error) error {
	if errors.Is(err, api.ErrDaemonUnavailable) {
		return fmt.Errorf("daemon is not running; start it with `hriday start` (%v)", err)
	}
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
