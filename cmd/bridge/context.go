package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/aegis-lab/bridge/internal/infrastructure/config"
)

type commandContext struct {
	configFlag *string
	urlFlag    *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, urlFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		urlFlag:    urlFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

// bridgeURL is the --url flag, or the configured listen address with a
// wildcard host replaced by loopback.
func (c *commandContext) bridgeURL() (string, error) {
	if c.urlFlag != nil && strings.TrimSpace(*c.urlFlag) != "" {
		return strings.TrimRight(strings.TrimSpace(*c.urlFlag), "/"), nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return "http://" + cfg.DialAddr(), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
