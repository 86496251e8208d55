// Copyright 2025 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pjscruggs/slogslack"
)

const envPrefix = "SLOGSLACK"

// cliConfig is the effective command configuration. Values come from, in
// increasing priority: struct defaults, the config file, SLOGSLACK_*
// environment variables and flags.
type cliConfig struct {
	WebhookURL   string            `mapstructure:"webhook-url" yaml:"webhook-url"`
	ChannelKey   string            `mapstructure:"channel-key" yaml:"channel-key,omitempty"`
	MessageKey   string            `mapstructure:"message-key" yaml:"message-key" default:"msg"`
	ImageURLKey  string            `mapstructure:"image-url-key" yaml:"image-url-key,omitempty"`
	ExcludedKeys []string          `mapstructure:"excluded-keys" yaml:"excluded-keys" default:"[\"hostname\",\"pid\"]"`
	Colors       map[string]string `mapstructure:"colors" yaml:"colors" default:"{\"30\":\"#2EB67D\",\"40\":\"#ECB22E\",\"50\":\"#E01E5A\",\"60\":\"#E01E5A\"}"`
	KeepAlive    bool              `mapstructure:"keep-alive" yaml:"keep-alive" default:"true"`
	MessageLimit int               `mapstructure:"message-limit" yaml:"message-limit" default:"2500"`
	MaxDepth     int               `mapstructure:"max-depth" yaml:"max-depth" default:"16"`
	Timeout      time.Duration     `mapstructure:"timeout" yaml:"timeout" default:"10s"`
	MetricsAddr  string            `mapstructure:"metrics-addr" yaml:"metrics-addr,omitempty"`
}

// defaultConfig returns the configuration with struct defaults applied.
func defaultConfig() cliConfig {
	var cfg cliConfig
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Sprintf("slogslack: invalid config defaults: %v", err))
	}
	return cfg
}

// registerFlags declares one flag per configuration key, defaulting to the
// struct defaults so unchanged flags never mask file or env values.
func registerFlags(fs *pflag.FlagSet) {
	def := defaultConfig()
	fs.StringP("config", "c", "", "YAML config file")
	fs.String("webhook-url", def.WebhookURL, "incoming webhook URL")
	fs.String("channel-key", def.ChannelKey, "record key whose value overrides the channel")
	fs.String("message-key", def.MessageKey, "record key holding the message text")
	fs.String("image-url-key", def.ImageURLKey, "record key holding an image URL")
	fs.StringSlice("excluded-keys", def.ExcludedKeys, "record keys left out of the field list")
	fs.StringToString("colors", def.Colors, "level to color mapping, e.g. 30=#2EB67D")
	fs.Bool("keep-alive", def.KeepAlive, "reuse connections between sends")
	fs.Int("message-limit", def.MessageLimit, "characters kept before the message is truncated (<= 0 disables)")
	fs.Int("max-depth", def.MaxDepth, "nesting depth expanded into dotted field names")
	fs.Duration("timeout", def.Timeout, "per-request timeout (0 disables)")
	fs.String("metrics-addr", def.MetricsAddr, "serve Prometheus metrics on this address")
}

// loadConfig merges defaults, the optional config file, the environment and
// the flags in fs.
func loadConfig(fs *pflag.FlagSet) (cliConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return cliConfig{}, fmt.Errorf("bind flags: %w", err)
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return cliConfig{}, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cliConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// options translates the configuration into forwarder options.
func (c cliConfig) options(logger *slog.Logger) ([]slogslack.Option, error) {
	colors := make(map[slogslack.Level]string, len(c.Colors))
	for name, color := range c.Colors {
		level, err := slogslack.ParseLevel(name)
		if err != nil {
			return nil, err
		}
		colors[level] = color
	}
	return []slogslack.Option{
		slogslack.WithWebhookURL(c.WebhookURL),
		slogslack.WithChannelKey(c.ChannelKey),
		slogslack.WithMessageKey(c.MessageKey),
		slogslack.WithImageURLKey(c.ImageURLKey),
		slogslack.WithExcludedKeys(c.ExcludedKeys...),
		slogslack.WithColors(colors),
		slogslack.WithKeepAlive(c.KeepAlive),
		slogslack.WithMessageLimit(c.MessageLimit),
		slogslack.WithMaxDepth(c.MaxDepth),
		slogslack.WithTimeout(c.Timeout),
		slogslack.WithErrorLogger(logger),
	}, nil
}

// redacted returns a copy safe to print: the webhook URL path carries the
// webhook secret.
func (c cliConfig) redacted() cliConfig {
	out := c
	if i := strings.Index(out.WebhookURL, "://"); i >= 0 {
		rest := out.WebhookURL[i+3:]
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			out.WebhookURL = out.WebhookURL[:i+3+j] + "/[redacted]"
		}
	}
	return out
}
