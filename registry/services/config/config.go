/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"bytes"
	"embed"
	"strings"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/anchor"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/fingerprint"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/governance"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/network"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/storage"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/verification"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "CERTREG"
	// ConfigFileEnv names an extra config file merged over the defaults.
	ConfigFileEnv = "CERTREG_CONFIG_FILE"
)

//go:embed resources/core.yaml
var embeddedFiles embed.FS

type Logging struct {
	Spec   string `mapstructure:"spec" yaml:"spec"`
	Format string `mapstructure:"format" yaml:"format"`
}

type Server struct {
	Address         string        `mapstructure:"address" yaml:"address"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout" yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout"`
	MaxUploadBytes  int64         `mapstructure:"maxUploadBytes" yaml:"maxUploadBytes"`
	// AdminToken guards seeding and suspension; empty disables those routes.
	AdminToken string `mapstructure:"adminToken" yaml:"adminToken"`
}

type Metrics struct {
	// Provider is prometheus or disabled.
	Provider string `mapstructure:"provider" yaml:"provider"`
	// Address serves /metrics; empty mounts it on the API server.
	Address string `mapstructure:"address" yaml:"address"`
}

type Tracing struct {
	// Provider is none or stdout.
	Provider string `mapstructure:"provider" yaml:"provider"`
}

type Fingerprint struct {
	Algorithm fingerprint.Algorithm `mapstructure:"algorithm" yaml:"algorithm"`
}

type Reconcile struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

type Companies struct {
	BcryptCost int `mapstructure:"bcryptCost" yaml:"bcryptCost"`
}

// Configuration is the full node configuration.
type Configuration struct {
	Logging      Logging               `mapstructure:"logging" yaml:"logging"`
	Server       Server                `mapstructure:"server" yaml:"server"`
	Metrics      Metrics               `mapstructure:"metrics" yaml:"metrics"`
	Tracing      Tracing               `mapstructure:"tracing" yaml:"tracing"`
	Storage      storage.Config        `mapstructure:"storage" yaml:"storage"`
	Fingerprint  Fingerprint           `mapstructure:"fingerprint" yaml:"fingerprint"`
	Governance   governance.Config     `mapstructure:"governance" yaml:"governance"`
	Anchor       anchor.Config         `mapstructure:"anchor" yaml:"anchor"`
	Ledger       network.LedgerConfig  `mapstructure:"ledger" yaml:"ledger"`
	Content      network.ContentConfig `mapstructure:"content" yaml:"content"`
	Verification verification.Config   `mapstructure:"verification" yaml:"verification"`
	Reconcile    Reconcile             `mapstructure:"reconcile" yaml:"reconcile"`
	Companies    Companies             `mapstructure:"companies" yaml:"companies"`
}

// Load reads the embedded defaults, merges configFile over them when given and
// applies CERTREG_ environment overrides.
func Load(configFile string) (*Configuration, error) {
	v := viper.New()
	if err := loadDefaultConfig(v); err != nil {
		return nil, err
	}
	if configFile != "" {
		if err := loadConfig(v, configFile); err != nil {
			return nil, err
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return decode(v)
}

// Print renders c as yaml with secrets redacted.
func Print(c *Configuration) ([]byte, error) {
	redacted := *c
	if len(redacted.Server.AdminToken) != 0 {
		redacted.Server.AdminToken = "<redacted>"
	}
	out, err := yaml.Marshal(&redacted)
	if err != nil {
		return nil, errors.Wrapf(err, "failed marshalling configuration")
	}
	return out, nil
}

func (c *Configuration) validate() error {
	if c.Server.Address == "" {
		return errors.New("server.address must be set")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.Errorf("server.maxUploadBytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if _, err := fingerprint.NewEngine(c.Fingerprint.Algorithm); err != nil {
		return err
	}
	if p := c.Governance.QuorumPercent; p < 1 || p > 100 {
		return errors.Errorf("governance.quorumPercent must be in [1,100], got %d", p)
	}
	if c.Reconcile.Workers < 0 {
		return errors.Errorf("reconcile.workers must not be negative, got %d", c.Reconcile.Workers)
	}
	return nil
}

func decode(v *viper.Viper) (*Configuration, error) {
	// Get honours env overrides only for keys the defaults declare.
	settings := map[string]interface{}{}
	for _, key := range v.AllKeys() {
		settings[key] = v.Get(key)
	}
	var c Configuration
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &c,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed creating config decoder")
	}
	if err := d.Decode(expand(settings)); err != nil {
		return nil, errors.Wrapf(err, "cannot unmarshal the configuration")
	}
	if err := c.validate(); err != nil {
		return nil, errors.WithMessagef(err, "invalid configuration")
	}
	return &c, nil
}

// expand turns flat dotted keys back into nested maps.
func expand(flat map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for key, value := range flat {
		parts := strings.Split(key, ".")
		m := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := m[p].(map[string]interface{})
			if !ok {
				next = map[string]interface{}{}
				m[p] = next
			}
			m = next
		}
		m[parts[len(parts)-1]] = value
	}
	return out
}

func loadConfig(v *viper.Viper, configFile string) error {
	v.SetConfigFile(configFile)
	if err := v.MergeInConfig(); err != nil {
		return errors.Wrapf(err, "couldn't read the config file '%s'", configFile)
	}
	return nil
}

func loadDefaultConfig(v *viper.Viper) error {
	configuration, err := embeddedFiles.ReadFile("resources/core.yaml")
	if err != nil {
		return errors.Wrapf(err, "couldn't find the default config file 'core.yaml'")
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(configuration)); err != nil {
		return errors.Wrapf(err, "couldn't read the default config file 'core.yaml'")
	}
	return nil
}
