package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the sequencer process's full runtime configuration.
type Config struct {
	Server    ServerConfig
	Sequencer SequencerConfig
	P2P       P2PConfig
}

// ServerConfig configures the HTTP façade.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// SequencerConfig configures block sealing cadence and the environment
// variable holding the signing key. ChainID is validated at load but is
// not read by the sequencer, which uses txn.ChainID.
type SequencerConfig struct {
	BlockPeriodMS int64  `mapstructure:"block_period_ms"`
	ChainID       int64  `mapstructure:"chain_id"`
	KeyEnv        string `mapstructure:"key_env"`
}

// P2PConfig configures the gossip overlay.
type P2PConfig struct {
	ListenTCPPort  int    `mapstructure:"listen_tcp_port"`
	ListenQUICPort int    `mapstructure:"listen_quic_port"`
	HeartbeatSec   int64  `mapstructure:"heartbeat_sec"`
	IdleTimeoutSec int64  `mapstructure:"idle_timeout_sec"`
	RendezvousName string `mapstructure:"rendezvous_name"`
}

// Load reads configuration from built-in defaults, an optional
// config.yaml, and environment variables. Environment variables take
// precedence over the file, and the file over the defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("sequencer.block_period_ms", 2000)
	v.SetDefault("sequencer.chain_id", 83479)
	v.SetDefault("sequencer.key_env", "SEQUENCER_KEY")
	v.SetDefault("p2p.listen_tcp_port", 0)
	v.SetDefault("p2p.listen_quic_port", 0)
	v.SetDefault("p2p.heartbeat_sec", 10)
	v.SetDefault("p2p.idle_timeout_sec", 60)
	v.SetDefault("p2p.rendezvous_name", "nolemma-sequencer")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"server.port":               "PORT",
		"sequencer.block_period_ms": "BLOCK_PERIOD_MS",
		"sequencer.chain_id":        "CHAIN_ID",
		"sequencer.key_env":         "SEQUENCER_KEY_ENV",
		"p2p.listen_tcp_port":       "P2P_TCP_PORT",
		"p2p.listen_quic_port":      "P2P_QUIC_PORT",
		"p2p.heartbeat_sec":         "P2P_HEARTBEAT_SEC",
		"p2p.idle_timeout_sec":      "P2P_IDLE_TIMEOUT_SEC",
		"p2p.rendezvous_name":       "P2P_RENDEZVOUS_NAME",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Sequencer.BlockPeriodMS <= 0 {
		return fmt.Errorf("required config invalid: BLOCK_PERIOD_MS must be positive")
	}
	if c.Sequencer.ChainID <= 0 {
		return fmt.Errorf("required config missing: CHAIN_ID")
	}
	if c.Sequencer.KeyEnv == "" {
		return fmt.Errorf("required config missing: SEQUENCER_KEY_ENV")
	}
	if c.P2P.HeartbeatSec <= 0 {
		return fmt.Errorf("required config invalid: P2P_HEARTBEAT_SEC must be positive")
	}
	if c.P2P.IdleTimeoutSec <= 0 {
		return fmt.Errorf("required config invalid: P2P_IDLE_TIMEOUT_SEC must be positive")
	}
	return nil
}
