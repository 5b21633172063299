package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"nmealink/internal/transport"
)

type Config struct {
	Feed    FeedConfig    `yaml:"feed"`
	Web     WebConfig     `yaml:"web"`
	Publish PublishConfig `yaml:"publish"`
}

type FeedConfig struct {
	// Transport is tcp, udp, or serial. Defaults to tcp.
	Transport string `yaml:"transport"`

	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Device and Baud apply to the serial transport.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	BatchInterval  time.Duration `yaml:"batch_interval"`
	MaxBuffer      int           `yaml:"max_buffer"`
}

type WebConfig struct {
	Enable bool   `yaml:"enable"`
	Addr   string `yaml:"addr"`
}

type PublishConfig struct {
	Enable   bool   `yaml:"enable"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Feed.Transport == "" {
		cfg.Feed.Transport = string(transport.KindTCP)
	}
	switch transport.Kind(cfg.Feed.Transport) {
	case transport.KindTCP:
		if cfg.Feed.Host == "" {
			return Config{}, fmt.Errorf("feed.host is required for tcp")
		}
		if cfg.Feed.Port <= 0 || cfg.Feed.Port > 65535 {
			return Config{}, fmt.Errorf("feed.port is required for tcp")
		}
	case transport.KindUDP:
		if cfg.Feed.Port <= 0 || cfg.Feed.Port > 65535 {
			return Config{}, fmt.Errorf("feed.port is required for udp")
		}
	case transport.KindSerial:
		if cfg.Feed.Device == "" {
			return Config{}, fmt.Errorf("feed.device is required for serial")
		}
		if cfg.Feed.Baud == 0 {
			cfg.Feed.Baud = transport.DefaultBaud
		}
	default:
		return Config{}, fmt.Errorf("feed.transport must be tcp, udp, or serial")
	}

	if cfg.Feed.ConnectTimeout <= 0 {
		cfg.Feed.ConnectTimeout = transport.DefaultConnectTimeout
	}
	if cfg.Feed.BatchInterval <= 0 {
		cfg.Feed.BatchInterval = 200 * time.Millisecond
	}
	if cfg.Feed.MaxBuffer <= 0 {
		cfg.Feed.MaxBuffer = 4096
	}

	if cfg.Web.Enable && cfg.Web.Addr == "" {
		cfg.Web.Addr = ":8080"
	}

	if cfg.Publish.Enable {
		if cfg.Publish.Broker == "" {
			cfg.Publish.Broker = "tcp://localhost:1883"
		}
		if cfg.Publish.ClientID == "" {
			cfg.Publish.ClientID = "nmealink"
		}
		if cfg.Publish.Topic == "" {
			cfg.Publish.Topic = "nmealink/instruments"
		}
	}

	return cfg, nil
}

// TransportConfig maps the file-level feed section onto the transport layer.
func (c Config) TransportConfig() transport.Config {
	return transport.Config{
		Kind:           transport.Kind(c.Feed.Transport),
		Host:           c.Feed.Host,
		Port:           c.Feed.Port,
		Device:         c.Feed.Device,
		Baud:           c.Feed.Baud,
		ConnectTimeout: c.Feed.ConnectTimeout,
	}
}
