package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type config struct {
	API              apiConfig              `yaml:"api"`
	ServiceDiscovery serviceDiscoveryConfig `yaml:"serviceDiscovery"`
	Jaeger           jaegerConfig           `yaml:"jaeger"`
	Metrics          metricsConfig          `yaml:"metrics"`
	Storage          storageConfig          `yaml:"storage"`
	Kafka            kafkaConfig            `yaml:"kafka"`
}

type apiConfig struct {
	Host string `yaml:"host" env:"SOCIAL_API_HOST"`
	Port int    `yaml:"port" env:"SOCIAL_API_PORT"`
	// RateLimit is the number of requests per second, also used as burst.
	RateLimit int       `yaml:"rateLimit" env:"SOCIAL_API_RATE_LIMIT"`
	TLS       tlsConfig `yaml:"tls"`
}

type tlsConfig struct {
	CertFile string `yaml:"certFile" env:"SOCIAL_TLS_CERT_FILE"`
	KeyFile  string `yaml:"keyFile" env:"SOCIAL_TLS_KEY_FILE"`
	CAFile   string `yaml:"caFile" env:"SOCIAL_TLS_CA_FILE"`
}

type serviceDiscoveryConfig struct {
	Consul consulConfig `yaml:"consul"`
}

type consulConfig struct {
	// Address is empty to use the in-process registry.
	Address string `yaml:"address" env:"SOCIAL_CONSUL_ADDRESS"`
}

type jaegerConfig struct {
	Host         string  `yaml:"host" env:"SOCIAL_JAEGER_HOST"`
	Port         int     `yaml:"port" env:"SOCIAL_JAEGER_PORT"`
	SamplingRate float64 `yaml:"samplingRate" env:"SOCIAL_JAEGER_SAMPLING_RATE"`
}

type metricsConfig struct {
	Port int `yaml:"port" env:"SOCIAL_METRICS_PORT"`
}

type storageConfig struct {
	// Driver is one of memory, sqlite, mysql or neo4j.
	Driver string `yaml:"driver" env:"SOCIAL_STORAGE_DRIVER"`
	// Feed is empty to keep the feed in the graph store, or badger.
	Feed      string       `yaml:"feed" env:"SOCIAL_STORAGE_FEED"`
	SeedFile  string       `yaml:"seedFile" env:"SOCIAL_SEED_FILE"`
	SQLite    sqliteConfig `yaml:"sqlite"`
	MySQL     mysqlConfig  `yaml:"mysql"`
	Neo4j     neo4jConfig  `yaml:"neo4j"`
	BadgerDir string       `yaml:"badgerDir" env:"SOCIAL_BADGER_DIR"`
}

type sqliteConfig struct {
	Path string `yaml:"path" env:"SOCIAL_SQLITE_PATH"`
}

type mysqlConfig struct {
	User     string `yaml:"user" env:"SOCIAL_MYSQL_USER"`
	Password string `yaml:"password" env:"SOCIAL_MYSQL_PASSWORD"`
	Addr     string `yaml:"addr" env:"SOCIAL_MYSQL_ADDR"`
	Database string `yaml:"database" env:"SOCIAL_MYSQL_DATABASE"`
}

type neo4jConfig struct {
	URI      string `yaml:"uri" env:"NEO4J_URI"`
	User     string `yaml:"user" env:"NEO4J_USER"`
	Password string `yaml:"password" env:"NEO4J_PASSWORD"`
}

type kafkaConfig struct {
	Enabled bool   `yaml:"enabled" env:"SOCIAL_KAFKA_ENABLED"`
	Addr    string `yaml:"addr" env:"SOCIAL_KAFKA_ADDR"`
	GroupID string `yaml:"groupId" env:"SOCIAL_KAFKA_GROUP_ID"`
	Topic   string `yaml:"topic" env:"SOCIAL_KAFKA_TOPIC"`
}

// loadConfig decodes the YAML file at path and applies environment
// overrides on top of it.
func loadConfig(path string) (config, error) {
	f, err := os.Open(path)
	if err != nil {
		return config{}, fmt.Errorf("open configuration: %w", err)
	}
	defer f.Close()

	var cfg config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return config{}, fmt.Errorf("parse configuration: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c config) validate() error {
	var errs []error
	if c.API.Port <= 0 {
		errs = append(errs, errors.New("api.port must be positive"))
	}
	if c.API.RateLimit <= 0 {
		errs = append(errs, errors.New("api.rateLimit must be positive"))
	}
	switch c.Storage.Driver {
	case "memory":
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			errs = append(errs, errors.New("storage.sqlite.path is required"))
		}
	case "mysql":
		if c.Storage.MySQL.Addr == "" {
			errs = append(errs, errors.New("storage.mysql.addr is required"))
		}
	case "neo4j":
		if c.Storage.Neo4j.URI == "" {
			errs = append(errs, errors.New("storage.neo4j.uri is required"))
		}
		if c.Storage.Feed != "badger" {
			errs = append(errs, errors.New("storage.feed must be badger with the neo4j driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if c.Storage.Feed != "" && c.Storage.Feed != "badger" {
		errs = append(errs, fmt.Errorf("unknown storage.feed %q", c.Storage.Feed))
	}
	if c.Kafka.Enabled && (c.Kafka.Addr == "" || c.Kafka.Topic == "") {
		errs = append(errs, errors.New("kafka.addr and kafka.topic are required when kafka is enabled"))
	}
	return errors.Join(errs...)
}
