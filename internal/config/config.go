package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default input and output paths, relative to the working directory.
const (
	DefaultLookupFile   = "lookup_table.csv"
	DefaultProtocolFile = "protocol-numbers.csv"
	DefaultFlowLogFile  = "flow-log.log"
	DefaultOutputFile   = "output_results.txt"
)

// InputConfig names the files a run reads and the report it writes.
type InputConfig struct {
	LookupFile   string `yaml:"lookup_file"`
	ProtocolFile string `yaml:"protocol_file"`
	FlowLogFile  string `yaml:"flow_log_file"`
	OutputFile   string `yaml:"output_file"`
}

// JSONConfig configures the JSON summary sink.
type JSONConfig struct {
	Path string `yaml:"path"`
}

// ClickHouseConfig holds the connection details for the ClickHouse sink.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Table    string `yaml:"table"`
}

// NATSConfig holds the connection details for the NATS sink.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// SinkDef defines a single report sink from the config file.
type SinkDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	Timeout    string           `yaml:"timeout"`
	JSON       JSONConfig       `yaml:"json"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	NATS       NATSConfig       `yaml:"nats"`
}

// TimeoutDuration parses the sink's timeout, defaulting to 10s when unset.
func (d SinkDef) TimeoutDuration() (time.Duration, error) {
	if d.Timeout == "" {
		return 10 * time.Second, nil
	}
	timeout, err := time.ParseDuration(d.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout for sink '%s': %w", d.Type, err)
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("timeout for sink '%s' must be a positive duration", d.Type)
	}
	return timeout, nil
}

// APIConfig holds the configuration for the HTTP API server.
type APIConfig struct {
	ListenAddr      string `yaml:"listen_addr"`
	MaxBodyBytes    int64  `yaml:"max_body_bytes"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Input InputConfig `yaml:"input"`
	Sinks []SinkDef   `yaml:"sinks"`
	API   APIConfig   `yaml:"api"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
// Fields left empty in the file take their default values.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.Input.LookupFile, DefaultLookupFile)
	setDefault(&c.Input.ProtocolFile, DefaultProtocolFile)
	setDefault(&c.Input.FlowLogFile, DefaultFlowLogFile)
	setDefault(&c.Input.OutputFile, DefaultOutputFile)

	setDefault(&c.API.ListenAddr, ":8080")
	setDefault(&c.API.ShutdownTimeout, "5s")
	if c.API.MaxBodyBytes <= 0 {
		c.API.MaxBodyBytes = 32 << 20
	}

	for i := range c.Sinks {
		s := &c.Sinks[i]
		switch s.Type {
		case "json":
			setDefault(&s.JSON.Path, "summary.json")
		case "clickhouse":
			setDefault(&s.ClickHouse.Host, "localhost")
			setDefault(&s.ClickHouse.Database, "default")
			setDefault(&s.ClickHouse.Username, "default")
			setDefault(&s.ClickHouse.Table, "flow_tag_counts")
			if s.ClickHouse.Port == 0 {
				s.ClickHouse.Port = 9000
			}
		case "nats":
			setDefault(&s.NATS.URL, "nats://127.0.0.1:4222")
			setDefault(&s.NATS.Subject, "flowtagger.reports")
		}
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
