package df1

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide configuration surface, mutable by the caller
// between transactions but never mid-transaction.
type Config struct {
	Port       string       `yaml:"port"`
	Baud       uint         `yaml:"baud"`
	Parity     Parity       `yaml:"parity"`
	Protocol   Protocol     `yaml:"protocol"`
	Checksum   ChecksumKind `yaml:"checksum"`
	MyNode     uint8        `yaml:"my_node"`
	TargetNode uint8        `yaml:"target_node"`
	AsyncMode  bool         `yaml:"async_mode"`
	Timeout    time.Duration `yaml:"timeout"`
}

// applyDefaults fills in zero-valued fields with their defaults.
func (c *Config) applyDefaults() {
	if c.Baud == 0 {
		c.Baud = 9600
	}
	if c.Timeout == 0 {
		c.Timeout = 2 * time.Second
	}
}

// configFile is the on-disk YAML shape for LoadConfigFile; it mirrors
// Config but keeps Parity/Protocol/Checksum as human-readable strings
// instead of the numeric enums used on the wire.
type configFile struct {
	Port       string `yaml:"port"`
	Baud       uint   `yaml:"baud"`
	Parity     string `yaml:"parity"`
	Protocol   string `yaml:"protocol"`
	Checksum   string `yaml:"checksum"`
	MyNode     uint8  `yaml:"my_node"`
	TargetNode uint8  `yaml:"target_node"`
	AsyncMode  bool   `yaml:"async_mode"`
	TimeoutMS  uint   `yaml:"timeout_ms"`
}

// LoadConfigFile reads a YAML configuration file describing the connection
// surface (port/baud/parity/protocol/nodes), letting df1ctl users keep a
// connection profile on disk instead of repeating flags on every
// invocation.
func LoadConfigFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cf configFile
	if err := yaml.Unmarshal(raw, &cf); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:       cf.Port,
		Baud:       cf.Baud,
		MyNode:     cf.MyNode,
		TargetNode: cf.TargetNode,
		AsyncMode:  cf.AsyncMode,
	}

	switch cf.Parity {
	case "even":
		cfg.Parity = ParityEven
	case "odd":
		cfg.Parity = ParityOdd
	default:
		cfg.Parity = ParityNone
	}

	switch cf.Protocol {
	case "DH485", "dh485":
		cfg.Protocol = ProtocolDH485
	default:
		cfg.Protocol = ProtocolDF1
	}

	switch cf.Checksum {
	case "BCC", "bcc":
		cfg.Checksum = ChecksumBCC
	default:
		cfg.Checksum = ChecksumCRC
	}

	if cf.TimeoutMS > 0 {
		cfg.Timeout = time.Duration(cf.TimeoutMS) * time.Millisecond
	}

	cfg.applyDefaults()

	return cfg, nil
}
