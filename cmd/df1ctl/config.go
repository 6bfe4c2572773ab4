package main

import (
	"github.com/ab-df1/df1"
)

// resolveConfig builds a df1.Config from --config (if given) layered with
// any of the connection-related persistent flags the user set.
func resolveConfig() (*df1.Config, error) {
	var cfg *df1.Config

	if globalFlags.configPath != "" {
		loaded, err := df1.LoadConfigFile(globalFlags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = &df1.Config{}
	}

	if globalFlags.port != "" {
		cfg.Port = globalFlags.port
	}
	if globalFlags.baud != 0 {
		cfg.Baud = globalFlags.baud
	}
	if globalFlags.myNode != 0 {
		cfg.MyNode = globalFlags.myNode
	}
	if globalFlags.targetNode != 0 {
		cfg.TargetNode = globalFlags.targetNode
	}

	switch globalFlags.parity {
	case "even":
		cfg.Parity = df1.ParityEven
	case "odd":
		cfg.Parity = df1.ParityOdd
	case "none":
		cfg.Parity = df1.ParityNone
	}

	switch globalFlags.protocol {
	case "DH485", "dh485":
		cfg.Protocol = df1.ProtocolDH485
	case "DF1", "df1":
		cfg.Protocol = df1.ProtocolDF1
	}

	switch globalFlags.checksum {
	case "BCC", "bcc":
		cfg.Checksum = df1.ChecksumBCC
	case "CRC", "crc":
		cfg.Checksum = df1.ChecksumCRC
	}

	return cfg, nil
}

// newClient resolves the connection settings and builds a ready-to-use
// df1.Client, opening its transport before returning.
func newClient() (*df1.Client, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}

	client, err := df1.NewClient(cfg, nil)
	if err != nil {
		return nil, err
	}

	if err := client.Open(); err != nil {
		return nil, err
	}

	return client, nil
}
