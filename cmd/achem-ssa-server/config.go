package main

import (
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/daniacca/achem-ssa/internal/ssa"
)

// ServerConfig holds the server configuration
type ServerConfig struct {
	Addr          string
	NetworkFile   string
	SnapshotPath  string
	SnapshotEvery int64
	SnapshotCron  string
	LogLevel      string
}

// configResolver defines how to resolve a single configuration value
type configResolver struct {
	flagName    string
	envVarName  string
	defaultVal  string
	description string
	setter      func(*ServerConfig, string)
}

// loadServerConfig loads server configuration from CLI flags and environment variables.
// Uses a resolver pattern to make it easy to add new configuration options.
func loadServerConfig() ServerConfig {
	cfg := ServerConfig{}

	// Define all configuration resolvers
	// To add a new option, just add a new resolver here
	resolvers := []configResolver{
		{
			flagName:    "addr",
			envVarName:  "ACHEM_SSA_ADDR",
			defaultVal:  ":8080",
			description: "HTTP listen address (e.g. :8080, 0.0.0.0:8080)",
			setter:      func(c *ServerConfig, v string) { c.Addr = v },
		},
		{
			flagName:    "network-file",
			envVarName:  "ACHEM_SSA_NETWORK_FILE",
			defaultVal:  "",
			description: "optional path to a network JSON/YAML file to load at startup",
			setter:      func(c *ServerConfig, v string) { c.NetworkFile = v },
		},
		{
			flagName:    "snapshot-path",
			envVarName:  "ACHEM_SSA_SNAPSHOT_PATH",
			defaultVal:  "./data/snapshots.db",
			description: "bbolt database file where run snapshots are durably stored",
			setter:      func(c *ServerConfig, v string) { c.SnapshotPath = v },
		},
		{
			flagName:    "snapshot-every",
			envVarName:  "ACHEM_SSA_SNAPSHOT_EVERY",
			defaultVal:  "1000",
			description: "how often to snapshot a run (in firings); 0 disables firing-count-based snapshots",
			setter: func(c *ServerConfig, v string) {
				n, err := strconv.ParseInt(v, 10, 64)
				if err != nil {
					log.Printf("invalid value for snapshot-every: %s, using default 1000", v)
					n = 1000
				}
				c.SnapshotEvery = n
			},
		},
		{
			flagName:    "snapshot-cron",
			envVarName:  "ACHEM_SSA_SNAPSHOT_CRON",
			defaultVal:  "",
			description: "cron expression (gorhill/cronexpr syntax) for periodic snapshots of all active runs; empty disables",
			setter:      func(c *ServerConfig, v string) { c.SnapshotCron = v },
		},
		{
			flagName:    "log-level",
			envVarName:  "ACHEM_SSA_LOG_LEVEL",
			defaultVal:  "info",
			description: "Log level: debug, info, warn, error",
			setter:      func(c *ServerConfig, v string) { c.LogLevel = v },
		},
	}

	// Register string flags first
	flagVars := make(map[string]*string)
	for _, resolver := range resolvers {
		flagVars[resolver.flagName] = flag.String(resolver.flagName, "", resolver.description)
	}

	// Parse flags once
	flag.Parse()

	// Resolve values for each resolver
	for _, resolver := range resolvers {
		var value string
		if *flagVars[resolver.flagName] != "" {
			value = *flagVars[resolver.flagName]
		} else if envValue := os.Getenv(resolver.envVarName); envValue != "" {
			value = envValue
		} else {
			value = resolver.defaultVal
		}
		resolver.setter(&cfg, value)
	}

	return cfg
}

// loadInitialNetworkFromFile loads a NetworkConfig from a JSON/YAML file and
// builds it into a ready-to-schedule Network.
func loadInitialNetworkFromFile(path string) (ssa.NetworkConfig, *ssa.Network, error) {
	cfg, err := ssa.LoadNetworkConfig(path)
	if err != nil {
		return ssa.NetworkConfig{}, nil, err
	}

	net, err := ssa.BuildNetworkFromConfig(cfg, true)
	if err != nil {
		return ssa.NetworkConfig{}, nil, err
	}

	return cfg, net, nil
}
