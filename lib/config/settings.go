package config

import (
	"fmt"

	"github.com/jessevdk/go-flags"
)

type Settings struct {
	Config         Config
	VerboseLogging bool
	// LoadID identifies a load for checkpointing, reusing it resumes an interrupted load.
	LoadID string
}

type commandLine struct {
	ConfigFilePath string `short:"c" long:"config" description:"path to the config file"`
	Verbose        bool   `short:"v" long:"verbose" description:"debug logging" optional:"true"`
	LoadID         string `long:"load-id" description:"resume the load with this id"`
	Bootstrap      bool   `long:"bootstrap" description:"create missing tables before loading"`
}

// LoadSettings parses the command line. The config file is only read and validated when [readConfig] is set,
// with --bootstrap overriding the file's bootstrapTables.
func LoadSettings(args []string, readConfig bool) (*Settings, error) {
	var cmd commandLine
	if _, err := flags.ParseArgs(&cmd, args); err != nil {
		return nil, fmt.Errorf("failed to parse args: %w", err)
	}

	settings := &Settings{VerboseLogging: cmd.Verbose, LoadID: cmd.LoadID}
	if !readConfig {
		return settings, nil
	}

	cfg, err := readFileToConfig(cmd.ConfigFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.BootstrapTables = cfg.BootstrapTables || cmd.Bootstrap
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	settings.Config = *cfg
	return settings, nil
}
