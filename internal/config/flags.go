package config

import "github.com/spf13/pflag"

var (
	flagConfig    = pflag.String("config", "", "Path to preferences file")
	flagGameDir   = pflag.String("gamedir", "", "Game install directory for the selected book")
	flagSavegames = pflag.String("savegames", "", "Savegame directory for the selected book")
	flagLogFile   = pflag.String("log-file", "", "Also write log output to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	pflag.Parse()
}

// ConfigPath returns the explicit preferences path if provided via --config.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the preferences.
func applyFlags(cfg *Config, book int) {
	if *flagGameDir != "" {
		switch book {
		case 2:
			cfg.Paths.GameDirB2 = *flagGameDir
		case 3:
			cfg.Paths.GameDirB3 = *flagGameDir
		default:
			cfg.Paths.GameDir = *flagGameDir
		}
	}
	if *flagSavegames != "" {
		switch book {
		case 2:
			cfg.Paths.SavegamesB2 = *flagSavegames
		case 3:
			cfg.Paths.SavegamesB3 = *flagSavegames
		default:
			cfg.Paths.Savegames = *flagSavegames
		}
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
