package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/gosuri/uitable"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/autopeer-io/camlink/pkg/log"
)

// EnvPrefix prefixes every environment override, e.g. CAMLINK_LOG_LEVEL.
const EnvPrefix = "CAMLINK"

// loadConfig merges, lowest first: defaults, config file, environment, explicit flags.
func (a *App) loadConfig(fs *pflag.FlagSet) error {
	v := a.viper

	if a.configFile != "" {
		v.SetConfigFile(a.configFile)
	} else {
		v.SetConfigName(a.name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("$HOME", ".camlink"))
		v.AddConfigPath("/etc/camlink")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	if err := v.Unmarshal(a.options); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// watch applies log level changes from the config file at runtime.
func (a *App) watch() {
	a.viper.OnConfigChange(func(e fsnotify.Event) {
		level := a.viper.GetString("log.level")
		log.Info("Config file changed", "name", e.Name, "op", e.Op.String(), "log.level", level)
		if level == "" {
			return
		}
		if err := log.SetLevel(level); err != nil {
			log.Error(err, "Ignoring log level from config file")
		}
	})
	a.viper.WatchConfig()
}

var secretWords = []string{"secret", "token", "password"}

// printFlags logs every effective flag value at debug level. Credentials are masked.
func printFlags(fs *pflag.FlagSet) {
	table := uitable.New()
	table.MaxColWidth = 80
	table.AddRow("FLAG", "VALUE")
	fs.VisitAll(func(f *pflag.Flag) {
		value := f.Value.String()
		for _, w := range secretWords {
			if strings.Contains(f.Name, w) && value != "" {
				value = "******"
				break
			}
		}
		table.AddRow("--"+f.Name, value)
	})
	log.Debug("Effective configuration\n" + table.String())
}
