package main

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// loadConfig layers QUILL_* environment variables and an optional
// quill.yaml (current directory, then $HOME/.config/quill) underneath
// the flags cobra already parsed onto cmd.
func loadConfig() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName("quill")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home + "/.config/quill")
	}

	v.SetEnvPrefix("QUILL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("db", "")
	v.SetDefault("order", 64)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, err
		}
	}
	return v, nil
}
