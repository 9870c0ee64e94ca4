package config

import (
	"path/filepath"
	"reflect"
	"strings"

	"feedsync/core/database"
	"feedsync/core/logger"
	"feedsync/core/pubsub"
	"feedsync/core/server"
	"feedsync/core/storage"
	"feedsync/feature/remote"
	"feedsync/feature/timeline"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the local store database.
	Database database.Config `mapstructure:"database"`
	// Storage holds configuration for the skipped page archive.
	Storage storage.Config `mapstructure:"storage"`
	// Redis holds configuration for projection publication.
	Redis pubsub.Config `mapstructure:"redis"`
	// Remote holds configuration for the remote social API.
	Remote remote.Config `mapstructure:"remote"`
	// Timeline holds configuration for the pagination engine.
	Timeline timeline.Config `mapstructure:"timeline"`
}

// LoadConfig loads configuration from environment variables and an optional .env file in path.
func LoadConfig(path string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Overload(filepath.Join(path, ".env"))

	v := viper.New()
	bindValues(v, Config{}, "")

	// TIMELINE_PAGE_SIZE -> timeline.page_size
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Every key gets a default, even empty, so AutomaticEnv can see it.
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
