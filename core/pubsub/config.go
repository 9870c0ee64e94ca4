package pubsub

// Config holds configuration for the redis connection used to broadcast projections.
type Config struct {
	// Enabled turns projection publication on.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Addr is the redis host:port.
	Addr string `mapstructure:"addr" default:"localhost:6379"`
	// Password is the redis password.
	Password string `mapstructure:"password" default:""`
	// DB is the redis database index.
	DB int `mapstructure:"db" default:"0"`
	// ChannelPrefix is prepended to every topic.
	ChannelPrefix string `mapstructure:"channel_prefix" default:"feedsync:projection:"`
}
