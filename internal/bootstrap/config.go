package bootstrap

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort    string `mapstructure:"SERVER_PORT"`
	RedisUrl      string `mapstructure:"REDIS_URL"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	MongoUri      string `mapstructure:"MONGO_URI"`
	IsLocalCors   bool   `mapstructure:"LOCAL_CORS"`

	KatagoCommand string `mapstructure:"KATAGO_COMMAND"`
	KatagoArgs    string `mapstructure:"KATAGO_ARGS"`
	// KatagoWhiteArgs starts a second engine for white when set.
	KatagoWhiteArgs string `mapstructure:"KATAGO_WHITE_ARGS"`

	AnalyzeIntervalCentisec int     `mapstructure:"ANALYZE_INTERVAL_CENTISEC"`
	MaxVisits               int     `mapstructure:"MAX_VISITS"`
	Komi                    float64 `mapstructure:"KOMI"`
	Rules                   string  `mapstructure:"RULES"`

	DeletedSequenceCapacity int     `mapstructure:"DELETED_SEQUENCE_CAPACITY"`
	WeakenPercent           float64 `mapstructure:"WEAKEN_PERCENT"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("KATAGO_COMMAND", "katago")
	v.SetDefault("KATAGO_ARGS", "analysis -config analysis.cfg -model model.bin.gz")
	v.SetDefault("KATAGO_WHITE_ARGS", "")
	v.SetDefault("ANALYZE_INTERVAL_CENTISEC", 10)
	v.SetDefault("MAX_VISITS", 0)
	v.SetDefault("KOMI", 7.5)
	v.SetDefault("RULES", "japanese")
	v.SetDefault("DELETED_SEQUENCE_CAPACITY", 100)
	v.SetDefault("WEAKEN_PERCENT", 30)
}

// Setup reads cfgPath when given; environment variables override the file.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// EngineArgs splits KATAGO_ARGS on whitespace.
func (c *Config) EngineArgs() []string {
	return strings.Fields(c.KatagoArgs)
}

func (c *Config) WhiteEngineArgs() []string {
	return strings.Fields(c.KatagoWhiteArgs)
}

// ReportEverySeconds is the analysis report interval in seconds.
func (c *Config) ReportEverySeconds() float64 {
	return float64(c.AnalyzeIntervalCentisec) / 100
}
