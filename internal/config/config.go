package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string         `yaml:"env" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	WebRTC   WebRTCConfig   `yaml:"webrtc"`
	Room     RoomConfig     `yaml:"room"`
	Executor ExecutorConfig `yaml:"executor"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address" env-default:""`
	AllowedOrigins []string `yaml:"allowed_origins" env-default:""`
}

type WebRTCConfig struct {
	STUNServers []string `yaml:"stun_servers" env-default:""`
}

type RoomConfig struct {
	HistoryLimit  int           `yaml:"history_limit" env-default:"50"`
	EvictionGrace time.Duration `yaml:"eviction_grace" env-default:"10m"`
	SweepInterval time.Duration `yaml:"sweep_interval" env-default:"1m"`
}

type ExecutorConfig struct {
	URL     string        `yaml:"url" env:"JUDGE0_URL"`
	APIKey  string        `yaml:"api_key" env:"JUDGE0_KEY"`
	Timeout time.Duration `yaml:"timeout" env-default:"15s"`
}

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	cfg.setDefaults()

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if len(c.WebRTC.STUNServers) == 0 {
		c.WebRTC.STUNServers = []string{"stun:stun.l.google.com:19302"}
	}
	if c.Room.HistoryLimit <= 0 {
		c.Room.HistoryLimit = 50
	}
	if c.Room.EvictionGrace <= 0 {
		c.Room.EvictionGrace = 10 * time.Minute
	}
	if c.Room.SweepInterval <= 0 {
		c.Room.SweepInterval = time.Minute
	}
	if c.Executor.Timeout <= 0 {
		c.Executor.Timeout = 15 * time.Second
	}
}
