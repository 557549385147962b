package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Upstream.Provider == "" {
		cfg.Upstream.Provider = ProviderKOPIS
	}
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = "http://www.kopis.or.kr/openApi/restful"
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = 10 * time.Second
	}
	if cfg.Upstream.RequestsPerSecond == 0 {
		cfg.Upstream.RequestsPerSecond = 5
	}
	if cfg.Search.DefaultMinCount == 0 {
		cfg.Search.DefaultMinCount = 3
	}
	if cfg.Search.ResultCap == 0 {
		cfg.Search.ResultCap = 100
	}
	if cfg.Search.DetailLimit == 0 {
		cfg.Search.DetailLimit = 30
	}
	if cfg.Search.FanOutConcurrency == 0 {
		cfg.Search.FanOutConcurrency = 4
	}
	if cfg.History.Retention == 0 {
		cfg.History.Retention = 30 * 24 * time.Hour
	}
}

// Default returns a config with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
