package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/knn/data/vectors.db"
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "projection"
	}
	if cfg.Index.Distance == "" {
		cfg.Index.Distance = "euclidean"
	}
	if cfg.Index.Dimensions == 0 {
		cfg.Index.Dimensions = 3
	}
	if cfg.Index.Projections == 0 {
		cfg.Index.Projections = 8
	}
	if cfg.Index.SearchSize == 0 {
		cfg.Index.SearchSize = 10
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 1000
	}
	if cfg.Ingest.Extensions == nil {
		cfg.Ingest.Extensions = []string{".jsonl", ".csv"}
	}
}
