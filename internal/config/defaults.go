package config

const dataDir = "/usr/local/var/suisen/data"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.TimeoutSeconds == 0 {
		cfg.Server.TimeoutSeconds = 60
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = dataDir + "/db/catalog.db"
	}
	if cfg.Storage.CatalogPath == "" {
		cfg.Storage.CatalogPath = dataDir + "/preprocessed_assessments.json"
	}
	if cfg.Storage.Source == "" {
		cfg.Storage.Source = SourceFile
	}
	if cfg.Recommend.DefaultTopK == 0 {
		cfg.Recommend.DefaultTopK = 10
	}
	if cfg.Recommend.MaxTopK == 0 {
		cfg.Recommend.MaxTopK = 10
	}
	if cfg.Recommend.NameWeight == 0 {
		cfg.Recommend.NameWeight = 2
	}
	// stop_words and expand_test_types default to true when unset (nil).
	if cfg.Recommend.StopWords == nil {
		t := true
		cfg.Recommend.StopWords = &t
	}
	if cfg.Recommend.ExpandTestTypes == nil {
		t := true
		cfg.Recommend.ExpandTestTypes = &t
	}
	if cfg.Recommend.CategoryCap == nil {
		c := 0.6
		cfg.Recommend.CategoryCap = &c
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 400
	}
}
