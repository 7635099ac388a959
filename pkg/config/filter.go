package config

type FilterConfiguration struct {
	// Ignore protects every torrent matching at least one expression from removal.
	Ignore []string `yaml:"ignore" koanf:"ignore"`
}
