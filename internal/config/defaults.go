package config

// Default returns the built-in configuration used when no file exists.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: "~/.local/share/linkarr",
			LogDir:  "~/.local/share/linkarr/logs",
			APIBind: "127.0.0.1:8475",
		},
		TMDB: TMDB{
			BaseURL: "https://api.themoviedb.org/3",
		},
		Logging: Logging{
			Format: "text",
			Level:  "info",
		},
	}
}
