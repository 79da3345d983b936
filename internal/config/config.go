// Package config reads the process environment into a typed struct.
package config

import (
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
)

type Config struct {
	ChatEndpoint string `env:"WANDER_CHAT_ENDPOINT,default=https://api.openai.com/v1/chat/completions"`
	ChatModel    string `env:"WANDER_CHAT_MODEL,default=gpt-4o-mini"`
	// TranscribeEndpoint is a voice-chat style relay: it takes a multipart
	// form with an "audio" file field and answers {text} or {error} JSON.
	// Posting straight to OpenAI will not work, its form field is "file".
	TranscribeEndpoint string `env:"WANDER_TRANSCRIBE_ENDPOINT,default=http://127.0.0.1:8090/voice-chat"`
	TranscribeModel    string `env:"WANDER_TRANSCRIBE_MODEL,default=whisper-1"`
	GeocodeEndpoint    string `env:"WANDER_GEOCODE_ENDPOINT,default=https://api.mapbox.com/geocoding/v5/mapbox.places"`
	GeocodeToken       string `env:"WANDER_GEOCODE_TOKEN"`

	APIKey string `env:"OPENAI_API_KEY"`

	AgentName string `env:"WANDER_AGENT_NAME,default=Agent"`
	Persona   string `env:"WANDER_PERSONA,default=default"`

	StorePath string `env:"WANDER_STORE_PATH,default=.wander"`
	MapListen string `env:"WANDER_MAP_LISTEN,default=127.0.0.1:8092"`

	MaxRecording time.Duration `env:"WANDER_MAX_RECORDING,default=30s"`
}

// Load parses the environment. Defaults make an empty environment
// usable; only credentials have no fallback.
func Load() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
