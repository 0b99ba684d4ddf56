package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type Config struct {
	RuntimeName string           `yaml:"runtime_name"`
	Environment string           `yaml:"environment"`
	HTTP        HTTPConfig       `yaml:"http"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
	Bus         BusConfig        `yaml:"bus"`
	Audio       AudioConfig      `yaml:"audio"`
	Recognizer  RecognizerConfig `yaml:"recognizer"`
	File        FileConfig       `yaml:"file"`
	Web         WebConfig        `yaml:"web"`
	Artifact    ArtifactConfig   `yaml:"artifact"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type AudioConfig struct {
	SampleRate     int    `yaml:"sample_rate"`
	Channels       int    `yaml:"channels"`
	ChunkSamples   int    `yaml:"chunk_samples"`
	QueueChunks    int    `yaml:"queue_chunks"`
	CaptureMode    string `yaml:"capture_mode"`
	CaptureCommand string `yaml:"capture_command"`
}

type RecognizerConfig struct {
	Mode            string `yaml:"mode"`
	ModelPath       string `yaml:"model_path"`
	Language        string `yaml:"language"`
	Command         string `yaml:"command"`
	MockText        string `yaml:"mock_text"`
	MockWordSamples int    `yaml:"mock_word_samples"`
}

type FileConfig struct {
	Normalize bool `yaml:"normalize"`
}

type WebConfig struct {
	Enabled bool `yaml:"enabled"`
}

type ArtifactConfig struct {
	Dir string `yaml:"dir"`
}

func Default() Config {
	return Config{
		RuntimeName: "hindi-vosk",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9401",
		},
		Bus: BusConfig{
			Enabled:        true,
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Audio: AudioConfig{
			SampleRate:     16000,
			Channels:       1,
			ChunkSamples:   4000,
			QueueChunks:    64,
			CaptureMode:    "exec",
			CaptureCommand: "arecord -q -f S16_LE -r 16000 -c 1 -t raw -",
		},
		Recognizer: RecognizerConfig{
			Mode:            "mock",
			ModelPath:       "",
			Language:        "hi",
			MockText:        "नमस्ते आप कैसे हैं",
			MockWordSamples: 4000,
		},
		File: FileConfig{
			Normalize: true,
		},
		Web: WebConfig{
			Enabled: true,
		},
		Artifact: ArtifactConfig{
			Dir: ".",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "HINDIVOSK_RUNTIME_NAME")
	overrideString(&cfg.Environment, "HINDIVOSK_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "HINDIVOSK_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "HINDIVOSK_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "HINDIVOSK_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "HINDIVOSK_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "HINDIVOSK_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "HINDIVOSK_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Enabled, "HINDIVOSK_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "HINDIVOSK_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "HINDIVOSK_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "HINDIVOSK_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "HINDIVOSK_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "HINDIVOSK_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "HINDIVOSK_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "HINDIVOSK_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "HINDIVOSK_BUS_CONNECT_TIMEOUT_MS")
	overrideInt(&cfg.Audio.SampleRate, "HINDIVOSK_AUDIO_SAMPLE_RATE")
	overrideInt(&cfg.Audio.Channels, "HINDIVOSK_AUDIO_CHANNELS")
	overrideInt(&cfg.Audio.ChunkSamples, "HINDIVOSK_AUDIO_CHUNK_SAMPLES")
	overrideInt(&cfg.Audio.QueueChunks, "HINDIVOSK_AUDIO_QUEUE_CHUNKS")
	overrideString(&cfg.Audio.CaptureMode, "HINDIVOSK_AUDIO_CAPTURE_MODE")
	overrideString(&cfg.Audio.CaptureCommand, "HINDIVOSK_AUDIO_CAPTURE_COMMAND")
	overrideString(&cfg.Recognizer.Mode, "HINDIVOSK_RECOGNIZER_MODE")
	overrideString(&cfg.Recognizer.ModelPath, "HINDIVOSK_RECOGNIZER_MODEL_PATH")
	overrideString(&cfg.Recognizer.Language, "HINDIVOSK_RECOGNIZER_LANGUAGE")
	overrideString(&cfg.Recognizer.Command, "HINDIVOSK_RECOGNIZER_COMMAND")
	overrideString(&cfg.Recognizer.MockText, "HINDIVOSK_RECOGNIZER_MOCK_TEXT")
	overrideInt(&cfg.Recognizer.MockWordSamples, "HINDIVOSK_RECOGNIZER_MOCK_WORD_SAMPLES")
	overrideBool(&cfg.File.Normalize, "HINDIVOSK_FILE_NORMALIZE")
	overrideBool(&cfg.Web.Enabled, "HINDIVOSK_WEB_ENABLED")
	overrideString(&cfg.Artifact.Dir, "HINDIVOSK_ARTIFACT_DIR")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else {
			if len(cfg.Bus.Servers) == 0 {
				return errors.New("bus.servers must not be empty when embedded mode is disabled")
			}
		}
	}
	if cfg.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if cfg.Audio.Channels != 1 {
		return errors.New("audio.channels must be 1 (mono)")
	}
	if cfg.Audio.ChunkSamples <= 0 {
		return errors.New("audio.chunk_samples must be positive")
	}
	if cfg.Audio.QueueChunks <= 0 {
		return errors.New("audio.queue_chunks must be positive")
	}
	switch cfg.Audio.CaptureMode {
	case "exec", "mock":
	default:
		return errors.New("audio.capture_mode must be one of exec|mock")
	}
	if cfg.Audio.CaptureMode == "exec" && cfg.Audio.CaptureCommand == "" {
		return errors.New("audio.capture_command must be set when capture_mode=exec")
	}
	switch cfg.Recognizer.Mode {
	case "mock", "exec", "vosk":
	default:
		return errors.New("recognizer.mode must be one of mock|exec|vosk")
	}
	if cfg.Recognizer.Mode == "vosk" && cfg.Recognizer.ModelPath == "" {
		return errors.New("recognizer.model_path must be set when mode=vosk")
	}
	if cfg.Recognizer.Mode == "exec" && cfg.Recognizer.Command == "" {
		return errors.New("recognizer.command must be set when mode=exec")
	}
	if cfg.Recognizer.Mode == "mock" && cfg.Recognizer.MockWordSamples <= 0 {
		return errors.New("recognizer.mock_word_samples must be positive")
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	if cfg.Artifact.Dir == "" {
		return errors.New("artifact.dir must not be empty")
	}
	return nil
}
