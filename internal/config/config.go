package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"
)

// Config is the top-level configuration structure.
type Config struct {
	Server     ServerConfig     `json:"server"`
	Pipeline   PipelineConfig   `json:"pipeline"`
	Selection  SelectionConfig  `json:"selection"`
	Source     SourceConfig     `json:"source"`
	Agents     []AgentConfig    `json:"agents,omitempty"`
	Providers  []ProviderConfig `json:"providers,omitempty"`
	Generation GenerationConfig `json:"generation"`
	Sinks      SinksConfig      `json:"sinks"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

// PipelineConfig tunes the capture-to-analysis flow.
type PipelineConfig struct {
	PollInterval     Duration `json:"poll_interval"`
	BatchSize        int      `json:"batch_size"`
	MaxQueueSize     int      `json:"max_queue_size"`
	ConcurrentAgents int      `json:"concurrent_agents"`
	MinContentLength int      `json:"min_content_length"`
	MaxContentChars  int      `json:"max_content_chars"`
}

// SelectionConfig tunes candidate generation and novelty scoring.
type SelectionConfig struct {
	NoveltyWeight  float64 `json:"novelty_weight"`
	HistorySize    int     `json:"history_size"`
	CandidateCount int     `json:"candidate_count"`
}

type SourceConfig struct {
	SpoolDir string `json:"spool_dir,omitempty"`
}

type AgentConfig struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Prompt         string `json:"prompt"`
	MaxOutputChars int    `json:"max_output_chars,omitempty"`
	Provider       string `json:"provider,omitempty"`
}

type ProviderConfig struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	Endpoint     string   `json:"endpoint"`
	APIKey       string   `json:"api_key"`
	Model        string   `json:"model"`
	MaxTokens    int      `json:"max_tokens,omitempty"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
	Timeout      Duration `json:"timeout,omitempty"`
}

// GenerationConfig routes agents to providers.
type GenerationConfig struct {
	DefaultProvider string              `json:"default_provider,omitempty"`
	Fallbacks       map[string][]string `json:"fallbacks,omitempty"`
}

type SinksConfig struct {
	DatasetPath     string   `json:"dataset_path,omitempty"`
	RecentSize      int      `json:"recent_size"`
	PostgresDSN     string   `json:"postgres_dsn,omitempty"`
	RedisURL        string   `json:"redis_url,omitempty"`
	RedisStream     string   `json:"redis_stream,omitempty"`
	KafkaBrokers    []string `json:"kafka_brokers,omitempty"`
	KafkaTopic      string   `json:"kafka_topic,omitempty"`
	SlackBotToken   string   `json:"slack_bot_token,omitempty"`
	SlackChannel    string   `json:"slack_channel,omitempty"`
	DiscordBotToken string   `json:"discord_bot_token,omitempty"`
	DiscordChannel  string   `json:"discord_channel,omitempty"`
}

// Duration accepts Go duration strings ("1s", "250ms") or raw
// nanoseconds in config files.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("parse duration %s: %w", b, err)
	}
	*d = Duration(n)
	return nil
}

// defaultAgentOutputChars bounds agent output when a configured agent
// omits max_output_chars.
const defaultAgentOutputChars = 512

// Default returns the built-in configuration. Loading a file overlays
// onto this, so omitted fields keep these values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8080,
			LogLevel: "info",
		},
		Pipeline: PipelineConfig{
			PollInterval:     Duration(time.Second),
			BatchSize:        4,
			MaxQueueSize:     64,
			ConcurrentAgents: 2,
			MinContentLength: 8,
			MaxContentChars:  2000,
		},
		Selection: SelectionConfig{
			NoveltyWeight:  0.3,
			HistorySize:    1000,
			CandidateCount: 3,
		},
		Sinks: SinksConfig{
			DatasetPath: "dataset.jsonl",
			RecentSize:  50,
		},
	}
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file over the defaults, substituting
// environment variable references first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Substitute ${VAR} and ${VAR:default} with environment values.
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	cfg := Default()
	if err := json.Unmarshal([]byte(resolved), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	for i := range cfg.Agents {
		if cfg.Agents[i].MaxOutputChars == 0 {
			cfg.Agents[i].MaxOutputChars = defaultAgentOutputChars
		}
	}
	return cfg, nil
}

// Validate checks every tunable's range. The daemon refuses to start on
// the first violation; everything past this point trusts the values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range [1, 65535]", c.Server.Port)
	}

	p := c.Pipeline
	if p.PollInterval <= 0 {
		return fmt.Errorf("pipeline.poll_interval must be positive, got %s", p.PollInterval.Std())
	}
	if p.BatchSize < 1 {
		return fmt.Errorf("pipeline.batch_size must be at least 1, got %d", p.BatchSize)
	}
	if p.MaxQueueSize < 1 {
		return fmt.Errorf("pipeline.max_queue_size must be at least 1, got %d", p.MaxQueueSize)
	}
	if p.ConcurrentAgents < 1 {
		return fmt.Errorf("pipeline.concurrent_agents must be at least 1, got %d", p.ConcurrentAgents)
	}
	if p.MinContentLength < 0 {
		return fmt.Errorf("pipeline.min_content_length must not be negative, got %d", p.MinContentLength)
	}
	if p.MaxContentChars < 1 {
		return fmt.Errorf("pipeline.max_content_chars must be at least 1, got %d", p.MaxContentChars)
	}

	s := c.Selection
	if s.NoveltyWeight < 0 || s.NoveltyWeight > 1 {
		return fmt.Errorf("selection.novelty_weight %v out of range [0, 1]", s.NoveltyWeight)
	}
	if s.HistorySize < 1 {
		return fmt.Errorf("selection.history_size must be at least 1, got %d", s.HistorySize)
	}
	if s.CandidateCount < 1 {
		return fmt.Errorf("selection.candidate_count must be at least 1, got %d", s.CandidateCount)
	}

	if c.Sinks.RecentSize < 1 {
		return fmt.Errorf("sinks.recent_size must be at least 1, got %d", c.Sinks.RecentSize)
	}

	agentIDs := make(map[string]bool)
	for i, a := range c.Agents {
		if a.ID == "" {
			return fmt.Errorf("agents[%d]: id is required", i)
		}
		if agentIDs[a.ID] {
			return fmt.Errorf("agents[%d]: duplicate id %q", i, a.ID)
		}
		agentIDs[a.ID] = true
		if a.MaxOutputChars < 1 {
			return fmt.Errorf("agent %s: max_output_chars must be at least 1, got %d", a.ID, a.MaxOutputChars)
		}
	}

	providerIDs := make(map[string]bool)
	for i, p := range c.Providers {
		if p.ID == "" {
			return fmt.Errorf("providers[%d]: id is required", i)
		}
		if providerIDs[p.ID] {
			return fmt.Errorf("providers[%d]: duplicate id %q", i, p.ID)
		}
		providerIDs[p.ID] = true
	}

	return nil
}
