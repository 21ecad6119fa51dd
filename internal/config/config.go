package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "GRANTCHECKER_CONFIG"
	firecrawlKeyEnv = "FIRECRAWL_API_KEY"
	reductoKeyEnv   = "REDUCTO_API_KEY"
	openAIKeyEnv    = "OPENAI_API_KEY"
	geminiKeyEnv    = "GEMINI_API_KEY"
	llmProviderEnv  = "LLM_PROVIDER"
	logLevelEnv     = "LOG_LEVEL"
	portEnv         = "PORT"
)

// LLM providers understood by the application.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server      ServerConfig    `yaml:"server"`
	Logging     LoggingConfig   `yaml:"logging"`
	Firecrawl   FirecrawlConfig `yaml:"firecrawl"`
	Reducto     ReductoConfig   `yaml:"reducto"`
	LLM         LLMConfig       `yaml:"llm"`
	Gemini      GeminiConfig    `yaml:"gemini"`
	Pipeline    PipelineConfig  `yaml:"pipeline"`
	Analysis    AnalysisConfig  `yaml:"analysis"`
	Readiness   ReadinessConfig `yaml:"readiness"`
	CatalogPath string          `yaml:"catalogPath"`
}

// ServerConfig describes the HTTP boundary.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	MaxFiles     int    `yaml:"maxFiles"`
	MaxFileBytes int64  `yaml:"maxFileBytes"`
	UploadDir    string `yaml:"uploadDir"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// FirecrawlConfig describes the web-content extraction service.
type FirecrawlConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ReductoConfig describes the document-parsing service.
type ReductoConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LLMConfig defines how to contact the chat-completion API.
type LLMConfig struct {
	Provider        string        `yaml:"provider"`
	Endpoint        string        `yaml:"endpoint"`
	APIKey          string        `yaml:"apiKey"`
	AnalysisModel   string        `yaml:"analysisModel"`
	AssessmentModel string        `yaml:"assessmentModel"`
	Timeout         time.Duration `yaml:"timeout"`
}

// GeminiConfig is used when llm.provider is "gemini".
type GeminiConfig struct {
	APIKey          string `yaml:"apiKey"`
	AnalysisModel   string `yaml:"analysisModel"`
	AssessmentModel string `yaml:"assessmentModel"`
}

// PipelineConfig bounds each stage; an expired deadline takes the stage's fallback path.
type PipelineConfig struct {
	ExtractorTimeout time.Duration `yaml:"extractorTimeout"`
	AnalyzerTimeout  time.Duration `yaml:"analyzerTimeout"`
	AssessorTimeout  time.Duration `yaml:"assessorTimeout"`
}

// AnalysisConfig tunes proposal analysis.
type AnalysisConfig struct {
	TextBudget      int   `yaml:"textBudget"`
	BytesPerPage    int64 `yaml:"bytesPerPage"`
	RawContentChars int   `yaml:"rawContentChars"`
}

// ReadinessConfig holds the ready-to-submit thresholds.
type ReadinessConfig struct {
	// MaxWarningsForReady is the largest warning count still labelled "Yes".
	MaxWarningsForReady int `yaml:"maxWarningsForReady"`
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides. path wins over GRANTCHECKER_CONFIG.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg := defaultConfig()
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = fileCfg
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	return cfg
}

// ActiveLLMKey returns the credential of the configured chat provider.
func (c Config) ActiveLLMKey() string {
	if c.LLM.Provider == ProviderGemini {
		return c.Gemini.APIKey
	}
	return c.LLM.APIKey
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(firecrawlKeyEnv); v != "" {
		c.Firecrawl.APIKey = v
	}

	if v := os.Getenv(reductoKeyEnv); v != "" {
		c.Reducto.APIKey = v
	}

	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}

	if v := os.Getenv(geminiKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}

	if v := os.Getenv(llmProviderEnv); v != "" {
		c.LLM.Provider = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(portEnv); v != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
}

func (c *Config) normalize() {
	def := defaultConfig()

	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider != ProviderGemini {
		c.LLM.Provider = ProviderOpenAI
	}

	if c.Server.MaxFiles <= 0 {
		c.Server.MaxFiles = def.Server.MaxFiles
	}
	if c.Server.MaxFileBytes <= 0 {
		c.Server.MaxFileBytes = def.Server.MaxFileBytes
	}
	if c.Analysis.TextBudget <= 0 {
		c.Analysis.TextBudget = def.Analysis.TextBudget
	}
	if c.Analysis.BytesPerPage <= 0 {
		c.Analysis.BytesPerPage = def.Analysis.BytesPerPage
	}
	if c.Analysis.RawContentChars <= 0 {
		c.Analysis.RawContentChars = def.Analysis.RawContentChars
	}
	if c.Readiness.MaxWarningsForReady < 0 {
		log.Printf("config: negative readiness.maxWarningsForReady, reverting to %d", def.Readiness.MaxWarningsForReady)
		c.Readiness.MaxWarningsForReady = def.Readiness.MaxWarningsForReady
	}
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":3001",
			MaxFiles:     20,
			MaxFileBytes: 50 << 20,
		},
		Logging: LoggingConfig{Level: "info"},
		Firecrawl: FirecrawlConfig{
			Endpoint: "https://api.firecrawl.dev",
			Timeout:  60 * time.Second,
		},
		Reducto: ReductoConfig{
			Endpoint: "https://platform.reducto.ai",
			Timeout:  2 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:        ProviderOpenAI,
			Endpoint:        "https://api.openai.com/v1/chat/completions",
			AnalysisModel:   "gpt-4o",
			AssessmentModel: "gpt-4o-mini",
			Timeout:         2 * time.Minute,
		},
		Gemini: GeminiConfig{
			AnalysisModel:   "gemini-2.5-pro",
			AssessmentModel: "gemini-2.5-flash",
		},
		Pipeline: PipelineConfig{
			ExtractorTimeout: 90 * time.Second,
			AnalyzerTimeout:  10 * time.Minute,
			AssessorTimeout:  2 * time.Minute,
		},
		Analysis: AnalysisConfig{
			TextBudget:      50000,
			BytesPerPage:    50 * 1024,
			RawContentChars: 5000,
		},
		Readiness: ReadinessConfig{MaxWarningsForReady: 0},
	}
}
