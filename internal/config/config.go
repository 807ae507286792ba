package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port     string `toml:"port"`
	Compress bool   `toml:"compress"`
	// Cap on records returned by /get-all-records when no limit is given.
	ListLimit int `toml:"list_limit"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type VectorStoreConfig struct {
	Provider  string `toml:"provider"`
	IndexName string `toml:"index_name"`
	Namespace string `toml:"namespace"`
	Dimension int    `toml:"dimension"`
	Metric    string `toml:"metric"`
	Cloud     string `toml:"cloud"`
	Region    string `toml:"region"`
	APIKey    string `toml:"api_key"`
	Host      string `toml:"host"`

	// local
	Path string `toml:"path"`
	// pgvector
	DSN string `toml:"dsn"`
	// neo4j
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type HuggingFaceConfig struct {
	Token               string `toml:"token"`
	BaseURL             string `toml:"base_url"`
	EmbeddingModel      string `toml:"embedding_model"`
	SummarizationModel  string `toml:"summarization_model"`
	SpeechModel         string `toml:"speech_model"`
	ImageModel          string `toml:"image_model"`
	ClassificationModel string `toml:"classification_model"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
}

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
	SpeechModel    string `toml:"speech_model"`
	SpeechVoice    string `toml:"speech_voice"`
	ImageModel     string `toml:"image_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

// InferenceConfig picks a provider ("huggingface" or "llm") per capability.
type InferenceConfig struct {
	Embedder          string  `toml:"embedder"`
	Summarizer        string  `toml:"summarizer"`
	Speech            string  `toml:"speech"`
	Image             string  `toml:"image"`
	Classifier        string  `toml:"classifier"`
	SummaryMaxLength  int     `toml:"summary_max_length"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

type Prompts struct {
	Summarize string `toml:"summarize"`
	Classify  string `toml:"classify"`
}

type ArtifactConfig struct {
	Provider  string `toml:"provider"`
	Dir       string `toml:"dir"`
	Bucket    string `toml:"bucket"`
	Prefix    string `toml:"prefix"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

type Config struct {
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
	VectorStore VectorStoreConfig `toml:"vectorstore"`
	HuggingFace HuggingFaceConfig `toml:"huggingface"`
	LLM         LLMConfig         `toml:"llm"`
	Inference   InferenceConfig   `toml:"inference"`
	Prompts     Prompts           `toml:"prompts"`
	Artifacts   ArtifactConfig    `toml:"artifacts"`
}

const (
	DefaultSummarizePrompt = `Summarize the following text in at most %d words.
Return a JSON object of the form {"summary_text": "..."} and nothing else.

Text:
%s`

	DefaultClassifyPrompt = `Classify the industry of the following text.
Return a JSON object of the form {"labels": [{"label": "...", "score": 0.0}]} ordered by score, and nothing else.

Text:
%s`
)

// Default returns the configuration the service runs with when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      "3000",
			ListLimit: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		VectorStore: VectorStoreConfig{
			Provider:  "pinecone",
			IndexName: "vectordb-crud",
			Namespace: "vDB",
			Dimension: 384,
			Metric:    "cosine",
			Cloud:     "aws",
			Region:    "us-east-1",
			Path:      "vectordb.db",
		},
		HuggingFace: HuggingFaceConfig{
			BaseURL:             "https://api-inference.huggingface.co/models",
			EmbeddingModel:      "sentence-transformers/all-MiniLM-L6-v2",
			SummarizationModel:  "facebook/bart-large-cnn",
			SpeechModel:         "espnet/kan-bayashi_ljspeech_vits",
			ImageModel:          "stabilityai/stable-diffusion-3-medium-diffusers",
			ClassificationModel: "sampathkethineedi/industry-classification-api",
			TimeoutSeconds:      120,
		},
		Inference: InferenceConfig{
			Embedder:         "huggingface",
			Summarizer:       "huggingface",
			Speech:           "huggingface",
			Image:            "huggingface",
			Classifier:       "huggingface",
			SummaryMaxLength: 40,
		},
		Prompts: Prompts{
			Summarize: DefaultSummarizePrompt,
			Classify:  DefaultClassifyPrompt,
		},
		Artifacts: ArtifactConfig{
			Provider: "local",
			Dir:      "generated",
		},
	}
}

// Load reads a TOML file on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// LoadWithEnv loads the file at path if it exists, then applies environment overrides.
// A missing file is not an error; a malformed one is.
func LoadWithEnv(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		loaded, err := Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv outside of tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("PORT", &c.Server.Port)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	str("VECTORSTORE_PROVIDER", &c.VectorStore.Provider)
	str("PINECONE_API", &c.VectorStore.APIKey)
	str("PINECONE_HOST", &c.VectorStore.Host)
	str("VECTORSTORE_PATH", &c.VectorStore.Path)
	str("VECTORSTORE_DSN", &c.VectorStore.DSN)
	str("NEO4J_URI", &c.VectorStore.URI)
	str("NEO4J_USER", &c.VectorStore.User)
	str("NEO4J_PASSWORD", &c.VectorStore.Password)

	str("HF_TOKEN", &c.HuggingFace.Token)
	str("HF_BASE_URL", &c.HuggingFace.BaseURL)

	str("LLM_PROVIDER", &c.LLM.Provider)
	str("LLM_MODEL", &c.LLM.Model)
	str("LLM_EMBEDDING_MODEL", &c.LLM.EmbeddingModel)
	str("LLM_API_KEY", &c.LLM.APIKey)
	str("LLM_BASE_URL", &c.LLM.BaseURL)

	str("ARTIFACT_PROVIDER", &c.Artifacts.Provider)
	str("ARTIFACT_DIR", &c.Artifacts.Dir)
	str("ARTIFACT_BUCKET", &c.Artifacts.Bucket)
	str("ARTIFACT_ENDPOINT", &c.Artifacts.Endpoint)
	str("ARTIFACT_ACCESS_KEY", &c.Artifacts.AccessKey)
	str("ARTIFACT_SECRET_KEY", &c.Artifacts.SecretKey)

	if v, ok := lookup("INFERENCE_RPS"); ok {
		if rps, err := strconv.ParseFloat(v, 64); err == nil {
			c.Inference.RequestsPerSecond = rps
		}
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.VectorStore.Dimension <= 0 {
		errs = append(errs, fmt.Errorf("vectorstore.dimension must be positive, got %d", c.VectorStore.Dimension))
	}
	if c.VectorStore.IndexName == "" {
		errs = append(errs, errors.New("vectorstore.index_name is required"))
	}
	if c.Server.ListLimit <= 0 {
		errs = append(errs, fmt.Errorf("server.list_limit must be positive, got %d", c.Server.ListLimit))
	}

	if err := checkPrompt("summarize", c.Prompts.Summarize, summarizeVerbs); err != nil {
		errs = append(errs, err)
	}
	if err := checkPrompt("classify", c.Prompts.Classify, classifyVerbs); err != nil {
		errs = append(errs, err)
	}

	for name, v := range map[string]string{
		"embedder":   c.Inference.Embedder,
		"summarizer": c.Inference.Summarizer,
		"speech":     c.Inference.Speech,
		"image":      c.Inference.Image,
		"classifier": c.Inference.Classifier,
	} {
		switch strings.ToLower(v) {
		case "huggingface", "llm":
		default:
			errs = append(errs, fmt.Errorf("inference.%s: unsupported provider %q", name, v))
		}
	}

	return errors.Join(errs...)
}

// Timeout is the per-request deadline for inference HTTP calls.
func (h HuggingFaceConfig) Timeout() time.Duration {
	if h.TimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(h.TimeoutSeconds) * time.Second
}
