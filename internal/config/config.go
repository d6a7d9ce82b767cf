package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"InsuranceNewsAgent/internal/domain"
)

const (
	configPathEnv  = "NEWSAGENT_CONFIG"
	databaseDSNEnv = "NEWSAGENT_DATABASE_DSN"
	dataDirEnv     = "NEWSAGENT_DATA_DIR"
)

// Config holds the resolved settings consumed by component constructors.
// Nothing in the pipeline reads configuration from global state.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Collector CollectorConfig `yaml:"collector"`
	Relevance RelevanceConfig `yaml:"relevance"`
	Dedup     DedupConfig     `yaml:"dedup"`
	Report    ReportConfig    `yaml:"report"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig selects the Postgres fingerprint store when a DSN is
// set; the JSON file store is used otherwise.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// CollectorConfig points at the hand-off files exchanged with the
// out-of-scope acquisition and delivery layers.
type CollectorConfig struct {
	InputPath string `yaml:"inputPath"`
	ReportDir string `yaml:"reportDir"`
}

// TopicKeywords binds one topic label to its keyword set. Topics are a
// slice, not a map: classification tie-breaks on configuration order.
type TopicKeywords struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// RelevanceConfig supplies the keyword sets, weights and caps used by
// the scorer.
type RelevanceConfig struct {
	CoreKeywords          []string `yaml:"coreKeywords"`
	CoreWeight            float64  `yaml:"coreWeight"`
	PriorityKeywords      []string `yaml:"priorityKeywords"`
	PriorityWeight        float64  `yaml:"priorityWeight"`
	OpenInsuranceKeywords []string `yaml:"openInsuranceKeywords"`
	OpenInsuranceWeight   float64  `yaml:"openInsuranceWeight"`
	IrrelevantKeywords    []string `yaml:"irrelevantKeywords"`
	IrrelevantPenalty     float64  `yaml:"irrelevantPenalty"`
	SafeContextWords      []string `yaml:"safeContextWords"`

	// CategoryCap bounds the contribution of any single keyword set so
	// one category cannot dominate the score.
	CategoryCap float64 `yaml:"categoryCap"`

	FreshWindowHours  int     `yaml:"freshWindowHours"`
	FreshBonus        float64 `yaml:"freshBonus"`
	RecentWindowHours int     `yaml:"recentWindowHours"`
	RecentBonus       float64 `yaml:"recentBonus"`

	Topics []TopicKeywords `yaml:"topics"`
}

// DedupConfig describes the fingerprint history.
type DedupConfig struct {
	StorePath     string `yaml:"storePath"`
	RetentionDays int    `yaml:"retentionDays"`
}

// ReportConfig tunes the aggregation step.
type ReportConfig struct {
	TopN         int     `yaml:"topN"`
	MaxPerSource int     `yaml:"maxPerSource"`
	MinRelevance float64 `yaml:"minRelevance"`

	// OthersFromCapped chooses whether OtherArticles is the remainder of
	// the per-source-capped set (true) or of the full deduplicated set
	// (false, the default).
	OthersFromCapped bool `yaml:"othersFromCapped"`
}

// Load reads YAML configuration (if present), applies environment
// overrides and validates the result. An invalid configuration is fatal
// before any article is processed.
func Load() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, &domain.ConfigError{Field: "file", Reason: fmt.Sprintf("cannot read %s: %v", path, err)}
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, &domain.ConfigError{Field: "file", Reason: fmt.Sprintf("cannot parse %s: %v", path, err)}
		}
		var explicit reportOverrides
		if err := yaml.Unmarshal(raw, &explicit); err != nil {
			return Config{}, &domain.ConfigError{Field: "file", Reason: fmt.Sprintf("cannot parse %s: %v", path, err)}
		}
		cfg = mergeConfig(cfg, fileCfg)
		cfg.applyReportOverrides(explicit)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate enforces the invariants the scorer and aggregator rely on.
func (c Config) Validate() error {
	r := c.Relevance
	if len(r.CoreKeywords) == 0 {
		return &domain.ConfigError{Field: "relevance.coreKeywords", Reason: "must not be empty"}
	}
	if len(r.OpenInsuranceKeywords) == 0 {
		return &domain.ConfigError{Field: "relevance.openInsuranceKeywords", Reason: "must not be empty"}
	}
	if r.CoreWeight <= 0 || r.PriorityWeight <= 0 || r.OpenInsuranceWeight <= 0 {
		return &domain.ConfigError{Field: "relevance weights", Reason: "must be positive"}
	}
	if r.IrrelevantPenalty < 0 {
		return &domain.ConfigError{Field: "relevance.irrelevantPenalty", Reason: "must not be negative"}
	}
	if r.CategoryCap <= 0 {
		return &domain.ConfigError{Field: "relevance.categoryCap", Reason: "must be positive"}
	}
	if r.FreshWindowHours <= 0 || r.RecentWindowHours <= r.FreshWindowHours {
		return &domain.ConfigError{Field: "relevance recency windows", Reason: "fresh window must be positive and smaller than the recent window"}
	}
	for _, topic := range r.Topics {
		if topic.Name == "" || len(topic.Keywords) == 0 {
			return &domain.ConfigError{Field: "relevance.topics", Reason: "every topic needs a name and at least one keyword"}
		}
	}
	if c.Dedup.RetentionDays <= 0 {
		return &domain.ConfigError{Field: "dedup.retentionDays", Reason: "must be positive"}
	}
	if c.Dedup.StorePath == "" {
		return &domain.ConfigError{Field: "dedup.storePath", Reason: "must not be empty"}
	}
	if c.Report.TopN <= 0 {
		return &domain.ConfigError{Field: "report.topN", Reason: "must be positive"}
	}
	if c.Report.MaxPerSource < 0 {
		return &domain.ConfigError{Field: "report.maxPerSource", Reason: "must not be negative"}
	}
	return nil
}

// reportOverrides re-decodes the report knobs whose zero values are
// meaningful settings: maxPerSource 0 disables the cap and minRelevance
// 0 disables the filter. Pointers distinguish an explicit zero in the
// file from an absent key, which the plain merge cannot.
type reportOverrides struct {
	Report struct {
		MaxPerSource *int     `yaml:"maxPerSource"`
		MinRelevance *float64 `yaml:"minRelevance"`
	} `yaml:"report"`
}

func (c *Config) applyReportOverrides(o reportOverrides) {
	if o.Report.MaxPerSource != nil {
		c.Report.MaxPerSource = *o.Report.MaxPerSource
	}
	if o.Report.MinRelevance != nil {
		c.Report.MinRelevance = *o.Report.MinRelevance
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(dataDirEnv); v != "" {
		c.Dedup.StorePath = filepath.Join(v, "deduplication", "sent_articles.json")
		c.Collector.ReportDir = filepath.Join(v, "reports")
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Collector.InputPath != "" {
		base.Collector.InputPath = override.Collector.InputPath
	}
	if override.Collector.ReportDir != "" {
		base.Collector.ReportDir = override.Collector.ReportDir
	}

	base.Relevance = mergeRelevance(base.Relevance, override.Relevance)

	if override.Dedup.StorePath != "" {
		base.Dedup.StorePath = override.Dedup.StorePath
	}
	if override.Dedup.RetentionDays != 0 {
		base.Dedup.RetentionDays = override.Dedup.RetentionDays
	}

	if override.Report.TopN != 0 {
		base.Report.TopN = override.Report.TopN
	}
	// MaxPerSource and MinRelevance are merged through reportOverrides:
	// zero is a valid setting for both.
	if override.Report.OthersFromCapped {
		base.Report.OthersFromCapped = true
	}

	return base
}

func mergeRelevance(base, override RelevanceConfig) RelevanceConfig {
	if len(override.CoreKeywords) > 0 {
		base.CoreKeywords = override.CoreKeywords
	}
	if override.CoreWeight != 0 {
		base.CoreWeight = override.CoreWeight
	}
	if len(override.PriorityKeywords) > 0 {
		base.PriorityKeywords = override.PriorityKeywords
	}
	if override.PriorityWeight != 0 {
		base.PriorityWeight = override.PriorityWeight
	}
	if len(override.OpenInsuranceKeywords) > 0 {
		base.OpenInsuranceKeywords = override.OpenInsuranceKeywords
	}
	if override.OpenInsuranceWeight != 0 {
		base.OpenInsuranceWeight = override.OpenInsuranceWeight
	}
	if len(override.IrrelevantKeywords) > 0 {
		base.IrrelevantKeywords = override.IrrelevantKeywords
	}
	if override.IrrelevantPenalty != 0 {
		base.IrrelevantPenalty = override.IrrelevantPenalty
	}
	if len(override.SafeContextWords) > 0 {
		base.SafeContextWords = override.SafeContextWords
	}
	if override.CategoryCap != 0 {
		base.CategoryCap = override.CategoryCap
	}
	if override.FreshWindowHours != 0 {
		base.FreshWindowHours = override.FreshWindowHours
	}
	if override.FreshBonus != 0 {
		base.FreshBonus = override.FreshBonus
	}
	if override.RecentWindowHours != 0 {
		base.RecentWindowHours = override.RecentWindowHours
	}
	if override.RecentBonus != 0 {
		base.RecentBonus = override.RecentBonus
	}
	if len(override.Topics) > 0 {
		base.Topics = override.Topics
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Collector: CollectorConfig{
			InputPath: "data/collected/articles.json",
			ReportDir: "data/reports",
		},
		Relevance: RelevanceConfig{
			CoreKeywords: []string{
				"seguro", "seguros", "insurance", "assurance", "apólice", "sinistro",
				"prêmio", "resseguro", "corretora", "seguradora", "insurtech",
				"proteção", "cobertura", "indenização", "subscrição",
			},
			CoreWeight: 0.1,
			PriorityKeywords: []string{
				"regulamentação", "susep", "cnseg", "lei de seguros", "nova lei",
				"circular susep", "resolução", "normativa", "compliance",
				"open insurance", "transformação digital", "insurtech",
			},
			PriorityWeight: 0.3,
			OpenInsuranceKeywords: []string{
				"open insurance", "open banking", "seguros abertos", "sistema de seguros aberto",
				"opin", "apis de seguros", "compartilhamento de dados", "fida", "eiopa",
				"dados abertos seguros", "interoperabilidade seguros",
			},
			OpenInsuranceWeight: 0.4,
			IrrelevantKeywords: []string{
				"futebol", "celebridade", "horóscopo", "novela", "loteria",
			},
			IrrelevantPenalty: 0.2,
			SafeContextWords: []string{
				"seguro", "seguradora", "apólice", "insurance", "patrocínio",
			},
			CategoryCap:       0.6,
			FreshWindowHours:  24,
			FreshBonus:        0.10,
			RecentWindowHours: 72,
			RecentBonus:       0.05,
			Topics: []TopicKeywords{
				{Name: "open_insurance", Keywords: []string{"open insurance", "open banking", "seguros abertos", "opin"}},
				{Name: "regulation", Keywords: []string{"regulamentação", "susep", "lei", "circular", "resolução", "normativa"}},
				{Name: "technology", Keywords: []string{"tecnologia", "digital", "api", "insurtech", "inovação"}},
				{Name: "market", Keywords: []string{"mercado", "setor", "indústria", "crescimento", "vendas"}},
				{Name: "claims", Keywords: []string{"sinistro", "indenização", "claims", "pagamento"}},
				{Name: "auto", Keywords: []string{"auto", "veículo", "carro", "automóvel"}},
				{Name: "life", Keywords: []string{"vida", "life", "previdência"}},
				{Name: "health", Keywords: []string{"saúde", "health", "médico", "hospitalar"}},
				{Name: "property", Keywords: []string{"patrimonial", "property", "residencial", "empresarial"}},
				{Name: "reinsurance", Keywords: []string{"resseguro", "reinsurance", "ressegurador"}},
			},
		},
		Dedup: DedupConfig{
			StorePath:     "data/deduplication/sent_articles.json",
			RetentionDays: 30,
		},
		Report: ReportConfig{
			TopN:         15,
			MaxPerSource: 5,
			MinRelevance: 0.2,
		},
	}
}

// Default returns the compiled-in configuration without touching the
// filesystem or environment. Tests build their fixtures from it.
func Default() Config {
	return defaultConfig()
}
