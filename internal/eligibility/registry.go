package eligibility

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"fincoach/internal/logger"
)

// Product describes the eligibility rules for one mappable product category.
type Product struct {
	ID                   string   `mapstructure:"id" yaml:"id"`
	Category             string   `mapstructure:"category" yaml:"category"`
	TitleKeywords        []string `mapstructure:"title_keywords" yaml:"title_keywords"`
	Blacklisted          bool     `mapstructure:"blacklisted" yaml:"blacklisted"`
	ExcludedAccountTypes []string `mapstructure:"excluded_account_types" yaml:"excluded_account_types"`
	ExcludedSubtypes     []string `mapstructure:"excluded_subtypes" yaml:"excluded_subtypes"`
	MinAnnualIncome      float64  `mapstructure:"min_annual_income" yaml:"min_annual_income"`
	MinCreditScore       int      `mapstructure:"min_credit_score" yaml:"min_credit_score"`
}

// FileConfig maps the products file.
type FileConfig struct {
	Products map[string]Product `mapstructure:"products" yaml:"products"`
}

// Snapshot is the published product rule set.
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Products map[string]Product
}

// Registry manages product eligibility rules, reloading on file change.
type Registry struct {
	path string
	v    *viper.Viper

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewRegistry reads the product rules file and watches it for updates.
func NewRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("product registry requires path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read product rules failed: %w", err)
	}
	r := &Registry{path: path, v: v}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("product rules reload failed: %v", err)
		}
	})
	v.WatchConfig()
	return r, nil
}

// NewStaticRegistry builds a registry from an in-memory rule set, without
// file watching. Used by tests and as a built-in default.
func NewStaticRegistry(products map[string]Product) *Registry {
	normalized := make(map[string]Product, len(products))
	for name, p := range products {
		norm := normalizeProduct(name, p)
		normalized[norm.ID] = norm
	}
	return &Registry{snapshot: Snapshot{Version: 1, LoadedAt: time.Now(), Products: normalized}}
}

// Snapshot returns the current rule set.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSnapshot(r.snapshot)
}

// Product returns the rules for a product ID.
func (r *Registry) Product(id string) (Product, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.snapshot.Products[strings.TrimSpace(strings.ToLower(id))]
	return p, ok
}

// MatchTitle maps a content title onto a product by keyword. The first
// product (by sorted ID) with a keyword contained in the title wins.
func (r *Registry) MatchTitle(title string) (Product, bool) {
	title = strings.ToLower(strings.TrimSpace(title))
	if title == "" {
		return Product{}, false
	}
	snap := r.Snapshot()
	ids := make([]string, 0, len(snap.Products))
	for id := range snap.Products {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := snap.Products[id]
		for _, kw := range p.TitleKeywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(title, kw) {
				return p, true
			}
		}
	}
	return Product{}, false
}

func (r *Registry) reload() error {
	cfg, err := readProductsFile(r.path)
	if err != nil {
		return err
	}
	products := make(map[string]Product, len(cfg.Products))
	for name, p := range cfg.Products {
		norm := normalizeProduct(name, p)
		products[norm.ID] = norm
	}
	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Products: products,
	}
	r.mu.Unlock()
	logger.Infof("product registry loaded %d products from %s", len(products), filepath.Base(r.path))
	return nil
}

func normalizeProduct(name string, p Product) Product {
	p.ID = strings.ToLower(strings.TrimSpace(p.ID))
	if p.ID == "" {
		p.ID = strings.ToLower(strings.TrimSpace(name))
	}
	p.Category = strings.TrimSpace(p.Category)
	if p.MinAnnualIncome < 0 {
		p.MinAnnualIncome = 0
	}
	return p
}

func cloneSnapshot(src Snapshot) Snapshot {
	dst := Snapshot{
		Version:  src.Version,
		LoadedAt: src.LoadedAt,
		Products: make(map[string]Product, len(src.Products)),
	}
	for id, p := range src.Products {
		dst.Products[id] = p
	}
	return dst
}

func readProductsFile(path string) (FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("read product rules failed: %w", err)
	}
	var cfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return FileConfig{}, fmt.Errorf("parse product rules failed: %w", err)
	}
	return cfg, nil
}
