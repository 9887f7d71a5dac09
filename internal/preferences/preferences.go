// Package preferences serves user preferences from a key-value store through
// a short-lived cache.
package preferences

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	"expensetracker/internal/export"
	"expensetracker/internal/storage"
)

const (
	KeyCurrency         = "default_currency"
	KeyExportFormat     = "export_format"
	KeyDuplicateCheck   = "enable_duplicate_check"
	KeyLastUsedCategory = "last_used_category"

	cacheKey = "preferences"
)

// Preferences is the full preference set with defaults applied.
type Preferences struct {
	CurrencySymbol   string        `json:"currencySymbol"`
	ExportFormat     export.Format `json:"exportFormat"`
	DuplicateCheck   bool          `json:"duplicateCheck"`
	LastUsedCategory core.Category `json:"lastUsedCategory"`
}

// Defaults returns the preferences used when nothing has been stored.
func Defaults() Preferences {
	return Preferences{
		CurrencySymbol:   "₹",
		ExportFormat:     export.CSV,
		DuplicateCheck:   true,
		LastUsedCategory: core.Staff,
	}
}

// Update is a partial change; nil fields are left untouched.
type Update struct {
	CurrencySymbol   *string
	ExportFormat     *export.Format
	DuplicateCheck   *bool
	LastUsedCategory *core.Category
}

type Service struct {
	kv       storage.KV
	defaults Preferences
	cache    *cache.LRUCache[Preferences]
}

type Option func(*Service)

// WithDefaultCurrency overrides the currency used when none is stored.
func WithDefaultCurrency(symbol string) Option {
	return func(s *Service) {
		if symbol != "" {
			s.defaults.CurrencySymbol = symbol
		}
	}
}

// WithCache replaces the default one-minute cache.
func WithCache(c *cache.LRUCache[Preferences]) Option {
	return func(s *Service) { s.cache = c }
}

func NewService(kv storage.KV, opts ...Option) *Service {
	s := &Service{
		kv:       kv,
		defaults: Defaults(),
		cache:    cache.NewLRUCache[Preferences](1, time.Minute),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache exposes the backing cache for registration with a cleanup manager.
func (s *Service) Cache() *cache.LRUCache[Preferences] { return s.cache }

// Load returns the current preferences. Unparseable stored values fall back
// to their defaults.
func (s *Service) Load(ctx context.Context) (Preferences, error) {
	if p, ok := s.cache.Get(cacheKey); ok {
		return p, nil
	}

	p := s.defaults
	if v, ok, err := s.kv.Get(ctx, KeyCurrency); err != nil {
		return Preferences{}, err
	} else if ok && strings.TrimSpace(v) != "" {
		p.CurrencySymbol = v
	}
	if v, ok, err := s.kv.Get(ctx, KeyExportFormat); err != nil {
		return Preferences{}, err
	} else if ok {
		if f, err := export.ParseFormat(v); err == nil {
			p.ExportFormat = f
		}
	}
	if v, ok, err := s.kv.Get(ctx, KeyDuplicateCheck); err != nil {
		return Preferences{}, err
	} else if ok {
		if b, err := strconv.ParseBool(v); err == nil {
			p.DuplicateCheck = b
		}
	}
	if v, ok, err := s.kv.Get(ctx, KeyLastUsedCategory); err != nil {
		return Preferences{}, err
	} else if ok {
		if c, err := core.ParseCategory(v); err == nil {
			p.LastUsedCategory = c
		}
	}

	s.cache.Set(cacheKey, p)
	return p, nil
}

// Apply validates and stores u, then returns the resulting preferences.
func (s *Service) Apply(ctx context.Context, u Update) (Preferences, error) {
	err := s.apply(ctx, u)
	s.cache.Delete(cacheKey)
	if err != nil {
		return Preferences{}, err
	}
	return s.Load(ctx)
}

func (s *Service) apply(ctx context.Context, u Update) error {
	if u.CurrencySymbol != nil {
		sym := strings.TrimSpace(*u.CurrencySymbol)
		if sym == "" {
			return fmt.Errorf("currency symbol cannot be empty: %w", core.ErrValidation)
		}
		if err := s.kv.Set(ctx, KeyCurrency, sym); err != nil {
			return err
		}
	}
	if u.ExportFormat != nil {
		if !u.ExportFormat.Valid() {
			return fmt.Errorf("unsupported export format %q: %w", *u.ExportFormat, core.ErrValidation)
		}
		if err := s.kv.Set(ctx, KeyExportFormat, string(*u.ExportFormat)); err != nil {
			return err
		}
	}
	if u.DuplicateCheck != nil {
		if err := s.kv.Set(ctx, KeyDuplicateCheck, strconv.FormatBool(*u.DuplicateCheck)); err != nil {
			return err
		}
	}
	if u.LastUsedCategory != nil {
		if err := s.SetLastUsedCategory(ctx, *u.LastUsedCategory); err != nil {
			return err
		}
	}
	return nil
}

// SetLastUsedCategory records the category of the most recent entry.
func (s *Service) SetLastUsedCategory(ctx context.Context, c core.Category) error {
	if !c.Valid() {
		return core.ErrInvalidCategory
	}
	if err := s.kv.Set(ctx, KeyLastUsedCategory, string(c)); err != nil {
		return err
	}
	s.cache.Delete(cacheKey)
	return nil
}
