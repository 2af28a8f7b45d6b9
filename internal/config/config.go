// Package config holds the runtime settings record shared by every part of
// the class runtime.
//
// Settings are constructed once, handed to the runtime by reference (a
// *Store), and only change through Store.Configure. Every holder of the
// store reads the same record at use time, so a reconfiguration is visible
// everywhere immediately.
//
// Configure is a shallow override: keys present in the partial replace the
// current value, absent keys keep theirs. Unknown keys and values of the
// wrong type are ignored rather than rejected.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Recognized settings keys.
const (
	KeyEnforceVisibility            = "enforceVisibility"
	KeyPrivatePrefix                = "privatePrefix"
	KeyProtectedPrefix              = "protectedPrefix"
	KeyAllowTrailingPropsArg        = "allowTrailingPropsArg"
	KeySkipLifecycleCleanupWhenSafe = "skipLifecycleCleanupWhenSafe"
	KeyLegacySyntaxCompatible       = "legacySyntaxCompatible"
	KeyAltSyntaxCompatible          = "altSyntaxCompatible"
	KeyAutoNameFromCallSite         = "autoNameFromCallSite"
)

// Settings is the behavioral switchboard of the runtime.
type Settings struct {
	// EnforceVisibility turns prefixed members into guarded slots.
	// When false they stay ordinary public members.
	EnforceVisibility bool `yaml:"enforceVisibility" json:"enforceVisibility"`

	// PrivatePrefix marks private members (default "__").
	PrivatePrefix string `yaml:"privatePrefix" json:"privatePrefix"`

	// ProtectedPrefix marks protected members (default "_").
	ProtectedPrefix string `yaml:"protectedPrefix" json:"protectedPrefix"`

	// AllowTrailingPropsArg assigns a trailing record argument of a
	// constructor call onto the new instance.
	AllowTrailingPropsArg bool `yaml:"allowTrailingPropsArg" json:"allowTrailingPropsArg"`

	// SkipLifecycleCleanupWhenSafe lets an initializer whose source text
	// shows no prefixed assignment skip the post-call cleanup pass.
	SkipLifecycleCleanupWhenSafe bool `yaml:"skipLifecycleCleanupWhenSafe" json:"skipLifecycleCleanupWhenSafe"`

	// LegacySyntaxCompatible enables init, _super and _static.
	LegacySyntaxCompatible bool `yaml:"legacySyntaxCompatible" json:"legacySyntaxCompatible"`

	// AltSyntaxCompatible enables __init__, $super, __classvars__ and $class.
	AltSyntaxCompatible bool `yaml:"altSyntaxCompatible" json:"altSyntaxCompatible"`

	// AutoNameFromCallSite infers a debugging name for unnamed classes.
	AutoNameFromCallSite bool `yaml:"autoNameFromCallSite" json:"autoNameFromCallSite"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		EnforceVisibility:            true,
		PrivatePrefix:                "__",
		ProtectedPrefix:              "_",
		AllowTrailingPropsArg:        true,
		SkipLifecycleCleanupWhenSafe: true,
		LegacySyntaxCompatible:       true,
		AltSyntaxCompatible:          true,
		AutoNameFromCallSite:         true,
	}
}

// Map renders the settings as a key/value map using the recognized keys.
func (s Settings) Map() map[string]any {
	return map[string]any{
		KeyEnforceVisibility:            s.EnforceVisibility,
		KeyPrivatePrefix:                s.PrivatePrefix,
		KeyProtectedPrefix:              s.ProtectedPrefix,
		KeyAllowTrailingPropsArg:        s.AllowTrailingPropsArg,
		KeySkipLifecycleCleanupWhenSafe: s.SkipLifecycleCleanupWhenSafe,
		KeyLegacySyntaxCompatible:       s.LegacySyntaxCompatible,
		KeyAltSyntaxCompatible:          s.AltSyntaxCompatible,
		KeyAutoNameFromCallSite:         s.AutoNameFromCallSite,
	}
}

// Store owns the current settings record.
//
// Thread-safety: reads and merges are guarded by an RWMutex. The runtime
// itself is single-threaded; the lock only keeps a CLI or test goroutine
// from observing a half-merged record.
type Store struct {
	mu      sync.RWMutex
	current Settings
	logger  *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for ignored-key diagnostics.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a store holding the default settings.
func NewStore(opts ...StoreOption) *Store {
	return NewStoreWith(Defaults(), opts...)
}

// NewStoreWith creates a store holding the given settings.
func NewStoreWith(initial Settings, opts ...StoreOption) *Store {
	s := &Store{
		current: initial,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns a copy of the current settings.
func (s *Store) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Configure merges partial into the current settings and returns the result.
// A nil or empty partial is a read.
func (s *Store) Configure(partial map[string]any) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, raw := range partial {
		if !s.apply(key, raw) {
			s.logger.Debug("settings key ignored", "key", key, "value", raw)
		}
	}
	return s.current
}

// apply sets one key. Returns false when the key is unknown or the value
// has the wrong type.
func (s *Store) apply(key string, raw any) bool {
	switch key {
	case KeyEnforceVisibility:
		return setBool(&s.current.EnforceVisibility, raw)
	case KeyPrivatePrefix:
		return setPrefix(&s.current.PrivatePrefix, raw)
	case KeyProtectedPrefix:
		return setPrefix(&s.current.ProtectedPrefix, raw)
	case KeyAllowTrailingPropsArg:
		return setBool(&s.current.AllowTrailingPropsArg, raw)
	case KeySkipLifecycleCleanupWhenSafe:
		return setBool(&s.current.SkipLifecycleCleanupWhenSafe, raw)
	case KeyLegacySyntaxCompatible:
		return setBool(&s.current.LegacySyntaxCompatible, raw)
	case KeyAltSyntaxCompatible:
		return setBool(&s.current.AltSyntaxCompatible, raw)
	case KeyAutoNameFromCallSite:
		return setBool(&s.current.AutoNameFromCallSite, raw)
	default:
		return false
	}
}

func setBool(dst *bool, raw any) bool {
	b, ok := raw.(bool)
	if !ok {
		return false
	}
	*dst = b
	return true
}

// setPrefix rejects the empty string: an empty prefix would match every
// member name.
func setPrefix(dst *string, raw any) bool {
	p, ok := raw.(string)
	if !ok || p == "" {
		return false
	}
	*dst = p
	return true
}

// LoadFile merges a YAML settings document into the store.
//
// The document is a flat mapping of settings keys:
//
//	enforceVisibility: true
//	privatePrefix: "__"
func (s *Store) LoadFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return s.Current(), fmt.Errorf("read settings %s: %w", path, err)
	}
	partial, err := Parse(data)
	if err != nil {
		return s.Current(), fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s.Configure(partial), nil
}

// Parse decodes a YAML settings document into a partial map.
func Parse(data []byte) (map[string]any, error) {
	partial := map[string]any{}
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return nil, err
	}
	return partial, nil
}
