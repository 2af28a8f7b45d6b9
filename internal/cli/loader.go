package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/classier/internal/compiler"
	"github.com/roach88/classier/internal/config"
	"github.com/roach88/classier/internal/engine"
	"github.com/roach88/classier/internal/script"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No manifest or scenario files found
	ErrCodeLoadFailed  = "E004" // Manifest parse failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // Class definition failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeSettings    = "E008" // Settings file error
	ErrCodeBadArgs     = "E009" // Invalid --args JSON

	// Manifest errors
	ErrCodeUnknownRef = "E101" // Unknown class or mixin reference
	ErrCodeCycle      = "E102" // Inheritance cycle
	ErrCodeBadMethod  = "E103" // Method source does not compile
	ErrCodeBadValue   = "E104" // Unsupported value or declaration shape

	// Runtime errors
	ErrCodeUnknownClass = "E201" // Class not in manifest
	ErrCodeCallFailed   = "E202" // Constructor or method failed
	ErrCodeScenario     = "E203" // Scenario failed
	ErrCodeNonDeterm    = "E204" // Trace differs between runs
)

// LoadError represents an error that occurred while loading a manifest.
type LoadError struct {
	Code    string
	Message string
	File    string
	Line    int
	Column  int
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Session is a runtime configured from the global flags with a script host
// sharing its logger.
type Session struct {
	Runtime *engine.Runtime
	Host    *script.Host
	Logger  *slog.Logger
}

// newLogger returns a text logger on w: debug when verbose, warnings only
// otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewSession creates a runtime for a command. A --settings file is merged
// before any manifest.
func NewSession(opts *RootOptions, errOut io.Writer) (*Session, error) {
	logger := newLogger(errOut, opts.Verbose)
	store := config.NewStore(config.WithLogger(logger))
	if opts.Settings != "" {
		if _, err := store.LoadFile(opts.Settings); err != nil {
			return nil, &LoadError{Code: ErrCodeSettings, Message: err.Error()}
		}
	}
	return &Session{
		Runtime: engine.New(engine.WithConfig(store), engine.WithLogger(logger)),
		Host:    script.New(script.WithLogger(logger)),
		Logger:  logger,
	}, nil
}

// LoadProgram parses a manifest and defines its classes on the session's
// runtime.
func (s *Session) LoadProgram(path string) (*compiler.Program, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("manifest not found: %s", path)}
	}
	m, err := compiler.Load(path, s.Host)
	if err != nil {
		return nil, convertCompileError(err, ErrCodeLoadFailed)
	}
	p, err := compiler.Build(s.Runtime, m)
	if err != nil {
		return nil, convertCompileError(err, ErrCodeBuildFailed)
	}
	return p, nil
}

// FindManifestFiles returns the manifests under path: path itself when it
// is a file, else every .yaml, .yml and .cue file below it.
func FindManifestFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isManifestFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no manifests found in %s", path)}
	}
	return files, nil
}

func isManifestFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".cue":
		return true
	}
	return false
}

// convertCompileError converts a compiler error to a LoadError with
// position info. fallback is used for errors without a specific code.
func convertCompileError(err error, fallback string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapCompileErrorToCode(compileErr, fallback),
			Message: compileErr.Message,
			File:    compileErr.File,
			Line:    compileErr.Line,
			Column:  compileErr.Column,
		}
	}
	return &LoadError{Code: fallback, Message: err.Error()}
}

// MapCompileErrorToCode maps a compiler error to an error code.
func MapCompileErrorToCode(err *compiler.CompileError, fallback string) string {
	switch {
	case strings.HasPrefix(err.Message, "unknown class"), strings.HasPrefix(err.Message, "unknown mixin"):
		return ErrCodeUnknownRef
	case strings.HasPrefix(err.Message, "inheritance cycle"):
		return ErrCodeCycle
	case strings.Contains(err.Message, "compile:"), strings.Contains(err.Message, "not a function expression"),
		strings.Contains(err.Message, "method source"):
		return ErrCodeBadMethod
	case strings.HasPrefix(err.Message, "declaration must be"), strings.HasPrefix(err.Message, "unsupported"):
		return ErrCodeBadValue
	default:
		return fallback
	}
}

// describeError returns the code and message of err. LoadErrors keep
// their code and position; anything else is ErrCodeGeneric.
func describeError(err error) (code, message string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		if loadErr.Line > 0 {
			return loadErr.Code, fmt.Sprintf("%s:%d:%d: %s", loadErr.File, loadErr.Line, loadErr.Column, loadErr.Message)
		}
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
