package engine

import (
	"os"
	"regexp"
	"runtime"
	"strings"
)

// nameScanLines bounds how far above the reported call line the source is
// searched for the assignment a multi-line DefineClass call starts on.
const nameScanLines = 40

var (
	defineCallPattern = regexp.MustCompile(`(?:DefineClass|Extend)\(`)
	classNamePattern  = regexp.MustCompile(`(\w+)\s*(?::=|=|:)\s*[^=:]*?(?:DefineClass|Extend)\(`)

	// enginePkgPrefix is the symbol prefix of this package's functions,
	// e.g. "github.com/roach88/classier/internal/engine.".
	enginePkgPrefix = func() string {
		pc, _, _, ok := runtime.Caller(0)
		if !ok {
			return ""
		}
		fn := runtime.FuncForPC(pc).Name()
		slash := strings.LastIndex(fn, "/")
		dot := strings.Index(fn[slash+1:], ".")
		if dot < 0 {
			return ""
		}
		return fn[:slash+1+dot+1]
	}()
)

// inferName guesses a debugging name from the first caller outside this
// package: the identifier assigned on the line that calls DefineClass or
// Extend. Returns "" when the source is unavailable or has no assignment.
func (rt *Runtime) inferName() string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		inEngine := enginePkgPrefix != "" && strings.HasPrefix(f.Function, enginePkgPrefix)
		if f.File != "" && (!inEngine || strings.HasSuffix(f.File, "_test.go")) {
			return rt.nameAt(f.File, f.Line)
		}
		if !more {
			return ""
		}
	}
}

func (rt *Runtime) nameAt(file string, line int) string {
	lines, ok := rt.sources[file]
	if !ok {
		data, err := os.ReadFile(file)
		if err != nil {
			rt.logger.Debug("call site source unavailable", "file", file, "error", err)
		}
		lines = strings.Split(string(data), "\n")
		rt.sources[file] = lines
	}

	for i := line - 1; i >= 0 && i >= line-nameScanLines; i-- {
		if i >= len(lines) {
			continue
		}
		if !defineCallPattern.MatchString(lines[i]) {
			continue
		}
		if m := classNamePattern.FindStringSubmatch(lines[i]); m != nil {
			return m[1]
		}
		return ""
	}
	return ""
}
