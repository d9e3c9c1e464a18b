// Package config implements the core's configuration-file directive
// grammar, grounded on the teacher's line-oriented scanner idiom
// (configparser.optionLine's skipSpace/isEOL/getName tokenizer) but
// simplified to this domain's fixed directive set rather than a
// pluggable per-device model registry.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// Config is the parsed result of a configuration file (spec.md's
// "memory <size>", "spu <count>", "log <file>", "debug <options>",
// "quantum <micro-quanta>", "frame-rate <hz>" directives).
type Config struct {
	MemorySize  uint32
	SPUCount    int
	LogFile     string
	DebugOpts   []string
	Quantum     int
	FrameRateHz int
}

// Defaults returns the configuration main uses when no configuration
// file is found.
func Defaults() Config {
	return Config{
		MemorySize:  0x10000000, // 256 MiB
		SPUCount:    6,
		Quantum:     1024,
		FrameRateHz: 60,
	}
}

type optionLine struct {
	line string
	pos  int
}

var lineNumber int

// Load reads and parses a configuration file, starting from Defaults
// and overriding whichever directives appear.
func Load(path string) (Config, error) {
	cfg := Defaults()
	file, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer file.Close()

	lineNumber = 0
	reader := bufio.NewReader(file)
	for {
		raw, err := reader.ReadString('\n')
		lineNumber++
		if len(raw) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return cfg, err
		}
		line := optionLine{line: raw}
		if err := line.apply(&cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func (l *optionLine) skipSpace() {
	for l.pos < len(l.line) && unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
}

func (l *optionLine) isEOL() bool {
	if l.pos >= len(l.line) {
		return true
	}
	return l.line[l.pos] == '#'
}

// getWord consumes a run of non-space, non-comment characters.
func (l *optionLine) getWord() string {
	l.skipSpace()
	start := l.pos
	for l.pos < len(l.line) {
		if l.isEOL() || unicode.IsSpace(rune(l.line[l.pos])) {
			break
		}
		l.pos++
	}
	return l.line[start:l.pos]
}

func (l *optionLine) apply(cfg *Config) error {
	l.skipSpace()
	if l.isEOL() {
		return nil
	}
	directive := strings.ToLower(l.getWord())
	arg := l.getWord()
	if arg == "" {
		return fmt.Errorf("config line %d: directive %q requires an argument", lineNumber, directive)
	}

	switch directive {
	case "memory":
		v, err := parseSize(arg)
		if err != nil {
			return fmt.Errorf("config line %d: %w", lineNumber, err)
		}
		cfg.MemorySize = v
	case "spu":
		v, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("config line %d: invalid spu count %q", lineNumber, arg)
		}
		cfg.SPUCount = v
	case "log":
		cfg.LogFile = arg
	case "debug":
		cfg.DebugOpts = strings.Split(arg, ",")
	case "quantum":
		v, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("config line %d: invalid quantum %q", lineNumber, arg)
		}
		cfg.Quantum = v
	case "frame-rate":
		v, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("config line %d: invalid frame-rate %q", lineNumber, arg)
		}
		cfg.FrameRateHz = v
	default:
		return fmt.Errorf("config line %d: unknown directive %q", lineNumber, directive)
	}
	return nil
}

// parseSize accepts a bare byte count or a K/M-suffixed shorthand, the
// same suffix convention the teacher's address parser uses.
func parseSize(s string) (uint32, error) {
	mult := uint64(1)
	switch {
	case strings.HasSuffix(s, "K") || strings.HasSuffix(s, "k"):
		mult = 1024
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M") || strings.HasSuffix(s, "m"):
		mult = 1024 * 1024
		s = s[:len(s)-1]
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v * mult), nil
}
