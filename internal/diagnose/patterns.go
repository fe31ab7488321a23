package diagnose

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/errors"
)

// maxParallelLoads bounds concurrent reads of scenario-specific pattern files.
const maxParallelLoads = 4

// TypedPatterns are the message patterns of one error type ("4xx", "session", ...).
type TypedPatterns struct {
	Type     string
	Patterns []string
}

// MessagePatterns keeps the declaration order of messages_erreur, which
// decides which type is reported when several match.
type MessagePatterns []TypedPatterns

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *MessagePatterns) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("messages_erreur: expected a mapping at line %d", node.Line)
	}
	out := make(MessagePatterns, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var patterns []string
		if err := node.Content[i+1].Decode(&patterns); err != nil {
			return fmt.Errorf("messages_erreur.%s: %w", node.Content[i].Value, err)
		}
		out = append(out, TypedPatterns{Type: node.Content[i].Value, Patterns: patterns})
	}
	*m = out
	return nil
}

// Detection is the detection_erreurs block.
type Detection struct {
	HTTPCodes []string        `yaml:"codes_http"`
	Messages  MessagePatterns `yaml:"messages_erreur"`
	Selectors []string        `yaml:"selecteurs"`
}

// Patterns is the merged content of the error-pattern files.
type Patterns struct {
	Detection        *Detection        `yaml:"detection_erreurs"`
	TypeDescriptions map[string]string `yaml:"descriptions_types"`
	CodeDescriptions map[int]string    `yaml:"descriptions_codes"`

	// Files lists the files that were merged, in order.
	Files []string `yaml:"-"`
}

// merge overlays top on p key by key: a block present in top replaces p's.
func (p *Patterns) merge(top *Patterns) {
	if top.Detection != nil {
		p.Detection = top.Detection
	}
	if top.TypeDescriptions != nil {
		p.TypeDescriptions = top.TypeDescriptions
	}
	if top.CodeDescriptions != nil {
		p.CodeDescriptions = top.CodeDescriptions
	}
}

// CommonPatternsPath returns {scenarios_path}/erreurs/erreurs.yaml.
func CommonPatternsPath(scenariosPath string) string {
	return filepath.Join(scenariosPath, constants.ErrorPatternsDir, constants.ErrorPatternsFile)
}

// SpecificPatternsPath returns {scenarios_path}/config/{name}.yaml.
func SpecificPatternsPath(scenariosPath, name string) string {
	if !strings.HasSuffix(name, ".yaml") {
		name += ".yaml"
	}
	return filepath.Join(scenariosPath, constants.ConfigDir, name)
}

// LoadPatterns reads the common pattern file, then each scenario-specific
// file in order. It returns nil when the common file cannot be loaded:
// without it no detection is attempted. Unusable specific files are skipped.
func LoadPatterns(scenariosPath string, files []string, logger zerolog.Logger) *Patterns {
	common := CommonPatternsPath(scenariosPath)
	patterns, err := loadPatternFile(common)
	if err != nil {
		logger.Warn().Err(err).Msg("common error patterns unavailable, timeout causes will not be detected")
		return nil
	}
	patterns.Files = []string{common}

	loaded := make([]*Patterns, len(files))
	var g errgroup.Group
	g.SetLimit(maxParallelLoads)
	for i, name := range files {
		g.Go(func() error {
			specific, err := loadPatternFile(SpecificPatternsPath(scenariosPath, name))
			if err != nil {
				logger.Warn().Err(err).Str("file", name).Msg("error pattern file skipped")
				return nil
			}
			loaded[i] = specific
			return nil
		})
	}
	_ = g.Wait()

	// Merged in declaration order: later files override earlier ones.
	for i, specific := range loaded {
		if specific == nil {
			continue
		}
		patterns.merge(specific)
		patterns.Files = append(patterns.Files, SpecificPatternsPath(scenariosPath, files[i]))
	}

	logger.Info().Strs("files", patterns.Files).Msg("error patterns loaded")
	return patterns
}

func loadPatternFile(path string) (*Patterns, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is built from the scenarios tree
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", errors.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrConfigUnreadable, path, err)
	}
	var p Patterns
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrConfigMalformed, path, err)
	}
	return &p, nil
}

// compiledPatterns are the regular expressions of Patterns, compiled once.
type compiledPatterns struct {
	codes     []*regexp.Regexp
	messages  []compiledTyped
	selectors []string
}

type compiledTyped struct {
	typ      string
	patterns []*regexp.Regexp
}

// compile builds case-insensitive expressions, dropping invalid ones.
func (p *Patterns) compile(logger zerolog.Logger) compiledPatterns {
	var c compiledPatterns
	if p == nil || p.Detection == nil {
		return c
	}
	for _, expr := range p.Detection.HTTPCodes {
		if re := compileLogged(expr, logger); re != nil {
			c.codes = append(c.codes, re)
		}
	}
	for _, typed := range p.Detection.Messages {
		ct := compiledTyped{typ: typed.Type}
		for _, expr := range typed.Patterns {
			if re := compileLogged(expr, logger); re != nil {
				ct.patterns = append(ct.patterns, re)
			}
		}
		c.messages = append(c.messages, ct)
	}
	c.selectors = p.Detection.Selectors
	return c
}

func compileLogged(expr string, logger zerolog.Logger) *regexp.Regexp {
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		logger.Warn().Err(err).Str("pattern", expr).Msg("invalid error pattern ignored")
		return nil
	}
	return re
}

// typeDescription returns the description of an error type, or "Erreur inconnue".
func (p *Patterns) typeDescription(typ string) string {
	if d, ok := p.TypeDescriptions[typ]; ok {
		return d
	}
	return "Erreur inconnue"
}

// codeDescription returns the description of an HTTP code, or "Code {code}".
func (p *Patterns) codeDescription(code int) string {
	if d, ok := p.CodeDescriptions[code]; ok {
		return d
	}
	return fmt.Sprintf("Code %d", code)
}

// formatCode renders "{type description} ({type}) - {code} {code description}".
func (p *Patterns) formatCode(code int) string {
	typ := codeType(code)
	return fmt.Sprintf("%s (%s) - %d %s", p.typeDescription(typ), typ, code, p.codeDescription(code))
}

func codeType(code int) string {
	switch {
	case code >= 400 && code <= 499:
		return "4xx"
	case code >= 500 && code <= 599:
		return "5xx"
	case code >= 300 && code <= 399:
		return "3xx"
	default:
		return "autre"
	}
}
