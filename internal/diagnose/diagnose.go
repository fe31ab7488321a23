// Package diagnose turns a failed step into the comment stored in the
// execution report.
//
// Timeouts get special treatment: the page left on screen is searched for
// known application errors (HTTP codes, error messages, error elements)
// described by YAML pattern files, so that a timeout caused by a server
// error is reported as such.
package diagnose

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// maxCauses bounds the number of causes collected on one page.
const maxCauses = 2

// Page is what the diagnoser inspects after a failure.
type Page interface {
	Content(ctx context.Context) (string, error)
}

// ElementReader is implemented by pages able to return the visible text of
// the elements matching a selector.
type ElementReader interface {
	ElementTexts(ctx context.Context, selector string) ([]string, error)
}

// FrameLister is implemented by pages with embedded frames.
type FrameLister interface {
	Frames() []Page
}

// StaticPage is a Page whose content is known in advance, such as an HTTP
// response body.
type StaticPage string

// Content implements Page.
func (p StaticPage) Content(context.Context) (string, error) {
	return string(p), nil
}

// Diagnoser builds step failure comments. Patterns are loaded on the
// first timeout only.
type Diagnoser struct {
	load   func() *Patterns
	logger zerolog.Logger

	once     sync.Once
	patterns *Patterns
	compiled compiledPatterns
}

// New creates a Diagnoser reading its patterns below scenariosPath.
// files are the scenario-specific pattern files (fichiers_erreurs).
func New(scenariosPath string, files []string, logger zerolog.Logger) *Diagnoser {
	logger = logger.With().Str("component", "diagnose").Logger()
	return &Diagnoser{
		load:   func() *Patterns { return LoadPatterns(scenariosPath, files, logger) },
		logger: logger,
	}
}

// NewWithPatterns creates a Diagnoser using already loaded patterns, or
// none when p is nil.
func NewWithPatterns(p *Patterns, logger zerolog.Logger) *Diagnoser {
	return &Diagnoser{
		load:   func() *Patterns { return p },
		logger: logger.With().Str("component", "diagnose").Logger(),
	}
}

func (d *Diagnoser) ensureLoaded() {
	d.once.Do(func() {
		d.patterns = d.load()
		d.compiled = d.patterns.compile(d.logger)
	})
}

// Comment returns "KO - Etape {order} {stepName} : {detail}" for a step
// that failed with err while on page. page may be nil.
func (d *Diagnoser) Comment(ctx context.Context, order int, stepName, url string, err error, page Page) string {
	base := fmt.Sprintf("KO - Etape %d %s", order, stepName)
	message := ""
	if err != nil {
		message = err.Error()
	}

	if !IsTimeout(message) {
		return fmt.Sprintf("%s : %s", base, CleanError(message, url))
	}

	d.ensureLoaded()
	cleaned := CleanTimeout(message)
	if d.patterns == nil {
		return fmt.Sprintf("%s : %s (Aucun fichier d'erreur disponible)", base, cleaned)
	}

	cause, verr := d.FindCause(ctx, page)
	switch {
	case verr != nil:
		d.logger.Error().Err(verr).Str("step_name", stepName).Msg("timeout cause lookup failed")
		return fmt.Sprintf("%s : %s (Erreur vérification)", base, cleaned)
	case cause != "":
		return fmt.Sprintf("%s : Timeout dû à une erreur - %s", base, cause)
	default:
		return fmt.Sprintf("%s : %s", base, cleaned)
	}
}

// FindCause searches page and its frames for a known application error and
// returns the first one found, or "" when none matches. An error is
// returned only when the main page content cannot be read.
func (d *Diagnoser) FindCause(ctx context.Context, page Page) (cause string, err error) {
	d.ensureLoaded()
	if d.patterns == nil || page == nil {
		return "", nil
	}

	defer func() {
		if r := recover(); r != nil {
			cause, err = "", fmt.Errorf("panic during error detection: %v", r)
		}
	}()

	content, err := page.Content(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	causes := d.search(ctx, page, content)

	if fl, ok := page.(FrameLister); ok {
		for _, frame := range fl.Frames() {
			fc, ferr := frame.Content(ctx)
			if ferr != nil {
				d.logger.Debug().Err(ferr).Msg("frame skipped")
				continue
			}
			causes = append(causes, d.search(ctx, frame, fc)...)
		}
	}

	if len(causes) == 0 {
		return "", nil
	}
	return causes[0], nil
}

// search applies the pattern sets to one page or frame: HTTP codes first,
// generic messages only when no code matched, then error elements.
func (d *Diagnoser) search(ctx context.Context, page Page, content string) []string {
	lower := strings.ToLower(content)
	causes := d.searchCodes(lower)
	if len(causes) == 0 {
		causes = append(causes, d.searchMessages(lower)...)
	}
	causes = append(causes, d.searchElements(ctx, page)...)
	if len(causes) > maxCauses {
		causes = causes[:maxCauses]
	}
	return causes
}

func (d *Diagnoser) searchCodes(content string) []string {
	var out []string
	for _, re := range d.compiled.codes {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			if len(m) < 2 {
				continue
			}
			code, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			out = append(out, d.patterns.formatCode(code))
			if len(out) >= maxCauses {
				return out
			}
		}
	}
	return out
}

func (d *Diagnoser) searchMessages(content string) []string {
	for _, typed := range d.compiled.messages {
		for _, re := range typed.patterns {
			if !re.MatchString(content) {
				continue
			}
			desc := d.patterns.typeDescription(typed.typ)
			if typed.typ == "4xx" || typed.typ == "5xx" {
				return []string{fmt.Sprintf("%s (%s) détectée", desc, typed.typ)}
			}
			return []string{desc + " détectée"}
		}
	}
	return nil
}

//nolint:gochecknoglobals // compiled once
var elementCode = regexp.MustCompile(`([45]\d{2})`)

func (d *Diagnoser) searchElements(ctx context.Context, page Page) []string {
	reader, ok := page.(ElementReader)
	if !ok {
		return nil
	}
	for _, selector := range d.compiled.selectors {
		texts, err := reader.ElementTexts(ctx, selector)
		if err != nil {
			d.logger.Debug().Err(err).Str("selector", selector).Msg("selector skipped")
			continue
		}
		for _, text := range texts {
			m := elementCode.FindStringSubmatch(strings.TrimSpace(text))
			if m == nil {
				continue
			}
			code, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			return []string{d.patterns.formatCode(code)}
		}
	}
	return nil
}
