package css

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into rule sets.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a RuleSet. It never fails: blocks which cannot
// be interpreted are skipped and reported through RuleSet.Warnings. Rules
// with the same selector are merged, later declarations win.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(text string, source ...string) *RuleSet {
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(text)))
	}
	rs := NewRuleSet()
	p.parseInto(rs, stripComments(text))
	for _, w := range rs.warnings {
		p.log.Debug("CSS block skipped", zap.Error(w))
	}
	return rs
}

// Format parses stylesheet and prints it back in canonical layout. Unlike
// RuleSet.Serialize, importance of declarations is preserved.
func (p *Parser) Format(text string) string {
	return p.Parse(text).Pretty()
}

func (p *Parser) parseInto(rs *RuleSet, text string) {
	for _, c := range splitBlocks(text) {
		if c.err != nil {
			rs.warnings = append(rs.warnings, c.err)
			continue
		}
		switch {
		case c.statement:
			rs.rules = append(rs.rules, Rule{Selector: c.prelude + ";", Statement: true})

		case strings.HasPrefix(c.prelude, "@"):
			r := Rule{Selector: c.prelude}
			if hasBlock(c.body) {
				r.Nested = NewRuleSet()
				p.parseInto(r.Nested, c.body)
				rs.warnings = append(rs.warnings, r.Nested.warnings...)
				r.Nested.warnings = nil
			} else {
				decls, err := p.parseDeclarationList(c.body)
				if err != nil {
					rs.warnings = append(rs.warnings, skipped(c.prelude, err))
					continue
				}
				r.merge(decls)
			}
			rs.rules = append(rs.rules, r)

		default:
			selector, decls, err := p.parseRuleset(c)
			if err != nil {
				rs.warnings = append(rs.warnings, skipped(c.prelude, err))
				continue
			}
			if len(decls) == 0 {
				rs.warnings = append(rs.warnings, skipped(selector, errors.New("no declarations")))
				continue
			}
			if i := rs.index(selector); i >= 0 {
				rs.rules[i].merge(decls)
				continue
			}
			r := Rule{Selector: selector}
			r.merge(decls)
			rs.rules = append(rs.rules, r)
		}
	}
}

// parseRuleset parses single "selector { declarations }" block. Tokenizer
// validates the block, selector and values are taken from source text
// because tokens lose whitespace around combinators and commas.
func (p *Parser) parseRuleset(b block) (string, []Declaration, error) {
	parser := css.NewParser(parse.NewInputString(b.text), false)

	var (
		selector = b.prelude
		raw      = &rawValues{decls: splitDeclarations(b.body)}
		decls    []Declaration
		begun    bool
	)
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				return "", nil, err
			}
			if !begun {
				return "", nil, errors.New("not a rule block")
			}
			return selector, decls, nil

		case css.CommentGrammar:
			continue

		case css.BeginRulesetGrammar:
			if begun {
				return "", nil, errors.New("unexpected nested block")
			}
			begun = true
			if strings.Trim(joinTokens(data, parser.Values()), "{ ") == "" || selector == "" {
				return "", nil, errors.New("empty selector")
			}

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			if d, ok := makeDeclaration(gt, data, parser.Values(), raw); ok {
				decls = append(decls, d)
			}

		case css.EndRulesetGrammar:
			return selector, decls, nil

		case css.TokenGrammar:
			if len(strings.TrimSpace(string(data))) == 0 {
				continue
			}
			return "", nil, fmt.Errorf("unexpected token %q", data)

		default:
			return "", nil, fmt.Errorf("unexpected %s", gt)
		}
	}
}

// parseDeclarationList parses body of declaration at-rules (@font-face,
// @page) the same way style attributes are parsed.
func (p *Parser) parseDeclarationList(text string) ([]Declaration, error) {
	parser := css.NewParser(parse.NewInputString(text), true)
	raw := &rawValues{decls: splitDeclarations(text)}

	var decls []Declaration
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			return decls, nil
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			if d, ok := makeDeclaration(gt, data, parser.Values(), raw); ok {
				decls = append(decls, d)
			}
		case css.CommentGrammar:
		default:
			return nil, fmt.Errorf("unexpected %s", gt)
		}
	}
}

var reImportant = regexp.MustCompile(`(?i)\s*!\s*important\s*$`)

func makeDeclaration(gt css.GrammarType, data []byte, values []css.Token, raw *rawValues) (Declaration, bool) {
	custom := gt == css.CustomPropertyGrammar
	prop := strings.TrimSpace(string(data))
	if !custom {
		// custom properties are case sensitive
		prop = strings.ToLower(prop)
	}
	value, ok := raw.take(prop, custom)
	if !ok {
		value = joinTokens(nil, values)
	}
	d := Declaration{Property: prop, Value: value}
	if loc := reImportant.FindStringIndex(value); loc != nil {
		d.Important = true
		d.Value = strings.TrimSpace(value[:loc[0]])
	}
	if d.Property == "" || d.Value == "" {
		return Declaration{}, false
	}
	return d, true
}

// joinTokens rebuilds text from tokens, any whitespace run becomes single
// space and the result is trimmed.
func joinTokens(data []byte, tokens []css.Token) string {
	var sb strings.Builder
	sb.Write(data)
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			sb.WriteByte(' ')
			continue
		}
		sb.Write(t.Data)
	}
	return collapseSpace(sb.String())
}

// rawValues hands out declaration values as written in the source, in
// order, so that "Arial, sans-serif" keeps its spacing.
type rawValues struct {
	decls []rawDeclaration
	next  int
}

func (r *rawValues) take(prop string, custom bool) (string, bool) {
	if r == nil {
		return "", false
	}
	for i := r.next; i < len(r.decls); i++ {
		name := r.decls[i].property
		if !custom {
			name = strings.ToLower(name)
		}
		if name == prop {
			r.next = i + 1
			return r.decls[i].value, true
		}
	}
	return "", false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func skipped(what string, err error) error {
	if what == "" {
		return fmt.Errorf("%w: %w", ErrParseSkipped, err)
	}
	return fmt.Errorf("%w: %q: %w", ErrParseSkipped, what, err)
}
