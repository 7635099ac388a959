package expression

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/expr-lang/expr"

	"github.com/autobrr/seedgc/pkg/config"
	"github.com/autobrr/seedgc/pkg/regex"
)

var (
	// Matches: RegexMatch("pattern"), RegexMatchAny("pattern1, pattern2")
	regexFuncPattern = regexp2.MustCompile(`RegexMatch(?:Any)?\("([^"\\]*(?:\\.[^"\\]*)*)"\)`, regexp2.None)
)

// evalContext is the environment expressions are evaluated against.
type evalContext struct {
	*config.Torrent
	now time.Time
}

// AgeDays is the torrent age in whole days relative to the start of the run.
func (e *evalContext) AgeDays() int {
	if e.Torrent == nil || !e.Torrent.Completed() {
		return 0
	}
	return e.Torrent.AgeDays(e.now)
}

func (e *evalContext) SizeGB() float64 {
	if e.Torrent == nil {
		return 0
	}
	return float64(e.Torrent.TotalBytes) / (1 << 30)
}

func (e *evalContext) RegexMatch(pattern string) bool {
	if e.Torrent == nil {
		return false
	}
	return e.Torrent.RegexMatch(pattern)
}

func (e *evalContext) RegexMatchAny(patternsStr string) bool {
	if e.Torrent == nil {
		return false
	}
	return e.Torrent.RegexMatchAny(patternsStr)
}

func Compile(filter *config.FilterConfiguration) (*Expressions, error) {
	exprEnv := &evalContext{}
	exp := new(Expressions)

	if filter == nil {
		return exp, nil
	}

	// validate all regex patterns in expressions
	patterns, err := patternsFromExpressions(filter.Ignore)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}

	if err := regex.ValidatePatterns(patterns); err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}

	// compile ignores
	for _, ignoreExpr := range filter.Ignore {
		program, err := expr.Compile(ignoreExpr, expr.Env(exprEnv), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile ignore expression: %q: %w", ignoreExpr, err)
		}

		exp.Ignores = append(exp.Ignores, CompiledExpression{Program: program, Text: ignoreExpr})
	}

	return exp, nil
}

func patternsFromExpressions(expressions []string) ([]string, error) {
	var patterns []string

	for _, e := range expressions {
		match, err := regexFuncPattern.FindStringMatch(e)
		if err != nil {
			return nil, fmt.Errorf("invalid regex function: %w", err)
		}

		for match != nil {
			// group 1 contains the pattern(s)
			for _, p := range strings.Split(match.GroupByNumber(1).String(), ",") {
				if p = strings.TrimSpace(p); p != "" {
					patterns = append(patterns, p)
				}
			}

			match, err = regexFuncPattern.FindNextMatch(match)
			if err != nil {
				return nil, fmt.Errorf("invalid regex function: %w", err)
			}
		}
	}

	return patterns, nil
}
