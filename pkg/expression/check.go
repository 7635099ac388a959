package expression

import (
	"fmt"
	"time"

	"github.com/expr-lang/expr"

	"github.com/autobrr/seedgc/pkg/config"
)

// ShouldIgnore reports whether any ignore expression matches the torrent,
// along with the text of the matching expression.
func (e *Expressions) ShouldIgnore(t *config.Torrent, now time.Time) (bool, string, error) {
	if e == nil {
		return false, "", nil
	}

	return CheckTorrentSingleMatchWithReason(t, now, e.Ignores)
}

func CheckTorrentSingleMatchWithReason(t *config.Torrent, now time.Time, expressions []CompiledExpression) (bool, string, error) {
	env := &evalContext{Torrent: t, now: now}

	for _, expression := range expressions {
		result, err := expr.Run(expression.Program, env)
		if err != nil {
			return false, "", fmt.Errorf("check expression: %q: %w", expression.Text, err)
		}

		expResult, ok := result.(bool)
		if !ok {
			return false, "", fmt.Errorf("type assert expression result: %q returned %T", expression.Text, result)
		}

		if expResult {
			return true, expression.Text, nil
		}
	}

	return false, "", nil
}
