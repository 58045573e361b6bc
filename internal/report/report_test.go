package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/internal/engine"
)

func TestRenderEquity(t *testing.T) {
	t.Run("Empty Input Errors", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Error(t, RenderEquity(&buf, nil))
	})

	t.Run("Renders All Series", func(t *testing.T) {
		base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
		snapshots := []engine.Snapshot{
			{Timestamp: base, Balance: 10000, Equity: 10000, MarginLevel: 100},
			{Timestamp: base.Add(time.Minute), Balance: 10000, Equity: 10120, MarginLevel: 240},
			{Timestamp: base.Add(2 * time.Minute), Balance: 10050, Equity: 10050, MarginLevel: 100},
		}

		var buf bytes.Buffer
		require.NoError(t, RenderEquity(&buf, snapshots))
		html := buf.String()
		assert.Contains(t, html, "Account Equity Curve")
		assert.Contains(t, html, "Equity")
		assert.Contains(t, html, "Balance")
		assert.Contains(t, html, "Margin Level %")
	})
}
