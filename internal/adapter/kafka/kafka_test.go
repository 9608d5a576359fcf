package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/hunting-permits-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 30, 0, 0, time.UTC)
	counts := domain.CountValues("País", []string{"Chile", "Chile", "Argentina"})
	report := domain.PageReport{
		Page:         domain.PagePermits,
		RowsLoaded:   5,
		RowsAnalyzed: 3,
		GeneratedAt:  now,
		Sections: []domain.Section{
			{Key: "paises", Kind: domain.SectionCounts, Chart: domain.ChartBar, Counts: &counts},
		},
	}

	msg, err := serializeToMessage(report)
	require.NoError(t, err)

	assert.Equal(t, []byte("permisos"), msg.Key)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "page", msg.Headers[0].Key)
	assert.Equal(t, []byte("permisos"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded domain.PageReport
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, 3, decoded.RowsAnalyzed)
	require.Len(t, decoded.Sections, 1)
	assert.Equal(t, []domain.Count{{Category: "Chile", Count: 2}, {Category: "Argentina", Count: 1}}, decoded.Sections[0].Counts.Rows)
}
