package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daveytran/playback-stats-staff-payer/internal/domain/entity"
)

func TestSelector_Select(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	selector := NewSelector(logger)

	t.Run("keeps only completed unbilled work", func(t *testing.T) {
		items := []entity.WorkItem{
			{ID: "1", Status: "Done", PaidState: ""},
			{ID: "2", Status: "Done", PaidState: "Paid"},
			{ID: "3", Status: "Done", PaidState: "Invoiced"},
			{ID: "4", Status: "In Progress", PaidState: ""},
			{ID: "5", Status: "Done", PaidState: "pending review"},
			{ID: "6", Status: "", PaidState: ""},
		}

		selected := selector.Select(items)

		ids := make([]string, 0, len(selected))
		for _, item := range selected {
			ids = append(ids, item.ID)
		}
		assert.Equal(t, []string{"1", "5"}, ids)
	})

	t.Run("unknown paid states count as unpaid", func(t *testing.T) {
		items := []entity.WorkItem{
			{ID: "1", Status: "Done", PaidState: "paid"},
			{ID: "2", Status: "Done", PaidState: "INVOICED"},
			{ID: "3", Status: "Done", PaidState: "hold"},
		}

		selected := selector.Select(items)

		// The sentinels are exact strings; any other value still bills.
		assert.Len(t, selected, 3)
	})

	t.Run("trims surrounding whitespace before comparing", func(t *testing.T) {
		items := []entity.WorkItem{
			{ID: "1", Status: " Done ", PaidState: "  "},
			{ID: "2", Status: "Done", PaidState: " Paid "},
			{ID: "3", Status: "done", PaidState: ""},
		}

		selected := selector.Select(items)

		require.Len(t, selected, 1)
		assert.Equal(t, "1", selected[0].ID)
	})

	t.Run("preserves ledger order", func(t *testing.T) {
		items := []entity.WorkItem{
			{ID: "c", Status: "Done"},
			{ID: "a", Status: "Done", PaidState: "Paid"},
			{ID: "b", Status: "Done"},
			{ID: "d", Status: "Done"},
		}

		selected := selector.Select(items)

		ids := make([]string, 0, len(selected))
		for _, item := range selected {
			ids = append(ids, item.ID)
		}
		assert.Equal(t, []string{"c", "b", "d"}, ids)
	})

	t.Run("empty ledger yields empty selection", func(t *testing.T) {
		selected := selector.Select(nil)

		assert.NotNil(t, selected)
		assert.Empty(t, selected)
	})
}
