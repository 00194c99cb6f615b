package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-dashboard/internal/export"
)

func TestRenderTable(t *testing.T) {
	tbl := export.Table{
		Title: "Budgets 2024-03",
		Meta:  [][2]string{{"Warning", "1"}},
		Sections: []export.Section{
			{
				Header: []string{"Tag", "Spent", "Status"},
				Rows: [][]string{
					{"Food", "4200.00", "warning"},
					{"Entertainment", "12.00", "on_track"},
				},
			},
			{Title: "Assumptions", Header: []string{"Assumption"}},
		},
	}

	out := RenderTable(tbl)
	lines := strings.Split(out, "\n")

	assert.Contains(t, lines[0], "Budgets 2024-03")
	assert.Contains(t, out, "Warning")
	assert.Contains(t, out, "Entertainment")
	assert.Contains(t, out, "(none)")

	var header, food string
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "Tag"):
			header = line
		case strings.HasPrefix(line, "Food"):
			food = line
		}
	}
	require.NotEmpty(t, header)
	require.NotEmpty(t, food)
	assert.Equal(t, strings.Index(header, "Spent"), strings.Index(food, "4200.00"), "columns should align")
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, export.Table{Title: "Savings Goals"}))
	assert.Contains(t, buf.String(), "Savings Goals")
}

func TestStyleStatus(t *testing.T) {
	for _, status := range []string{"on_track", "warning", "exceeded", "critical", "info", "unknown"} {
		assert.Contains(t, StyleStatus(status), status)
	}
}

func TestNewProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, 2, "Importing transactions...")
	require.NoError(t, bar.Add(2))
	assert.True(t, bar.IsFinished())
}

func TestRenderBox(t *testing.T) {
	out := RenderBox("Import Summary", "Inflow: 10.00\nOutflow: 4.50")

	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), 4)
	assert.True(t, strings.HasPrefix(lines[0], "╭"))
	assert.Contains(t, out, "Import Summary")
	assert.Contains(t, out, "Inflow: 10.00")
	assert.Contains(t, out, "Outflow: 4.50")
}
