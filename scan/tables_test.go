package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfgrid/pdfgrid/model"
)

func tableChar(text string, x0, x1, y0 float64) *model.Char {
	return &model.Char{
		Text: text,
		Box:  model.BBox{X0: x0, Y0: y0, X1: x1, Y1: y0 + 8},
		Font: "helvetica",
		Size: 8,
	}
}

func tablePage() *model.Container {
	box := model.BBox{X0: 0, Y0: 0, X1: 595, Y1: 842}
	header := model.NewTextLine(model.BBox{X0: 50, Y0: 700, X1: 200, Y1: 708},
		tableChar("Détail des consommations", 50, 200, 700),
		&model.Anno{Text: "\n"},
	)
	labels := model.NewTextLine(model.BBox{X0: 50, Y0: 650, X1: 219, Y1: 658},
		tableChar("total", 50, 80, 650),
		&model.Anno{Text: " "},
		tableChar("du", 200, 210, 650),
		&model.Anno{Text: " "},
		tableChar("mois", 211, 219, 650),
		&model.Anno{Text: "\n"},
	)
	amount := model.NewTextLine(model.BBox{X0: 400, Y0: 647, X1: 440, Y1: 655},
		tableChar("1 000,00", 400, 440, 647),
		&model.Anno{Text: "\n"},
	)
	return model.NewPage(box, model.NewTextBox(box, header, labels, amount))
}

func TestCollectTables(t *testing.T) {
	var gotState State
	var gotData TableData
	collector := CollectTables(TablesConfig{
		TriggerStates: []State{"body"},
		TriggerPrefix: "détail",
		OnCollectEnd: func(state State, sink Sink, data TableData) (State, error) {
			gotState = state
			gotData = data
			return "done", nil
		},
	})

	final, err := Page(tablePage(), append(BaseProcessors(), collector), Sink{}, "body", nil)
	require.NoError(t, err)

	assert.Equal(t, State("done"), final)
	assert.Equal(t, State("body"), gotState)
	assert.Equal(t, TableData{
		700: {CellKey{X0: 50, X1: 200}: "détail des consommations"},
		650: {
			CellKey{X0: 50, X1: 80}:  "total",
			CellKey{X0: 80, X1: 219}: "du mois",
		},
		647: {CellKey{X0: 400, X1: 440}: "1 000,00"},
	}, gotData)
}

func TestCollectTablesLeadingWordBreak(t *testing.T) {
	box := model.BBox{X0: 0, Y0: 0, X1: 595, Y1: 842}
	header := model.NewTextLine(model.BBox{X0: 50, Y0: 700, X1: 200, Y1: 708},
		tableChar("détail", 50, 90, 700),
		&model.Anno{Text: "\n"},
	)
	// a literal leading space decodes as a word break in front of the
	// first glyph
	padded := model.NewTextLine(model.BBox{X0: 48, Y0: 650, X1: 80, Y1: 658},
		&model.Anno{Text: " "},
		tableChar("total", 50, 80, 650),
		&model.Anno{Text: "\n"},
	)
	page := model.NewPage(box, model.NewTextBox(box, header, padded))

	var gotData TableData
	collector := CollectTables(TablesConfig{
		TriggerStates: []State{"body"},
		TriggerPrefix: "détail",
		OnCollectEnd: func(state State, sink Sink, data TableData) (State, error) {
			gotData = data
			return "", nil
		},
	})

	_, err := Page(page, append(BaseProcessors(), collector), Sink{}, "body", nil)
	require.NoError(t, err)

	assert.Equal(t, TableData{
		700: {CellKey{X0: 50, X1: 90}: "détail"},
		650: {CellKey{X0: 50, X1: 80}: "total"},
	}, gotData)
}

func TestCollectTablesNotTriggered(t *testing.T) {
	called := false
	collector := CollectTables(TablesConfig{
		TriggerStates: []State{"never_reached"},
		TriggerPrefix: "détail",
		OnCollectEnd: func(State, Sink, TableData) (State, error) {
			called = true
			return "", nil
		},
	})

	final, err := Page(tablePage(), append(BaseProcessors(), collector), Sink{}, "body", nil)
	require.NoError(t, err)
	assert.Equal(t, State("body"), final)
	assert.False(t, called)
}

func TestCollectTablesUnexpectedNode(t *testing.T) {
	box := model.BBox{X0: 0, Y0: 0, X1: 595, Y1: 842}
	line := model.NewTextLine(model.BBox{X0: 50, Y0: 700, X1: 200, Y1: 708},
		tableChar("détail", 50, 90, 700),
		&model.Shape{K: model.KindRect, Box: model.BBox{X0: 90, Y0: 700, X1: 100, Y1: 708}},
	)
	page := model.NewPage(box, model.NewTextBox(box, line))

	collector := CollectTables(TablesConfig{
		TriggerStates: []State{"body"},
		TriggerPrefix: "détail",
		OnCollectEnd: func(State, Sink, TableData) (State, error) {
			return "", nil
		},
	})

	_, err := Page(page, append(BaseProcessors(), collector), Sink{}, "body", nil)
	require.Error(t, err)
	var unexpected *model.UnexpectedNodeError
	assert.ErrorAs(t, err, &unexpected)
}

func TestRegroupLines(t *testing.T) {
	data := TableData{
		700: {CellKey{X0: 50, X1: 200}: "header"},
		650: {CellKey{X0: 50, X1: 80}: "total"},
		647: {CellKey{X0: 400, X1: 440}: "1 000,00"},
	}

	rows := RegroupLines(data, 0)
	require.Len(t, rows, 2)

	assert.Equal(t, 700.0, rows[0].Y)
	assert.Equal(t, map[CellKey]string{{X0: 50, X1: 200}: "header"}, rows[0].Cells)

	// 647 is close enough below 650 to belong to the same visual row
	assert.Equal(t, 650.0, rows[1].Y)
	assert.Equal(t, map[CellKey]string{
		{X0: 50, X1: 80}:   "total",
		{X0: 400, X1: 440}: "1 000,00",
	}, rows[1].Cells)
}

func TestRegroupWrappedHeaders(t *testing.T) {
	rows := []Row{
		{Y: 700, Cells: map[CellKey]string{
			{X0: 50, X1: 120}:  "customer",
			{X0: 400, X1: 440}: "12,00",
		}},
		// single left-aligned cell close below: a wrapped header
		{Y: 690, Cells: map[CellKey]string{{X0: 50, X1: 100}: "name"}},
		{Y: 600, Cells: map[CellKey]string{{X0: 50, X1: 90}: "other"}},
	}

	out := RegroupWrappedHeaders(rows, nil, 0)
	require.Len(t, out, 2)
	assert.Equal(t, "customer name", out[0].Cells[CellKey{X0: 50, X1: 120}])
	assert.Equal(t, map[CellKey]string{{X0: 50, X1: 90}: "other"}, out[1].Cells)
}

func TestRegroupWrappedHeadersSkipTokens(t *testing.T) {
	rows := []Row{
		{Y: 700, Cells: map[CellKey]string{
			{X0: 50, X1: 120}:  "customer",
			{X0: 400, X1: 440}: "12,00",
		}},
		{Y: 690, Cells: map[CellKey]string{{X0: 50, X1: 100}: "total"}},
	}

	out := RegroupWrappedHeaders(rows, map[string]bool{"total": true}, 0)
	require.Len(t, out, 2)
	assert.Equal(t, "customer", out[0].Cells[CellKey{X0: 50, X1: 120}])
}

func TestColumns(t *testing.T) {
	rows := []Row{
		{Y: 700, Cells: map[CellKey]string{
			{X0: 400, X1: 440}: "12,00",
			{X0: 50, X1: 120}:  "customer",
			{X0: 200, X1: 240}: "kwh",
		}},
		{Y: 600, Cells: map[CellKey]string{{X0: 50, X1: 90}: "other"}},
	}

	assert.Equal(t, [][]string{
		{"customer", "kwh", "12,00"},
		{"other"},
	}, Columns(rows))
}
