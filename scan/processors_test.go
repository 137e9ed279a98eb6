package scan

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfgrid/pdfgrid/model"
)

func textLine(text string, box model.BBox) *model.Container {
	var kids []model.Node
	for _, word := range strings.Split(text, " ") {
		if len(kids) > 0 {
			kids = append(kids, &model.Anno{Text: " "})
		}
		kids = append(kids, &model.Char{Text: word, Box: box})
	}
	return model.NewTextLine(box, kids...)
}

func TestFuncProcessorConsumesHandledNodes(t *testing.T) {
	box := model.BBox{X0: 0, Y0: 0, X1: 595, Y1: 842}
	page := model.NewPage(box,
		model.NewTextBox(box,
			textLine("customer reference", box),
			textLine("something else", box),
		),
	)

	handled := FuncProcessor(func(state State, node model.Node, sink Sink) (bool, State) {
		if node != nil && strings.HasPrefix(model.LowerText(node), "customer") {
			sink["reference"] = model.LowerText(node)
			return true, "after_reference"
		}
		return false, state
	})

	sink := Sink{}
	final, err := Page(page, append(BaseProcessors(), handled), sink, "start", nil)
	require.NoError(t, err)

	assert.Equal(t, State("after_reference"), final)
	assert.Equal(t, "customer reference", sink["reference"])
}

func TestSkipKinds(t *testing.T) {
	box := model.BBox{X0: 0, Y0: 0, X1: 595, Y1: 842}
	page := model.NewPage(box,
		&model.Shape{K: model.KindRect, Box: box},
		textLine("kept", box),
	)

	var texts []string
	record := FuncProcessor(func(state State, node model.Node, _ Sink) (bool, State) {
		if node != nil {
			texts = append(texts, node.Kind().String()+":"+model.LowerText(node))
		}
		return false, state
	})

	processors := []Processor{BaseRecursion(), SkipKinds(model.KindChar, model.KindRect), record}
	_, err := Page(page, processors, Sink{}, "start", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"textline:kept"}, texts)
}

func TestSkipTextPrefix(t *testing.T) {
	box := model.BBox{X0: 0, Y0: 0, X1: 595, Y1: 842}
	page := model.NewPage(box,
		textLine("page 1 / 2", box),
		textLine("Invoice total", box),
	)

	var texts []string
	record := FuncProcessor(func(state State, node model.Node, _ Sink) (bool, State) {
		if node != nil && node.Kind() == model.KindTextLine {
			texts = append(texts, model.LowerText(node))
		}
		return false, state
	})

	processors := append(BaseProcessors(), SkipTextPrefix("page "), record)
	_, err := Page(page, processors, Sink{}, "start", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"invoice total"}, texts)
}

func TestBaseRecursionLimitsDescentToTextContainers(t *testing.T) {
	box := model.BBox{X0: 0, Y0: 0, X1: 595, Y1: 842}
	page := model.NewPage(box,
		model.NewFigure(box, textLine("inside figure", box)),
		model.NewTextBox(box, textLine("inside box", box)),
	)

	engine := NewEngine(page, "start", nil)
	source := BaseRecursion()(engine, nil)
	steps := drain(t, source, func(step Step) Reply {
		// downstream always asks for recursion; base recursion only
		// grants it for text containers
		return Reply{Recurse: RecurseYes, State: step.State}
	})

	assert.Equal(t, []string{"figure", "textbox", "textline", "char", "anno", "char", "<end>"}, kinds(steps))
}

func TestPageSkipsFigureOnlyPage(t *testing.T) {
	box := model.BBox{X0: 0, Y0: 0, X1: 595, Y1: 842}
	page := model.NewPage(box, model.NewFigure(box, &model.Shape{K: model.KindImage, Box: box}))

	called := false
	record := FuncProcessor(func(state State, node model.Node, _ Sink) (bool, State) {
		called = true
		return false, state
	})

	final, err := Page(page, append(BaseProcessors(), record), Sink{}, "start", nil)
	require.NoError(t, err)
	assert.Equal(t, State("start"), final)
	assert.False(t, called)
}

func TestDebugLogsSteps(t *testing.T) {
	box := model.BBox{X0: 0, Y0: 0, X1: 595, Y1: 842}
	page := model.NewPage(box, textLine("hello", box))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	_, err := Page(page, append(BaseProcessors(), Debug(logger)), Sink{}, "start", nil)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "kind=textline")
	assert.Contains(t, out, "text=hello")
	assert.Contains(t, out, "state=start")
}

func TestDebugNilLoggerDefaults(t *testing.T) {
	box := model.BBox{X0: 0, Y0: 0, X1: 595, Y1: 842}
	page := model.NewPage(box, textLine("hello", box))

	final, err := Page(page, append(BaseProcessors(), Debug(nil)), Sink{}, "start", nil)
	require.NoError(t, err)
	assert.Equal(t, State("start"), final)
}

func TestPageChainsStateAcrossProcessors(t *testing.T) {
	box := model.BBox{X0: 0, Y0: 0, X1: 595, Y1: 842}
	page := model.NewPage(box,
		model.NewTextBox(box,
			textLine("section one", box),
			textLine("value 42", box),
		),
	)

	sections := FuncProcessor(func(state State, node model.Node, _ Sink) (bool, State) {
		if node != nil && strings.HasPrefix(model.LowerText(node), "section") {
			return true, "in_section"
		}
		return false, state
	})
	values := FuncProcessor(func(state State, node model.Node, sink Sink) (bool, State) {
		if state == "in_section" && node != nil && strings.HasPrefix(model.LowerText(node), "value") {
			sink["value"] = model.LowerText(node)
			return true, "done"
		}
		return false, state
	})

	sink := Sink{}
	final, err := Page(page, append(BaseProcessors(), sections, values), sink, "start", nil)
	require.NoError(t, err)

	assert.Equal(t, State("done"), final)
	assert.Equal(t, "value 42", sink["value"])
}
