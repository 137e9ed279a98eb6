package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfgrid/pdfgrid/model"
)

func testPage() *model.Container {
	box := model.BBox{X0: 0, Y0: 0, X1: 595, Y1: 842}
	return model.NewPage(box,
		model.NewTextBox(box,
			model.NewTextLine(box, &model.Char{Text: "a"}),
			model.NewTextLine(box, &model.Char{Text: "b"}),
		),
		&model.Shape{K: model.KindRect},
	)
}

// drain pulls every step from source, answering each with the given reply
// builder, and returns the served steps.
func drain(t *testing.T, source StepSource, replyFor func(Step) Reply) []Step {
	t.Helper()
	var steps []Step
	var reply Reply
	for {
		step, ok, err := source.Next(reply)
		require.NoError(t, err)
		if !ok {
			return steps
		}
		steps = append(steps, step)
		reply = replyFor(step)
	}
}

func kinds(steps []Step) []string {
	var out []string
	for _, step := range steps {
		if step.Node == nil {
			out = append(out, "<end>")
			continue
		}
		out = append(out, step.Node.Kind().String())
	}
	return out
}

func TestEngineDepthFirstOrder(t *testing.T) {
	engine := NewEngine(testPage(), "start", nil)
	steps := drain(t, engine, func(step Step) Reply {
		return Reply{Recurse: RecurseYes, State: step.State}
	})

	assert.Equal(t,
		[]string{"textbox", "textline", "char", "textline", "char", "rect", "<end>"},
		kinds(steps))
	for _, step := range steps[:len(steps)-1] {
		assert.Equal(t, State("start"), step.State)
	}
	assert.Equal(t, EndOfPage, steps[len(steps)-1].State)
	assert.Equal(t, State("start"), engine.Final())
}

func TestEngineRecurseVetoPrunesSubtree(t *testing.T) {
	engine := NewEngine(testPage(), "start", nil)
	steps := drain(t, engine, func(step Step) Reply {
		recurse := RecurseYes
		if step.Node != nil && step.Node.Kind() == model.KindTextBox {
			recurse = RecurseNo
		}
		return Reply{Recurse: recurse, State: step.State}
	})

	assert.Equal(t, []string{"textbox", "rect", "<end>"}, kinds(steps))
}

func TestEngineStateThreading(t *testing.T) {
	engine := NewEngine(testPage(), "start", nil)
	var seen []State
	steps := drain(t, engine, func(step Step) Reply {
		seen = append(seen, step.State)
		if step.Node != nil && step.Node.Kind() == model.KindChar {
			return Reply{Recurse: RecurseYes, State: "in_body"}
		}
		return Reply{Recurse: RecurseYes, State: step.State}
	})

	// the state set when replying to the first char travels with every
	// following step
	require.Equal(t, 7, len(steps))
	assert.Equal(t,
		[]State{"start", "start", "start", "in_body", "in_body", "in_body", EndOfPage},
		seen)
}

func TestEngineFinalStateRestoredAtEndOfPage(t *testing.T) {
	run := func(sentinelReply State) State {
		engine := NewEngine(testPage(), "start", nil)
		drain(t, engine, func(step Step) Reply {
			if step.Node == nil {
				return Reply{State: sentinelReply}
			}
			return Reply{Recurse: RecurseYes, State: "body"}
		})
		return engine.Final()
	}

	// echoing the sentinel state (or replying nothing) restores the
	// state current just before the end of page
	assert.Equal(t, State("body"), run(EndOfPage))
	assert.Equal(t, State("body"), run(""))
	// an explicit reply takes over
	assert.Equal(t, State("done"), run("done"))
}

func TestEngineEmptyPage(t *testing.T) {
	page := model.NewPage(model.BBox{})
	engine := NewEngine(page, "start", nil)
	steps := drain(t, engine, func(step Step) Reply {
		return Reply{State: step.State}
	})

	assert.Equal(t, []string{"<end>"}, kinds(steps))
	assert.Equal(t, State("start"), engine.Final())
}
