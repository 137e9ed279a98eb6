package scan

import (
	"log/slog"
	"strings"

	"github.com/pdfgrid/pdfgrid/model"
)

// Sink is the shared output accumulator processors extract data into. It is
// owned by the caller of Page; exactly one processor writes to it at a time.
type Sink map[string]any

// Processor builds a chain stage from its upstream step source and the
// shared output sink. The returned source is served to the next stage.
type Processor func(upstream StepSource, sink Sink) StepSource

// NodeFunc is a single-decision handler: given the current state and node
// it reports whether it consumed the node — in which case the node is not
// propagated downstream and its subtree is pruned — and the next state.
type NodeFunc func(state State, node model.Node, sink Sink) (handled bool, next State)

// FuncProcessor adapts a NodeFunc into a processor.
func FuncProcessor(fn NodeFunc) Processor {
	return func(upstream StepSource, sink Sink) StepSource {
		return &funcSource{up: upstream, fn: fn, sink: sink}
	}
}

type funcSource struct {
	up      StepSource
	fn      NodeFunc
	sink    Sink
	started bool
	final   State
}

func (s *funcSource) Next(reply Reply) (Step, bool, error) {
	upReply := reply
	if !s.started {
		s.started = true
		upReply = Reply{}
	}
	for {
		step, ok, err := s.up.Next(upReply)
		if err != nil || !ok {
			s.final = s.up.Final()
			return Step{}, false, err
		}
		handled, next := s.fn(step.State, step.Node, s.sink)
		if handled {
			upReply = Reply{Recurse: RecurseNo, State: next}
			continue
		}
		step.State = next
		return step, true, nil
	}
}

func (s *funcSource) Final() State { return s.final }

// SkipKinds returns a processor blocking propagation and recursion of every
// node whose kind is in the given set.
func SkipKinds(kinds ...model.Kind) Processor {
	set := make(map[model.Kind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return FuncProcessor(func(state State, node model.Node, _ Sink) (bool, State) {
		return node != nil && set[node.Kind()], state
	})
}

// SkipTextPrefix returns a processor blocking propagation and recursion of
// every node whose lowercased text starts with one of the given prefixes.
func SkipTextPrefix(prefixes ...string) Processor {
	return FuncProcessor(func(state State, node model.Node, _ Sink) (bool, State) {
		if node == nil {
			return false, state
		}
		text := model.LowerText(node)
		for _, p := range prefixes {
			if strings.HasPrefix(text, p) {
				return true, state
			}
		}
		return false, state
	})
}

// BaseRecursion returns the processor that should usually sit first in a
// chain: it allows recursion only into text containers (text boxes and text
// lines), while still honoring an explicit "don't recurse" veto coming back
// from downstream stages.
func BaseRecursion() Processor {
	return func(upstream StepSource, _ Sink) StepSource {
		return &baseRecursionSource{up: upstream}
	}
}

type baseRecursionSource struct {
	up      StepSource
	started bool
	last    Step
	final   State
}

func (s *baseRecursionSource) Next(reply Reply) (Step, bool, error) {
	if s.started {
		if reply.Recurse != RecurseNo {
			if s.last.Node != nil && isTextContainer(s.last.Node.Kind()) {
				reply.Recurse = RecurseYes
			} else {
				reply.Recurse = RecurseNo
			}
		}
	} else {
		s.started = true
		reply = Reply{}
	}
	step, ok, err := s.up.Next(reply)
	if err != nil || !ok {
		s.final = s.up.Final()
		return Step{}, false, err
	}
	s.last = step
	return step, true, nil
}

func (s *baseRecursionSource) Final() State { return s.final }

func isTextContainer(k model.Kind) bool {
	return k == model.KindTextBox || k == model.KindTextLine
}

// Debug returns a pass-through processor logging every step it serves. It
// may be inserted anywhere in a chain to see what is happening there.
func Debug(logger *slog.Logger) Processor {
	return func(upstream StepSource, _ Sink) StepSource {
		if logger == nil {
			logger = slog.Default()
		}
		return &debugSource{up: upstream, logger: logger}
	}
}

type debugSource struct {
	up      StepSource
	logger  *slog.Logger
	started bool
	final   State
}

func (s *debugSource) Next(reply Reply) (Step, bool, error) {
	if !s.started {
		s.started = true
		reply = Reply{}
	}
	step, ok, err := s.up.Next(reply)
	if err != nil || !ok {
		s.final = s.up.Final()
		return Step{}, false, err
	}
	if step.Node != nil {
		s.logger.Info("step", "state", string(step.State), "kind", step.Node.Kind().String(),
			"text", model.LowerText(step.Node))
	} else {
		s.logger.Info("step", "state", string(step.State))
	}
	return step, true, nil
}

func (s *debugSource) Final() State { return s.final }

// BaseProcessors returns the stages most chains start with: base recursion
// control plus a filter skipping characters and non-text shapes, so custom
// stages see only container-level nodes.
func BaseProcessors() []Processor {
	return []Processor{
		BaseRecursion(),
		SkipKinds(model.KindChar, model.KindCurve, model.KindFigure,
			model.KindImage, model.KindLine, model.KindRect),
	}
}

// Page runs a processor chain over one decoded page and returns the final
// state. The sink receives whatever the processors extract.
//
// A page holding nothing but a single figure carries no extractable text
// (typically a scanned document); it is skipped with a warning and the
// input state is returned unchanged.
func Page(page *model.Container, processors []Processor, sink Sink, state State, logger *slog.Logger) (State, error) {
	if logger == nil {
		logger = slog.Default()
	}
	kids := page.Children()
	if len(kids) == 1 && kids[0].Kind() == model.KindFigure {
		logger.Warn("skipping figure-only page, is it a scanned document?")
		return state, nil
	}

	var source StepSource = NewEngine(page, state, logger)
	for _, p := range processors {
		source = p(source, sink)
	}

	var reply Reply
	for {
		step, ok, err := source.Next(reply)
		if err != nil {
			return state, err
		}
		if !ok {
			return source.Final(), nil
		}
		reply = Reply{Recurse: RecurseYes, State: step.State}
	}
}
