// Package scan drives data extraction over a decoded page tree through a
// chain of stateful processors.
//
// At the top of the chain sits the Engine, which walks the tree depth-first
// and emits (state, node) steps. Each processor both consumes steps from its
// upstream source and serves steps to its downstream consumer; the reply it
// receives for a step — whether to recurse into the node's children and the
// next application state — is forwarded upstream, transformed if desired:
//
//	engine --[state, node]--> processor 1 --[state, node]--> processor 2
//	      <--[recurse, state]--          <--[recurse, state]--
//
// Once all the nodes of a page have been served, one terminal step carrying
// the EndOfPage state and no node is emitted, so processors holding per-page
// accumulators can flush them.
package scan

import (
	"log/slog"

	"github.com/pdfgrid/pdfgrid/model"
)

// State is the application state threaded through the processor chain
// alongside each visited node. The empty string means "no state".
type State string

// EndOfPage is the state of the terminal step emitted after all nodes of a
// page have been served. The step carries no node; if no processor replies
// with a different state, the state current just before the sentinel is
// restored as the page's final state.
const EndOfPage State = "end_of_page"

// Step is one (state, node) pair served by a step source. The terminal step
// has State == EndOfPage and a nil Node.
type Step struct {
	State State
	Node  model.Node
}

// Recurse is a processor's tri-state recursion decision for a step.
type Recurse int

const (
	// RecurseDefault leaves the decision to upstream stages; the engine
	// treats it as RecurseYes.
	RecurseDefault Recurse = iota
	// RecurseYes descends into the node's children.
	RecurseYes
	// RecurseNo prunes the node's subtree.
	RecurseNo
)

// Reply is the consumer's answer to a step: whether to recurse into the
// node's children and the state to carry forward.
type Reply struct {
	Recurse Recurse
	State   State
}

// StepSource produces (state, node) steps one at a time.
//
// Next returns the next step; the reply argument answers the previously
// returned step and is ignored on the first call. Next returns ok == false
// once the source is exhausted, after which Final returns the source's
// final state. A non-nil error is fatal for the current page.
type StepSource interface {
	Next(reply Reply) (step Step, ok bool, err error)
	Final() State
}

// Engine walks a page tree in pre-order depth-first order, serving one step
// per node. It owns the traversal stack exclusively; consumers control it
// only through replies.
type Engine struct {
	stack  []model.Node
	state  State
	logger *slog.Logger

	started  bool
	sentinel bool // terminal step has been served
	done     bool
	prev     State // state just before the terminal step
	final    State
	pending  model.Node // node of the last served step
}

// NewEngine creates an engine over the children of root, starting from the
// given initial state. The logger records state transitions at debug level.
func NewEngine(root model.Parent, initial State, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	kids := root.Children()
	stack := make([]model.Node, len(kids))
	for i, kid := range kids {
		stack[len(kids)-1-i] = kid
	}
	return &Engine{stack: stack, state: initial, logger: logger}
}

// Next implements StepSource.
func (e *Engine) Next(reply Reply) (Step, bool, error) {
	if e.done {
		return Step{}, false, nil
	}

	if e.sentinel {
		// reply answers the terminal step
		if reply.State == "" || reply.State == EndOfPage {
			e.final = e.prev
		} else {
			e.final = reply.State
		}
		e.done = true
		return Step{}, false, nil
	}

	if e.started {
		if reply.Recurse != RecurseNo {
			if parent, ok := e.pending.(model.Parent); ok {
				kids := parent.Children()
				for i := len(kids) - 1; i >= 0; i-- {
					e.stack = append(e.stack, kids[i])
				}
			}
		}
		if reply.State != e.state {
			e.logger.Debug("state change", "from", string(e.state), "to", string(reply.State))
			e.state = reply.State
		}
	}
	e.started = true

	if len(e.stack) == 0 {
		e.sentinel = true
		e.prev = e.state
		e.pending = nil
		return Step{State: EndOfPage}, true, nil
	}

	node := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	e.pending = node
	return Step{State: e.state, Node: node}, true, nil
}

// Final implements StepSource. It is meaningful only after Next has
// returned ok == false.
func (e *Engine) Final() State {
	return e.final
}
