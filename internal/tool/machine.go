// Package tool models pointer interaction as an explicit state machine,
// independent of any input device or widget toolkit.
//
// The machine is idle between strokes. Pointer-down classifies the
// interaction from the active tool and a hit test, pointer-move updates
// transient state only, and pointer-up (or leave) ends the interaction
// and reports what the caller should commit. No mode transitions happen
// mid-stroke.
package tool

import (
	"mapforge/internal/scene"
	"mapforge/pkg/geometry"
)

// Tool is the active editing tool.
type Tool int

const (
	Pointer Tool = iota
	Rectangle
	Brush
	Eraser
)

func (t Tool) String() string {
	switch t {
	case Pointer:
		return "pointer"
	case Rectangle:
		return "rectangle"
	case Brush:
		return "brush"
	case Eraser:
		return "eraser"
	default:
		return "unknown"
	}
}

// State is the interaction mode.
type State int

const (
	Idle State = iota
	Selecting
	MovingLayer
	Erasing
	Brushing
)

// ResultKind tells the caller what a finished interaction produced.
type ResultKind int

const (
	// ResultNone: nothing to commit.
	ResultNone ResultKind = iota
	// ResultSelection: the selection rectangle was updated; it stays
	// available via Selection until cleared.
	ResultSelection
	// ResultMove: a layer drag ended; commit the final position once.
	ResultMove
	// ResultEraseEnd: an eraser stroke ended; commit the session.
	ResultEraseEnd
	// ResultBrushEnd: a brush stroke ended; the mask accumulates.
	ResultBrushEnd
)

// Result describes the terminal outcome of one interaction.
type Result struct {
	Kind      ResultKind
	LayerID   string
	Selection geometry.Rect
	// Position is the dragged layer's final world position.
	Position geometry.Point2D
}

// Machine is the tool interaction state machine. Not safe for
// concurrent use; it mirrors a single pointer.
type Machine struct {
	tool  Tool
	state State

	// Rectangle tool.
	anchor    geometry.Point2D
	selection *geometry.Rect // world space, survives pointer-up

	// Layer drag.
	layerID    string
	grabOffset geometry.Point2D // pointer-down offset inside the layer

	// Current drag position, valid outside Idle.
	cursor geometry.Point2D
}

// NewMachine starts idle with the pointer tool.
func NewMachine() *Machine {
	return &Machine{tool: Pointer}
}

// Tool returns the active tool.
func (m *Machine) Tool() Tool {
	return m.tool
}

// State returns the current interaction state.
func (m *Machine) State() State {
	return m.state
}

// SetTool switches tools, aborting any interaction in progress and
// clearing the previous tool's transient artifact. It reports whether
// the brush mask must be cleared by the owner of the pixel buffer (the
// machine itself only tracks geometry).
func (m *Machine) SetTool(t Tool) (clearBrushMask bool) {
	if t == m.tool {
		return false
	}
	prev := m.tool
	m.tool = t
	m.state = Idle
	m.selection = nil
	m.layerID = ""
	// At most one transient artifact exists at a time; leaving the
	// brush tool discards the other one.
	return prev == Brush
}

// Selection returns the rectangle-tool selection, or a zero Rect when
// none is active.
func (m *Machine) Selection() (geometry.Rect, bool) {
	if m.selection == nil {
		return geometry.Rect{}, false
	}
	return *m.selection, true
}

// ClearSelection drops the transient selection (after a successful
// generation or an explicit cancel).
func (m *Machine) ClearSelection() {
	m.selection = nil
}

// ActiveLayer returns the id of the layer being moved or erased, if any.
func (m *Machine) ActiveLayer() string {
	return m.layerID
}

// PointerDown begins an interaction at a world-space point. hit is the
// topmost layer under the pointer, or nil. No-op unless idle.
func (m *Machine) PointerDown(p geometry.Point2D, hit *scene.Layer) State {
	if m.state != Idle {
		return m.state
	}
	m.cursor = p

	switch m.tool {
	case Pointer:
		if hit != nil && hit.Movable() {
			m.state = MovingLayer
			m.layerID = hit.ID
			m.grabOffset = p.Sub(hit.Rect.TopLeft())
		}
	case Rectangle:
		m.state = Selecting
		m.anchor = p
		m.selection = &geometry.Rect{X: p.X, Y: p.Y}
	case Brush:
		m.state = Brushing
	case Eraser:
		if hit != nil {
			m.state = Erasing
			m.layerID = hit.ID
		}
	}
	return m.state
}

// PointerMove updates the transient state for the current interaction.
// While idle it does nothing.
func (m *Machine) PointerMove(p geometry.Point2D) {
	if m.state == Idle {
		return
	}
	m.cursor = p
	if m.state == Selecting {
		r := normalizedRect(m.anchor, p)
		m.selection = &r
	}
}

// MovePosition returns where the dragged layer's top-left corner sits
// for the current cursor. Valid only while MovingLayer.
func (m *Machine) MovePosition() geometry.Point2D {
	return m.cursor.Sub(m.grabOffset)
}

// Cursor returns the last pointer position of the interaction.
func (m *Machine) Cursor() geometry.Point2D {
	return m.cursor
}

// PointerUp ends the interaction and returns what to commit. The
// machine always returns to Idle. Pointer-leave is treated the same.
func (m *Machine) PointerUp(p geometry.Point2D) Result {
	if m.state == Idle {
		return Result{}
	}
	m.cursor = p

	var res Result
	switch m.state {
	case Selecting:
		r := normalizedRect(m.anchor, p)
		m.selection = &r
		res = Result{Kind: ResultSelection, Selection: r}
	case MovingLayer:
		res = Result{Kind: ResultMove, LayerID: m.layerID, Position: m.MovePosition()}
		m.layerID = ""
	case Erasing:
		res = Result{Kind: ResultEraseEnd, LayerID: m.layerID}
		m.layerID = ""
	case Brushing:
		res = Result{Kind: ResultBrushEnd}
	}
	m.state = Idle
	return res
}

func normalizedRect(a, b geometry.Point2D) geometry.Rect {
	x1, x2 := a.X, b.X
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	y1, y2 := a.Y, b.Y
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return geometry.NewRect(x1, y1, x2-x1, y2-y1)
}
