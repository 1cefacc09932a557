package screen

import tea "github.com/charmbracelet/bubbletea"

// Manager keeps the stack of open overlays. Only the top one receives keys.
type Manager struct {
	current Screen
	stack   []Screen
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// Push opens s on top of the current screen.
func (m *Manager) Push(s Screen) {
	if s == nil {
		return
	}
	if m.current != nil {
		m.stack = append(m.stack, m.current)
	}
	m.current = s
}

// Pop closes the current screen and returns it.
func (m *Manager) Pop() Screen {
	removed := m.current
	if len(m.stack) > 0 {
		m.current = m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
	} else {
		m.current = nil
	}
	return removed
}

// Current returns the top screen, or nil.
func (m *Manager) Current() Screen {
	return m.current
}

// IsActive reports whether an overlay is open.
func (m *Manager) IsActive() bool {
	return m.current != nil
}

// Type returns the type of the top screen.
func (m *Manager) Type() Type {
	if m.current == nil {
		return TypeNone
	}
	return m.current.Type()
}

// Clear closes every screen.
func (m *Manager) Clear() {
	m.current = nil
	m.stack = m.stack[:0]
}

// StackDepth returns the number of screens below the current one.
func (m *Manager) StackDepth() int {
	return len(m.stack)
}

// Update forwards msg to the top screen. A screen returning nil is closed;
// screens pushed by its callbacks in the meantime stay open.
func (m *Manager) Update(msg tea.KeyMsg) tea.Cmd {
	before := m.current
	if before == nil {
		return nil
	}
	next, cmd := before.Update(msg)
	if m.current != before {
		if next == nil {
			m.remove(before)
		}
		return cmd
	}
	if next == nil {
		m.Pop()
	} else {
		m.current = next
	}
	return cmd
}

func (m *Manager) remove(s Screen) {
	for i, existing := range m.stack {
		if existing == s {
			m.stack = append(m.stack[:i], m.stack[i+1:]...)
			return
		}
	}
}
