package commands

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryExecute(t *testing.T) {
	r := NewRegistry[string]()
	enabled := false
	r.Register(
		Action[string]{ID: "greet", Label: "Greet", Shortcut: "g", Handler: func() (string, error) { return "hi", nil }},
		Action[string]{ID: "gated", Label: "Gated", Handler: func() (string, error) { return "open", nil }, Available: func() bool { return enabled }},
		Action[string]{ID: "broken", Label: "Broken", Handler: func() (string, error) { return "", errors.New("boom") }},
		Action[string]{ID: "nohandler", Label: "No handler"},
	)

	got, err := r.Execute("greet")
	require.NoError(t, err)
	assert.Equal(t, "hi", got)

	_, err = r.Execute("gated")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, r.CanExecute("gated"))
	enabled = true
	assert.True(t, r.CanExecute("gated"))

	_, err = r.Execute("missing")
	require.ErrorIs(t, err, ErrUnknown)

	_, err = r.Execute("broken")
	require.EqualError(t, err, "boom")

	assert.False(t, r.CanExecute("nohandler"))
}

func TestRegistryOrderAndReplace(t *testing.T) {
	r := NewRegistry[int]()
	r.Register(Action[int]{ID: "a", Label: "A"}, Action[int]{ID: "b", Label: "B"})
	r.Register(Action[int]{ID: "a", Label: "A2"})

	actions := r.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, "A2", actions[0].Label)
	assert.Equal(t, "B", actions[1].Label)
}

func TestShortcutAndSearch(t *testing.T) {
	checked := true
	r := NewRegistry[int]()
	r.Register(
		Action[int]{ID: "expand-all", Label: "Expand all", Description: "Expand every directory", Shortcut: "E"},
		Action[int]{ID: "group", Label: "Group by directory", Shortcut: "t", Checked: func() bool { return checked }},
	)

	a, ok := r.ByShortcut("t")
	require.True(t, ok)
	assert.Equal(t, "group", a.ID)
	assert.True(t, a.IsChecked())
	_, ok = r.ByShortcut("x")
	assert.False(t, ok)

	found := r.Search("EXPAND dir")
	require.Len(t, found, 1)
	assert.Equal(t, "expand-all", found[0].ID)
	assert.Len(t, r.Search(""), 2)
}
