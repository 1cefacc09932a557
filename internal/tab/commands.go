package tab

import "github.com/chmouel/lazydiff/internal/commands"

// Command ids.
const (
	CmdNewDiff             = "new-diff"
	CmdGroupByDirectory    = "group-by-directory"
	CmdExpandAll           = "expand-all"
	CmdCollapseAll         = "collapse-all"
	CmdOpenLocation        = "open-location"
	CmdDiffAgainstTarget   = "diff-against-target"
	CmdDiffSelectedCommits = "diff-selected-commits"
	CmdDiffAgainstNext     = "diff-against-next"
	CmdDiffAgainstPrevious = "diff-against-previous"
	CmdDiffAgainstNewest   = "diff-against-newest"
	CmdDiffAgainstOldest   = "diff-against-oldest"
)

// Nerd Font glyphs shown in the command palette.
const (
	IconDiff   = "" // file-diff
	IconTree   = "" // git branch
	IconNav    = "" // compass
	IconCommit = "" // history
)

const (
	sectionDiffPanel   = "Diff Panel"
	sectionCommitPanel = "Commit Panel"
)

// none wraps an action that produces no diff request.
func none(fn func()) func() (*DiffRequest, error) {
	return func() (*DiffRequest, error) {
		fn()
		return nil, nil
	}
}

func (c *Controller) hasItems() bool {
	return len(c.items) > 0
}

// buildCommands returns the action table of the session. new-diff and
// open-location end in the UI through Hooks.
func (c *Controller) buildCommands() *commands.Registry[*DiffRequest] {
	r := commands.NewRegistry[*DiffRequest]()
	r.Register(
		commands.Action[*DiffRequest]{
			ID: CmdNewDiff, Label: "New diff", Description: "Pick another source and target",
			Section: sectionDiffPanel, Shortcut: "n", Icon: IconDiff,
			Handler:   c.newDiff,
			Available: func() bool { return c.hooks.NewDiff != nil },
		},
		commands.Action[*DiffRequest]{
			ID: CmdGroupByDirectory, Label: "Group by directory", Description: "Switch between list and tree",
			Section: sectionDiffPanel, Shortcut: "t", Icon: IconTree,
			Handler: none(c.ToggleGroupByDirectory),
			Checked: func() bool { return c.mode == TreeMode },
		},
		commands.Action[*DiffRequest]{
			ID: CmdExpandAll, Label: "Expand all", Description: "Expand every directory",
			Section: sectionDiffPanel, Shortcut: "E", Icon: IconNav,
			Handler:   none(c.ExpandAll),
			Available: func() bool { return c.mode == TreeMode && c.hasItems() },
		},
		commands.Action[*DiffRequest]{
			ID: CmdCollapseAll, Label: "Collapse all", Description: "Collapse every directory",
			Section: sectionDiffPanel, Shortcut: "C", Icon: IconNav,
			Handler:   none(c.CollapseAll),
			Available: func() bool { return c.mode == TreeMode && c.hasItems() },
		},
		commands.Action[*DiffRequest]{
			ID: CmdOpenLocation, Label: "Open location", Description: "Show the file in the work tree",
			Section: sectionDiffPanel, Shortcut: "o", Icon: IconNav,
			Handler:   c.showLocation,
			Available: func() bool { return c.hooks.ShowLocation != nil && c.SelectedNode() != nil },
		},
		commands.Action[*DiffRequest]{
			ID: CmdDiffAgainstTarget, Label: "Diff against target", Description: "Last target commit vs newest commit",
			Section: sectionDiffPanel, Shortcut: "d", Icon: IconDiff,
			Handler: c.DiffAgainstTarget, Available: c.CanDiffAgainstTarget,
		},
		commands.Action[*DiffRequest]{
			ID: CmdDiffSelectedCommits, Label: "Diff selected commits", Description: "Compare the two selected commits",
			Section: sectionCommitPanel, Shortcut: "D", Icon: IconCommit,
			Handler: c.DiffSelectedCommits, Available: c.CanDiffSelectedCommits,
		},
		commands.Action[*DiffRequest]{
			ID: CmdDiffAgainstNext, Label: "Diff against next", Description: "Selected commit vs the next newer one",
			Section: sectionCommitPanel, Shortcut: "]", Icon: IconCommit,
			Handler: c.DiffAgainstNext, Available: c.CanDiffAgainstNext,
		},
		commands.Action[*DiffRequest]{
			ID: CmdDiffAgainstPrevious, Label: "Diff against previous", Description: "Previous older commit vs the selected one",
			Section: sectionCommitPanel, Shortcut: "[", Icon: IconCommit,
			Handler: c.DiffAgainstPrevious, Available: c.CanDiffAgainstPrevious,
		},
		commands.Action[*DiffRequest]{
			ID: CmdDiffAgainstNewest, Label: "Diff against newest", Description: "Selected commit vs the newest one",
			Section: sectionCommitPanel, Shortcut: "}", Icon: IconCommit,
			Handler: c.DiffAgainstNewest, Available: c.CanDiffAgainstNext,
		},
		commands.Action[*DiffRequest]{
			ID: CmdDiffAgainstOldest, Label: "Diff against oldest", Description: "Oldest commit vs the selected one",
			Section: sectionCommitPanel, Shortcut: "{", Icon: IconCommit,
			Handler: c.DiffAgainstOldest, Available: c.CanDiffAgainstPrevious,
		},
	)
	return r
}
