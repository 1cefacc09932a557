package app

import (
	"github.com/charmbracelet/bubbles/table"
)

// layoutDims holds computed layout dimensions for the UI.
type layoutDims struct {
	width                  int
	height                 int
	headerHeight           int
	footerHeight           int
	filterHeight           int
	bodyHeight             int
	gapX                   int
	gapY                   int
	leftWidth              int
	rightWidth             int
	leftInnerWidth         int
	rightInnerWidth        int
	leftInnerHeight        int
	rightTopHeight         int
	rightBottomHeight      int
	rightTopInnerHeight    int
	rightBottomInnerHeight int
}

// setWindowSize updates the window dimensions and applies the layout.
func (m *Model) setWindowSize(width, height int) {
	m.windowWidth = width
	m.windowHeight = height
	m.applyLayout(m.computeLayout())
}

// computeLayout splits the body into a left pane and two stacked right panes.
func (m *Model) computeLayout() layoutDims {
	width := m.windowWidth
	height := m.windowHeight
	if width <= 0 {
		width = 120
	}
	if height <= 0 {
		height = 40
	}

	headerHeight := 1
	footerHeight := 1
	filterHeight := 0
	if m.showingFilter {
		filterHeight = 1
	}
	gapX := 1
	gapY := 1

	bodyHeight := max(height-headerHeight-footerHeight-filterHeight, 8)

	leftRatio := 0.45
	if m.view == viewDiff && m.focus == paneCommits {
		leftRatio = 0.30
	}

	leftWidth := int(float64(width-gapX) * leftRatio)
	rightWidth := width - leftWidth - gapX
	if leftWidth < minLeftPaneWidth {
		leftWidth = minLeftPaneWidth
		rightWidth = width - leftWidth - gapX
	}
	if rightWidth < minRightPaneWidth {
		rightWidth = minRightPaneWidth
		leftWidth = max(width-rightWidth-gapX, minLeftPaneWidth)
	}
	if leftWidth+rightWidth+gapX > width {
		rightWidth = max(width-leftWidth-gapX, 0)
	}

	// The right top pane shows details, the bottom one the commit table.
	rightTopHeight := max(int(float64(bodyHeight-gapY)*0.30), 6)
	rightBottomHeight := bodyHeight - rightTopHeight - gapY
	if rightBottomHeight < 4 {
		rightBottomHeight = 4
		rightTopHeight = bodyHeight - rightBottomHeight - gapY
	}

	paneFrameX := m.basePaneStyle().GetHorizontalFrameSize()
	paneFrameY := m.basePaneStyle().GetVerticalFrameSize()

	return layoutDims{
		width:                  width,
		height:                 height,
		headerHeight:           headerHeight,
		footerHeight:           footerHeight,
		filterHeight:           filterHeight,
		bodyHeight:             bodyHeight,
		gapX:                   gapX,
		gapY:                   gapY,
		leftWidth:              leftWidth,
		rightWidth:             rightWidth,
		leftInnerWidth:         max(1, leftWidth-paneFrameX),
		rightInnerWidth:        max(1, rightWidth-paneFrameX),
		leftInnerHeight:        max(1, bodyHeight-paneFrameY),
		rightTopHeight:         rightTopHeight,
		rightBottomHeight:      rightBottomHeight,
		rightTopInnerHeight:    max(1, rightTopHeight-paneFrameY),
		rightBottomInnerHeight: max(1, rightBottomHeight-paneFrameY),
	}
}

// applyLayout sizes the tables and inputs for the computed layout.
func (m *Model) applyLayout(layout layoutDims) {
	titleHeight := 1
	tableHeaderHeight := 1

	// Minimum height of 3 keeps the table viewport valid.
	branchHeight := max(3, layout.leftInnerHeight-titleHeight-tableHeaderHeight-1)
	m.branchTable.SetWidth(layout.leftInnerWidth)
	m.branchTable.SetHeight(branchHeight)
	m.branchTable.SetColumns(branchColumns(layout.leftInnerWidth))

	commitHeight := max(3, layout.rightBottomInnerHeight-titleHeight-tableHeaderHeight-1)
	m.commitTable.SetWidth(layout.rightInnerWidth)
	m.commitTable.SetHeight(commitHeight)
	m.commitTable.SetColumns(commitColumns(layout.rightInnerWidth))

	m.filterInput.Width = max(20, layout.width-18)
}

// branchColumns fits the branch table to width.
func branchColumns(width int) []table.Column {
	mark := 4
	revision := 10
	name := max(10, width-mark-revision-6)
	return []table.Column{
		{Title: "", Width: mark},
		{Title: "Branch", Width: name},
		{Title: "Revision", Width: revision},
	}
}

// commitColumns fits the commit table to width.
func commitColumns(width int) []table.Column {
	sel := 2
	revision := 9
	date := 16
	author := 14
	message := max(10, width-sel-revision-date-author-10)
	return []table.Column{
		{Title: "", Width: sel},
		{Title: "Commit", Width: revision},
		{Title: "Date", Width: date},
		{Title: "Author", Width: author},
		{Title: "Message", Width: message},
	}
}
