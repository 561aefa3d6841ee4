package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/homestead/internal/domain"
	"github.com/mmcdole/homestead/internal/listing"
	"github.com/mmcdole/homestead/internal/tui/styles"
)

const (
	// Border adds 1 char on each side
	BorderWidth  = 2
	BorderHeight = 2

	// Scroll indicators ("↑ more" and "↓ more") each take 1 line
	ScrollIndicatorLines = 2

	// Footer line with the load-more hint
	FooterLines = 1
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ListColumn is a scrollable, filterable column of listings
type ListColumn struct {
	title string
	items []*domain.Listing

	// Filtered view over items; nil when no filter query is set
	matches []listing.Match

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width   int
	height  int
	focused bool

	// Load state shown in the footer
	loading      bool
	canLoadMore  bool
	emptyText    string
	spinnerFrame int

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
}

// NewListColumn creates an empty listing column
func NewListColumn(title string) *ListColumn {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return &ListColumn{
		title:       title,
		filterInput: ti,
		emptyText:   "No listings",
		focused:     true,
	}
}

// Update handles navigation and filter typing
func (c *ListColumn) Update(msg tea.Msg) tea.Cmd {
	if !c.focused {
		return nil
	}

	keyMsg, isKey := msg.(tea.KeyMsg)

	// Typing into the filter
	if c.filterActive && c.filterInput.Focused() {
		if isKey {
			switch {
			case key.Matches(keyMsg, ListKeys.Escape):
				c.clearFilter()
				return nil
			case key.Matches(keyMsg, ListKeys.Enter):
				c.filterInput.Blur()
				return nil
			case keyMsg.String() == "backspace" && c.filterInput.Value() == "":
				c.clearFilter()
				return nil
			}
		}

		var cmd tea.Cmd
		c.filterInput, cmd = c.filterInput.Update(msg)
		c.applyFilter()
		return cmd
	}

	if !isKey {
		return nil
	}

	// Filter applied but blurred: navigation over the results
	if c.filterActive {
		switch {
		case key.Matches(keyMsg, ListKeys.Escape):
			c.clearFilter()
			return nil
		case key.Matches(keyMsg, ListKeys.Filter):
			c.filterInput.Focus()
			return nil
		}
	}

	count := c.ItemCount()
	if count == 0 {
		return nil
	}

	switch {
	case key.Matches(keyMsg, ListKeys.Down):
		if c.cursor < count-1 {
			c.cursor++
			c.ensureVisible()
		}
	case key.Matches(keyMsg, ListKeys.Up):
		if c.cursor > 0 {
			c.cursor--
			c.ensureVisible()
		}
	case key.Matches(keyMsg, ListKeys.Home):
		c.cursor = 0
		c.offset = 0
	case key.Matches(keyMsg, ListKeys.End):
		c.cursor = count - 1
		c.ensureVisible()
	case key.Matches(keyMsg, ListKeys.HalfDown):
		c.cursor = min(c.cursor+c.maxVisible/2, count-1)
		c.ensureVisible()
	case key.Matches(keyMsg, ListKeys.HalfUp):
		c.cursor = max(c.cursor-c.maxVisible/2, 0)
		c.ensureVisible()
	}
	return nil
}

// View renders the column inside its border
func (c *ListColumn) View() string {
	style := styles.InactiveBorder
	if c.focused {
		style = styles.ActiveBorder
	}

	frameW, frameH := style.GetFrameSize()
	return style.
		Width(max(c.width-frameW, 0)).
		Height(max(c.height-frameH, 0)).
		Render(c.renderContent())
}

// SetSize sets the outer dimensions
func (c *ListColumn) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.recalcMaxVisible()
	c.ensureVisible()
}

// SetFocused toggles focus
func (c *ListColumn) SetFocused(focused bool) {
	c.focused = focused
}

// Title returns the column title
func (c *ListColumn) Title() string {
	return c.title
}

// SetTitle changes the column title
func (c *ListColumn) SetTitle(title string) {
	c.title = title
}

// SetItems replaces the listings, keeping the selection on the same
// listing when it is still present
func (c *ListColumn) SetItems(items []*domain.Listing) {
	var selectedID string
	if sel := c.SelectedListing(); sel != nil {
		selectedID = sel.ID
	}

	c.items = items
	if c.filterActive && c.filterQuery != "" {
		c.matches = listing.Filter(c.filterQuery, c.items)
	}

	c.cursor = 0
	for i := 0; i < c.ItemCount(); i++ {
		if c.at(i).ID == selectedID {
			c.cursor = i
			break
		}
	}
	c.clampCursor()
	c.ensureVisible()
}

// Items returns the unfiltered listings
func (c *ListColumn) Items() []*domain.Listing {
	return c.items
}

// SelectedListing returns the listing under the cursor, or nil
func (c *ListColumn) SelectedListing() *domain.Listing {
	if c.cursor < 0 || c.cursor >= c.ItemCount() {
		return nil
	}
	return c.at(c.cursor)
}

// SelectedIndex returns the cursor position
func (c *ListColumn) SelectedIndex() int {
	return c.cursor
}

// ItemCount returns how many rows are visible after filtering
func (c *ListColumn) ItemCount() int {
	if c.matches != nil {
		return len(c.matches)
	}
	return len(c.items)
}

// SetLoading shows or hides the loading footer
func (c *ListColumn) SetLoading(loading bool) {
	c.loading = loading
}

// IsLoading reports whether the loading footer is shown
func (c *ListColumn) IsLoading() bool {
	return c.loading
}

// SetCanLoadMore toggles the load-more hint
func (c *ListColumn) SetCanLoadMore(can bool) {
	c.canLoadMore = can
}

// SetEmptyText sets the message shown when there are no rows
func (c *ListColumn) SetEmptyText(text string) {
	c.emptyText = text
}

// SetSpinnerFrame advances the loading spinner
func (c *ListColumn) SetSpinnerFrame(frame int) {
	c.spinnerFrame = frame
}

// ToggleFilter activates the filter input
func (c *ListColumn) ToggleFilter() {
	c.filterActive = true
	c.filterInput.Focus()
	c.recalcMaxVisible()
}

// IsFiltering returns true if filter mode is active
func (c *ListColumn) IsFiltering() bool {
	return c.filterActive
}

// IsFilterTyping returns true if filter is active AND input is focused
func (c *ListColumn) IsFilterTyping() bool {
	return c.filterActive && c.filterInput.Focused()
}

// ClearFilter deactivates the filter and shows all items
func (c *ListColumn) ClearFilter() {
	c.clearFilter()
}

// SetFilter applies query as if typed
func (c *ListColumn) SetFilter(query string) {
	c.filterActive = true
	c.filterInput.SetValue(query)
	c.applyFilter()
	c.recalcMaxVisible()
}

func (c *ListColumn) at(i int) *domain.Listing {
	if c.matches != nil {
		return c.matches[i].Listing
	}
	return c.items[i]
}

func (c *ListColumn) matchedIndexes(i int) []int {
	if c.matches != nil {
		return c.matches[i].MatchedIndexes
	}
	return nil
}

func (c *ListColumn) clampCursor() {
	if c.cursor >= c.ItemCount() {
		c.cursor = c.ItemCount() - 1
	}
	if c.cursor < 0 {
		c.cursor = 0
	}
}

func (c *ListColumn) recalcMaxVisible() {
	// Title line, scroll indicators, footer and the filter bar when active
	c.maxVisible = c.height - BorderHeight - ScrollIndicatorLines - FooterLines - 1
	if c.filterActive {
		c.maxVisible--
	}
	if c.maxVisible < 1 {
		c.maxVisible = 1
	}
}

func (c *ListColumn) ensureVisible() {
	if c.maxVisible <= 0 {
		return
	}
	if c.cursor < c.offset {
		c.offset = c.cursor
	}
	if c.cursor >= c.offset+c.maxVisible {
		c.offset = c.cursor - c.maxVisible + 1
	}
}

func (c *ListColumn) clearFilter() {
	c.filterActive = false
	c.filterQuery = ""
	c.matches = nil
	c.filterInput.SetValue("")
	c.filterInput.Blur()
	c.recalcMaxVisible()
	c.clampCursor()
	c.ensureVisible()
}

func (c *ListColumn) applyFilter() {
	c.filterQuery = c.filterInput.Value()
	if strings.TrimSpace(c.filterQuery) == "" {
		c.matches = nil
	} else {
		c.matches = listing.Filter(c.filterQuery, c.items)
	}
	c.cursor = 0
	c.offset = 0
}

// Rendering

func (c *ListColumn) renderContent() string {
	itemWidth := max(c.width-BorderWidth, 10)

	titleLine := styles.AccentStyle.Render(styles.Truncate(c.title, itemWidth))

	count := c.ItemCount()
	if count == 0 {
		var msg string
		switch {
		case c.loading:
			msg = spinnerFrames[c.spinnerFrame%len(spinnerFrames)] + " Loading..."
		case c.filterActive && c.filterQuery != "":
			msg = "No matches"
		default:
			msg = c.emptyText
		}
		content := titleLine + "\n \n" + styles.DimStyle.Render(msg) + "\n "
		if c.filterActive {
			content += "\n" + c.renderFilterBar()
		}
		return content
	}

	end := min(c.offset+c.maxVisible, count)

	lines := make([]string, 0, end-c.offset)
	for i := c.offset; i < end; i++ {
		lines = append(lines, c.renderRow(c.at(i), c.matchedIndexes(i), i == c.cursor, itemWidth))
	}

	// Header and footer lines are always reserved to prevent layout shifts
	header := " "
	if c.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	more := " "
	if end < count {
		more = styles.DimStyle.Render("↓ more")
	}

	content := titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + more
	content += "\n" + c.renderFooter()
	if c.filterActive {
		content += "\n" + c.renderFilterBar()
	}
	return content
}

func (c *ListColumn) renderRow(l *domain.Listing, idx []int, selected bool, width int) string {
	price := l.FormattedPrice()

	tag := "  "
	if l.Offer {
		tag = "% "
	}
	tagColor := styles.Brand
	priceColor := styles.Amber

	nameWidth := max(width-len(price)-len(tag)-4, 8)
	name := styles.Truncate(l.Name, nameWidth)

	parts := []styles.RowPart{{Text: tag, Foreground: &tagColor}}
	if len(name) == len(l.Name) {
		parts = append(parts, styles.MatchParts(name, idx)...)
	} else {
		parts = append(parts, styles.RowPart{Text: name})
	}
	if gap := nameWidth - len([]rune(name)); gap > 0 {
		parts = append(parts, styles.RowPart{Text: strings.Repeat(" ", gap)})
	}
	parts = append(parts, styles.RowPart{Text: " " + price, Foreground: &priceColor})

	return styles.RenderListRow(parts, selected, width)
}

func (c *ListColumn) renderFooter() string {
	switch {
	case c.loading:
		return styles.SpinnerStyle.Render(spinnerFrames[c.spinnerFrame%len(spinnerFrames)]) + styles.DimStyle.Render(" Loading more...")
	case c.canLoadMore:
		return styles.HelpKeyStyle.Render("m") + styles.HelpDescStyle.Render(" load more")
	default:
		return " "
	}
}

func (c *ListColumn) renderFilterBar() string {
	countStr := ""
	if c.filterQuery != "" {
		countStr = styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", c.ItemCount(), len(c.items)))
	}
	return c.filterInput.View() + countStr
}
