package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/kgviz/pkg/command"
	"github.com/matzehuels/kgviz/pkg/graph"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleBroken   = lipgloss.NewStyle().Foreground(colorRed)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconBroken  = "⇢"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// =============================================================================
// File Output
// =============================================================================

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Key-Value Output
// =============================================================================

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Notifications
// =============================================================================

// printNotification shows a command-layer notification as a status line.
func printNotification(n command.Notification) {
	switch n.Level {
	case command.LevelSuccess:
		printSuccess("%s", n.Message)
	case command.LevelWarning:
		printWarning("%s", n.Message)
	case command.LevelError:
		printError("%s", n.Message)
	default:
		printInfo("%s", n.Message)
	}
}

// =============================================================================
// Graph Display
// =============================================================================

// printGraphStats prints entity and relationship counts on a single line,
// followed by the count per entity type.
func printGraphStats(st graph.Stats, cached bool) {
	parts := []string{
		fmt.Sprintf("%d entities", st.Nodes),
		fmt.Sprintf("%d relationships", st.Links),
	}
	line := "  " + StyleDim.Render(strings.Join(parts, " · "))
	if st.Dangling > 0 {
		line += StyleDim.Render(" · ") + styleBroken.Render(fmt.Sprintf("%d broken", st.Dangling))
	}
	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}
	line += StyleDim.Render(" · ") + statusStyle.Render(status)
	fmt.Println(line)

	for _, typ := range slices.Sorted(maps.Keys(st.ByType)) {
		name := typ
		if name == "" {
			name = "(untyped)"
		}
		printDetail("%-12s %d", name, st.ByType[typ])
	}
}

// entityTable renders entities as a bordered table.
func entityTable(entities []graph.Entity) string {
	rows := make([][]string, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, []string{e.ID, e.Name, e.Type, e.Domain})
	}
	return newTable("ID", "Name", "Type", "Domain").Rows(rows...).Render()
}

// printEntity prints every field of one entity.
func printEntity(e graph.Entity) {
	printKeyValue("id", e.ID)
	printKeyValue("name", e.Name)
	printKeyValue("type", e.Type)
	printKeyValue("domain", e.Domain)
	if e.Description != "" {
		printKeyValue("description", e.Description)
	}
}

// printRelationship prints every field of one relationship.
func printRelationship(r graph.Relationship) {
	printKeyValue("id", r.ID.String())
	printKeyValue("link", r.Source+" "+iconArrow+" "+r.Target)
	printKeyValue("type", r.Type)
	printKeyValue("domain", r.Domain)
	if r.Description != "" {
		printKeyValue("description", r.Description)
	}
}

// relationshipTable renders relationships as a bordered table. Broken
// relationships are marked with a dashed arrow.
func relationshipTable(g graph.Graph) string {
	idx := g.Index()
	rows := make([][]string, 0, len(g.Links))
	for _, l := range g.Links {
		arrow := iconArrow
		_, src := idx[l.Source]
		_, dst := idx[l.Target]
		if !src || !dst {
			arrow = styleBroken.Render(iconBroken)
		}
		rows = append(rows, []string{l.ID.String(), l.Source + " " + arrow + " " + l.Target, l.Type, l.Description})
	}
	return newTable("ID", "Link", "Type", "Description").Rows(rows...).Render()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// =============================================================================
// Commands & Next Steps
// =============================================================================

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}
