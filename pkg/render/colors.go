package render

import "strings"

// FallbackColor is used for entity types not in the palette.
const FallbackColor = "#9e9e9e"

// palette maps entity types to fill colors. English aliases share the
// color of their Chinese counterpart.
var palette = map[string]string{
	"人物": "#e57373",
	"组织": "#64b5f6",
	"地点": "#81c784",
	"事件": "#ffb74d",
	"概念": "#ba68c8",
	"作品": "#4db6ac",
	"时间": "#f06292",

	"person":       "#e57373",
	"organization": "#64b5f6",
	"location":     "#81c784",
	"place":        "#81c784",
	"event":        "#ffb74d",
	"concept":      "#ba68c8",
	"work":         "#4db6ac",
	"time":         "#f06292",
}

// ColorFor returns the fill color for an entity type. Matching ignores
// surrounding whitespace and ASCII case; unknown and empty types get
// [FallbackColor].
func ColorFor(entityType string) string {
	if c, ok := palette[strings.ToLower(strings.TrimSpace(entityType))]; ok {
		return c
	}
	return FallbackColor
}
