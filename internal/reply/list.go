package reply

import (
	"fmt"
	"strings"

	"github.com/dvloznov/diane/internal/domain"
)

// FormatListState renders the list header and one checkbox line per item.
func FormatListState(name string, items []domain.ShoppingListItem) string {
	lines := []string{"Lista \"" + name + "\". Estado atual:"}
	lines = append(lines, itemLines(items)...)
	return strings.Join(lines, "\n")
}

// FormatShoppingSummary renders the active list for the context snapshot.
// A nil list renders as "".
func FormatShoppingSummary(list *domain.ShoppingList) string {
	if list == nil {
		return ""
	}
	lines := []string{list.Name + ":"}
	lines = append(lines, itemLines(list.Items)...)
	return strings.Join(lines, "\n")
}

func itemLines(items []domain.ShoppingListItem) []string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		mark := " "
		if it.Checked {
			mark = "x"
		}
		lines = append(lines, fmt.Sprintf("  - [%s] %s", mark, it.Name))
	}
	return lines
}
