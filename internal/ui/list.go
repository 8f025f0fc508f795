package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
)

var _ list.DefaultItem = optionItem{}

// optionItem wraps a rendered option to implement [list.DefaultItem].
//
// index is the option's position in the caller's slice, which survives filtering.
type optionItem struct {
	index int
	label string
}

func (i optionItem) FilterValue() string { return i.label }
func (i optionItem) Title() string       { return strings.TrimSpace(i.label) }
func (i optionItem) Description() string { return "" }

func optionItems(options []string) []list.Item {
	items := make([]list.Item, len(options))
	for i, opt := range options {
		items[i] = optionItem{index: i, label: opt}
	}
	return items
}
