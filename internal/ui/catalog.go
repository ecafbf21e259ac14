package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/dustin/go-humanize"

	"github.com/ekisa-team/llamaterm/internal/model"
)

// catalogItem adapts a catalog entry to the list component.
type catalogItem struct {
	entry model.Entry
}

func (i catalogItem) Title() string {
	return i.entry.ID
}

func (i catalogItem) Description() string {
	desc := fmt.Sprintf("%s · %s", humanize.IBytes(uint64(i.entry.Size)), i.entry.Path)
	if i.entry.Description != "" {
		desc = i.entry.Description + " · " + desc
	}
	return desc
}

func (i catalogItem) FilterValue() string {
	return i.entry.ID + " " + i.entry.Description
}

func catalogItems(entries []model.Entry) []list.Item {
	items := make([]list.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, catalogItem{entry: e})
	}
	return items
}

func newPicker(entries []model.Entry) list.Model {
	l := list.New(catalogItems(entries), list.NewDefaultDelegate(), 60, 20)
	l.Title = "Select a model"
	l.SetShowHelp(false)
	return l
}

