package tui

import "charm.land/bubbles/v2/key"

type keyMap struct {
	quit       key.Binding
	toggleHelp key.Binding
	reload     key.Binding
	panLeft    key.Binding
	panRight   key.Binding
	panUp      key.Binding
	panDown    key.Binding
	home       key.Binding
	nextTask   key.Binding
	prevTask   key.Binding
	taskInfo   key.Binding
	copyName   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload tasks")),
		panLeft:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "pan left")),
		panRight:   key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "pan right")),
		panUp:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "pan up")),
		panDown:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "pan down")),
		home:       key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "back to start")),
		nextTask:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next task")),
		prevTask:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous task")),
		taskInfo:   key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "task info")),
		copyName:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy task name")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.panLeft, k.panRight, k.nextTask, k.taskInfo, k.copyName, k.toggleHelp, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.panLeft, k.panRight, k.panUp, k.panDown, k.home},
		{k.nextTask, k.prevTask, k.taskInfo, k.copyName},
		{k.reload, k.toggleHelp, k.quit},
	}
}
