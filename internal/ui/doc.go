// Package ui implements the interactive terminal pieces of the CLI with bubbletea's Elm architecture.
//
//  1. [Selector] : choose one catalog result from a filterable list
//  2. [Prompter] : type a missing track, artist or album
//  3. [RunProgress] : spinner and progress bar fed by [tasks.ProgressUpdate] values
//
// Each piece runs its own short-lived [tea.Program]; nothing here keeps state between prompts.
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
