package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/CloudNativeWorks/etlctl/pkg/console"
	"github.com/CloudNativeWorks/etlctl/pkg/helper"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

// Options are defaults the menu offers the operator
type Options struct {
	InstallRoot string
	ExportDir   string
	LogCount    uint32
}

// Menu is the interactive front end. Every (screen, choice) pair maps to one
// ActionFunc.
type Menu struct {
	servers  ServerManager
	releases ReleaseLister
	editor   Editor
	prompt   Prompter
	console  *console.Console
	opts     Options
	logger   *logger.Logger

	table map[key]entry
	order map[Screen][]string
}

func NewMenu(servers ServerManager, releases ReleaseLister, editor Editor, prompt Prompter, con *console.Console, opts Options, log *logger.Logger) *Menu {
	if opts.LogCount == 0 {
		opts.LogCount = 50
	}
	m := &Menu{
		servers:  servers,
		releases: releases,
		editor:   editor,
		prompt:   prompt,
		console:  con,
		opts:     opts,
		logger:   log.WithModule("menu"),
		table:    make(map[key]entry),
		order:    make(map[Screen][]string),
	}
	m.registerAll()
	return m
}

// Register binds choice on screen to action. Choices are listed in
// registration order.
func (m *Menu) Register(screen Screen, choice, label string, action ActionFunc) {
	k := key{screen: screen, choice: choice}
	if _, exists := m.table[k]; !exists {
		m.order[screen] = append(m.order[screen], choice)
	}
	m.table[k] = entry{label: label, action: action}
}

// Lookup resolves raw input on screen, falling back to the AnyNumber entry
// for numeric input
func (m *Menu) Lookup(screen Screen, choice string) (ActionFunc, bool) {
	choice = strings.ToLower(strings.TrimSpace(choice))
	if e, ok := m.table[key{screen, choice}]; ok {
		return e.action, true
	}
	if _, err := strconv.Atoi(choice); err == nil {
		if e, ok := m.table[key{screen, AnyNumber}]; ok {
			return e.action, true
		}
	}
	return nil, false
}

func (m *Menu) registerAll() {
	m.Register(ScreenMain, "1", "Install a new server", m.installServer)
	m.Register(ScreenMain, "2", "Manage existing servers", m.goTo(ScreenServers))
	m.Register(ScreenMain, "3", "Configure firewall", m.configureFirewall)
	m.Register(ScreenMain, "4", "Exit", m.quit)

	m.Register(ScreenServers, AnyNumber, "Select server by number", m.selectServer)
	m.Register(ScreenServers, "b", "Back", m.back)

	m.Register(ScreenServer, "1", "Start server", m.serviceAction("start"))
	m.Register(ScreenServer, "2", "Stop server", m.serviceAction("stop"))
	m.Register(ScreenServer, "3", "Restart server", m.serviceAction("restart"))
	m.Register(ScreenServer, "4", "Show status", m.serviceAction("status"))
	m.Register(ScreenServer, "5", "View logs", m.viewLogs)
	m.Register(ScreenServer, "6", "Edit configuration", m.goTo(ScreenEdit))
	m.Register(ScreenServer, "7", "Install/update maps", m.goTo(ScreenMaps))
	m.Register(ScreenServer, "8", "Update server", m.updateServer)
	m.Register(ScreenServer, "9", "Export settings to env file", m.exportSettings)
	m.Register(ScreenServer, "b", "Back", m.back)

	m.Register(ScreenEdit, "1", "Main server config (etl_server.cfg)", m.editMainConfig)
	m.Register(ScreenEdit, "2", "Legacy configs (legacy/configs/)", m.editLegacyConfig)
	m.Register(ScreenEdit, "b", "Back", m.back)

	m.Register(ScreenMaps, "1", "Install standard map pack", m.installStandardMaps)
	m.Register(ScreenMaps, "2", "Install custom map", m.installCustomMap)
	m.Register(ScreenMaps, "3", "View installed maps", m.listMaps)
	m.Register(ScreenMaps, "b", "Back", m.back)
}

// Run shows menus until the operator exits, input ends or ctx is cancelled.
// A failing action is reported and the menu is shown again.
func (m *Menu) Run(ctx context.Context, st *State) error {
	if st.Screen == "" {
		st.Screen = ScreenMain
	}
	for !st.Quit {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.render(st)

		choice, err := m.prompt.Ask("Select an option", "")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		action, ok := m.Lookup(st.Screen, choice)
		if !ok {
			m.console.Warn("Invalid choice %q", choice)
			continue
		}
		if err := m.invoke(ctx, st, choice, action); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.console.Error("Operation failed: %v", err)
		}
	}
	m.console.Success("Exiting ET: Legacy Server Manager. Goodbye!")
	return nil
}

func (m *Menu) invoke(ctx context.Context, st *State, choice string, action ActionFunc) (err error) {
	defer helper.RecoverToError(m.logger, fmt.Sprintf("%s/%s", st.Screen, choice), &err)
	return action(ctx, st, choice)
}

func (m *Menu) render(st *State) {
	m.console.Println()
	switch st.Screen {
	case ScreenMain:
		m.console.Panel("ET: Legacy Server Manager", "Install and manage ET: Legacy dedicated servers")
	case ScreenServers:
		m.renderServers()
	case ScreenServer, ScreenEdit, ScreenMaps:
		if st.Selected != nil {
			m.console.Title("%s (port %d)", st.Selected.Name, st.Selected.Port)
		}
	}

	var options [][2]string
	for _, choice := range m.order[st.Screen] {
		if choice == AnyNumber {
			continue
		}
		options = append(options, [2]string{choice, m.table[key{st.Screen, choice}].label})
	}
	m.console.Menu(screenTitles[st.Screen], options)
}

var screenTitles = map[Screen]string{
	ScreenMain:    "Main Menu",
	ScreenServers: "Select a server by number",
	ScreenServer:  "Server Actions",
	ScreenEdit:    "Configuration Files",
	ScreenMaps:    "Map Management",
}
