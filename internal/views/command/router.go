package command

import (
	"fmt"
	"strings"
)

// Action is what a command line asks the application to do.
type Action int

const (
	ActionNone Action = iota
	ActionSearch
	ActionInfo
	ActionInstall
	ActionUninstall
	ActionUpdate
	ActionDoctor
	ActionConfig
	ActionClean
	ActionLocal
	ActionRemote
	ActionTasks
	ActionActivity
	ActionVersion
	ActionHelp
	ActionQuit
)

// Route represents a parsed command input.
type Route struct {
	Action Action
	Arg    string // package name or query
	Raw    string // original input
}

type argKind int

const (
	argNone argKind = iota
	argPackage
	argQuery
)

type commandSpec struct {
	action Action
	arg    argKind
	desc   string
}

var commandTree = map[string]commandSpec{
	"search":    {ActionSearch, argQuery, "Search for packages"},
	"info":      {ActionInfo, argPackage, "Show package details"},
	"install":   {ActionInstall, argPackage, "Install a package"},
	"uninstall": {ActionUninstall, argPackage, "Uninstall a package"},
	"update":    {ActionUpdate, argPackage, "Upgrade a package"},
	"doctor":    {ActionDoctor, argNone, "Check package manager health"},
	"config":    {ActionConfig, argNone, "Show package manager config"},
	"clean":     {ActionClean, argNone, "Remove stale downloads"},
	"local":     {ActionLocal, argNone, "Search installed packages"},
	"remote":    {ActionRemote, argNone, "Search all available packages"},
	"tasks":     {ActionTasks, argNone, "Show task slots"},
	"activity":  {ActionActivity, argNone, "Show install activity"},
	"version":   {ActionVersion, argNone, "Show versions"},
	"help":      {ActionHelp, argNone, "Show help"},
	"quit":      {ActionQuit, argNone, "Quit wherehouse"},
}

// ParseRoute parses a command line such as "install wget".
func ParseRoute(input string) (Route, error) {
	input = strings.TrimSpace(input)
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return Route{Raw: input}, nil
	}

	spec, ok := commandTree[parts[0]]
	if !ok {
		return Route{Raw: input}, fmt.Errorf("unknown command %q", parts[0])
	}
	route := Route{Action: spec.action, Raw: input}
	args := parts[1:]

	switch spec.arg {
	case argNone:
		if len(args) > 0 {
			return route, fmt.Errorf("%s takes no arguments", parts[0])
		}
	case argPackage:
		if len(args) != 1 {
			return route, fmt.Errorf("usage: %s <package>", parts[0])
		}
		route.Arg = args[0]
	case argQuery:
		if len(args) == 0 {
			return route, fmt.Errorf("usage: %s <query>", parts[0])
		}
		route.Arg = strings.Join(args, " ")
	}
	return route, nil
}
