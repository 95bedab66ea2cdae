// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	DaemonUnreachableId Id = iota + 1
	BottleNotFoundId
	RecipeNotFoundId
	RecipeParseErrorId
	RuntimeNotFoundId
	LaunchFailedId
	ConfigLoadFailedId
	InvalidParamsId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	daemonUnreachableIssue = &Issue{
		id: DaemonUnreachableId,
		mdMsg: `
# Cannot reach the alloy daemon!

The client could not connect to the daemon socket.

## Things you can try:
- Start the daemon in the foreground:
~~~
$ alloy daemon
~~~

- Check that client and daemon agree on the socket path:
~~~
$ alloy --socket /path/to/daemon.sock info
~~~

- The socket path can also be set with ` + "`SILICON_ALLOY_SOCKET`" + `.`,
	}

	bottleNotFoundIssue = &Issue{
		id: BottleNotFoundId,
		mdMsg: `
# Bottle not found!

No bottle with that identifier exists. Bottles are addressed by id, not by name.

## Things you can try:
- List bottles and copy the id:
~~~
$ alloy list
~~~`,
	}

	recipeNotFoundIssue = &Issue{
		id: RecipeNotFoundId,
		mdMsg: `
# Recipe not found!

The recipe id did not match any manifest in the recipe directory.

## Search locations:
1. ` + "`<recipe_dir>/<recipe>/recipe.yaml`" + `
2. ` + "`<recipe_dir>/<recipe>.yaml`" + `

## Things you can try:
- List the recipes the daemon can see:
~~~
$ alloy recipes list
~~~

- Point the daemon at another directory with ` + "`SILICON_ALLOY_RECIPES`" + `.`,
	}

	recipeParseErrorIssue = &Issue{
		id: RecipeParseErrorId,
		mdMsg: `
# Failed to parse a recipe!

A recipe manifest contains invalid YAML or a step the daemon does not understand.

## Accepted step shapes:
~~~yaml
steps:
  - run: setup.exe
  - run: { command: setup.exe, args: ["/S"] }
  - wait_for_exit: true
  - winecfg: { version: win10 }
  - env: { DXVK_HUD: "1" }
  - copy: { from: dxvk.conf, to: drive_c/dxvk.conf }
~~~

## Things you can try:
- Check the error above for the field path
- ` + "`wait_for_exit`" + ` must be ` + "`true`" + ` when present`,
	}

	runtimeNotFoundIssue = &Issue{
		id: RuntimeNotFoundId,
		mdMsg: `
# Wine runtime not found!

The bottle points at a runtime executable that does not exist.

## Things you can try:
- List the runtimes the daemon discovered:
~~~
$ alloy runtime list
~~~

- Install a runtime as ` + "`<runtime_dir>/wine-<arch>-<version>/bin/wine64`" + ` and restart the daemon.
  The runtime list is captured once at startup.`,
	}

	launchFailedIssue = &Issue{
		id: LaunchFailedId,
		mdMsg: `
# Failed to launch a process!

The daemon could not start the requested program.

## Things you can try:
- Verify the runtime executable exists and is executable
- On Apple silicon, make sure Rosetta is installed:
~~~
$ softwareupdate --install-rosetta
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Check the CUE syntax of your config file
- Show the effective configuration:
~~~
$ alloy config show
~~~`,
	}

	invalidParamsIssue = &Issue{
		id: InvalidParamsId,
		mdMsg: `
# Invalid request parameters!

The daemon rejected the parameters of the request. Bottle ids are UUIDs and
bottle names must contain at least one letter or digit.`,
	}

	issues = map[Id]*Issue{
		daemonUnreachableIssue.Id(): daemonUnreachableIssue,
		bottleNotFoundIssue.Id():    bottleNotFoundIssue,
		recipeNotFoundIssue.Id():    recipeNotFoundIssue,
		recipeParseErrorIssue.Id():  recipeParseErrorIssue,
		runtimeNotFoundIssue.Id():   runtimeNotFoundIssue,
		launchFailedIssue.Id():      launchFailedIssue,
		configLoadFailedIssue.Id():  configLoadFailedIssue,
		invalidParamsIssue.Id():     invalidParamsIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	values := make([]*Issue, 0, len(issues))
	for _, v := range issues {
		values = append(values, v)
	}
	slices.SortFunc(values, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}

// ForKind maps a wire error kind (see KindOf) to the most helpful catalog entry.
// The resource hint disambiguates not_found between bottles and recipes.
func ForKind(kind, resource string) Id {
	switch kind {
	case "not_found":
		switch resource {
		case "recipe":
			return RecipeNotFoundId
		case "runtime":
			return RuntimeNotFoundId
		default:
			return BottleNotFoundId
		}
	case "invalid_input":
		if resource == "recipe" {
			return RecipeParseErrorId
		}
		return InvalidParamsId
	case "launch_failure":
		return LaunchFailedId
	default:
		return 0
	}
}
