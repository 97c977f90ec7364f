// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	ProtocolErrorId Id = iota + 1
	ResolutionErrorId
	SubstitutionErrorId
	ExecutionErrorId
	PersistenceErrorId
	ContentNotFoundId
	ConfigLoadFailedId
	RegistryLoadFailedId
	ShellNotFoundId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the guidance with the given glamour style ("dark",
// "light", "notty", or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	protocolErrorIssue = &Issue{
		id: ProtocolErrorId,
		mdMsg: `
# Malformed record

The input is not a sequence of operator records. Every record starts
with the marker ` + "`>><<`" + ` followed by
` + "`<command>:<args>:<length>:<content>`" + `.

## Things you can try:
- Make sure the input was produced by an ` + "`ot`" + ` command and not altered
- Check that nothing else (log lines, a shell prompt) was written into the stream
- Inspect the stream record by record:
~~~
$ ot inspect < records.bin
~~~`,
	}

	resolutionErrorIssue = &Issue{
		id: ResolutionErrorId,
		mdMsg: `
# Unknown command template

The command template has no counterpart in the registry, so no inverse
record can be produced. Templates are matched verbatim, placeholders
included.

## Things you can try:
- List the registered pairs:
~~~
$ ot registry list
~~~
- Add the pair to your registry file and point ` + "`registry_path`" + ` at it`,
	}

	substitutionErrorIssue = &Issue{
		id: SubstitutionErrorId,
		mdMsg: `
# Missing template argument

The command template references a placeholder (` + "`%{name}`" + ` or
` + "`%<name>s`" + `) that was not given a value.

## Things you can try:
- Pass every placeholder with ` + "`--arg name=value`" + `
- Use ` + "`%%`" + ` for a literal percent sign`,
	}

	executionErrorIssue = &Issue{
		id: ExecutionErrorId,
		mdMsg: `
# Command could not be run

The command failed to start or its pipes broke while data was being
transferred.

## Things you can try:
- Run the concrete command by hand to see its error output
- Re-run with ` + "`--verbose`" + ` to log the exact command line
- Switch runtimes with ` + "`runtime: \"virtual\"`" + ` in your config`,
	}

	persistenceErrorIssue = &Issue{
		id: PersistenceErrorId,
		mdMsg: `
# Content could not be stored

Writing, moving or removing a file in the storage directory failed.
Nothing was written at the content address.

## Things you can try:
- Check free space and permissions of the storage directory
- Make sure ` + "`tee`" + `, ` + "`sha256sum`" + ` and ` + "`awk`" + ` are installed
- Point ` + "`storage_dir`" + ` at a writable location`,
	}

	contentNotFoundIssue = &Issue{
		id: ContentNotFoundId,
		mdMsg: `
# Content not found

No content is stored under this digest in the configured storage
directory.

## Things you can try:
- Check that ` + "`storage_dir`" + ` matches the one used when storing
- Verify the digest with ` + "`ot inspect`" + ` on the stored record`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

## Things you can try:
- Show the effective configuration:
~~~
$ ot config show
~~~
- Print where the config file is read from:
~~~
$ ot config path
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	registryLoadFailedIssue = &Issue{
		id: RegistryLoadFailedId,
		mdMsg: `
# Registry could not be loaded

Registry files are CUE, YAML or TOML documents with a ` + "`commands`" + `
map and an optional ` + "`nl_adders`" + ` list:

~~~cue
commands: {
	"gzip -c": "gunzip -c"
}
nl_adders: []
~~~

Each template may appear in only one pair.`,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# No shell found

The native runtime needs a shell to run command templates.

## Things you can try:
- Set ` + "`shell`" + ` in your config file
- Use the built-in interpreter with ` + "`runtime: \"virtual\"`",
	}

	issues = map[Id]*Issue{
		protocolErrorIssue.Id():      protocolErrorIssue,
		resolutionErrorIssue.Id():    resolutionErrorIssue,
		substitutionErrorIssue.Id():  substitutionErrorIssue,
		executionErrorIssue.Id():     executionErrorIssue,
		persistenceErrorIssue.Id():   persistenceErrorIssue,
		contentNotFoundIssue.Id():    contentNotFoundIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		registryLoadFailedIssue.Id(): registryLoadFailedIssue,
		shellNotFoundIssue.Id():      shellNotFoundIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}
