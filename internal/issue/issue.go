// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	PlugfileNotFoundId Id = iota + 1
	PlugfileParseErrorId
	GitNotFoundId
	ConfigLoadFailedId
	InstallRootNotWritableId
	PackageFetchFailedId
	HookFailedId
	SelfUpdateFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
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

	plugfileNotFoundIssue = &Issue{
		id: PlugfileNotFoundId,
		mdMsg: `
# No plugfile found!

We searched for a plugfile but couldn't find one in the expected locations.

## Search locations (in order of precedence):
1. Path given via the --plugfile flag
2. $PLUGMAN_PLUGFILE environment variable
3. plugfile.cue / plugfile.toml in the current directory
4. plugfile.cue / plugfile.toml in your config directory

## Things you can try:
- Create a plugfile.cue in your current directory:
~~~cue
packages: [
  "tpope/vim-fugitive",
  {
    source: "neovim/nvim-lspconfig"
    branch: "master"
  },
]
~~~

- Or point plugman at an existing one:
~~~
$ plugman install --plugfile /path/to/plugfile.cue
~~~`,
	}

	plugfileParseErrorIssue = &Issue{
		id: PlugfileParseErrorId,
		mdMsg: `
# Failed to parse plugfile!

Your plugfile contains syntax errors or invalid configuration.

## Common issues:
- Invalid CUE or TOML syntax (missing quotes, braces, etc.)
- Unknown field names
- Invalid values for known fields
- Missing required fields (source for package tables)

## Things you can try:
- Check the error message above for the specific field or position
- Run with verbose mode for more details:
~~~
$ plugman --verbose install
~~~

## Example of a valid package entry:
~~~cue
packages: [
  "junegunn/fzf",
  {
    source: "nvim-treesitter/nvim-treesitter"
    post_checkout: "nvim --headless -c 'TSUpdateSync' -c q"
    dependencies: ["nvim-lua/plenary.nvim"]
  },
]
~~~`,
	}

	gitNotFoundIssue = &Issue{
		id: GitNotFoundId,
		mdMsg: `
# Git executable not found!

Plugman installs and upgrades packages by invoking the git command line
tool, but no git executable was found on your PATH.

## Things you can try:
- Install git:
  - Linux: ` + "`sudo apt install git`" + ` or ` + "`sudo dnf install git`" + `
  - macOS: ` + "`brew install git`" + ` or ` + "`xcode-select --install`" + `
  - Windows: Download from https://git-scm.com/download/win

- Verify git is on your PATH:
~~~
$ git --version
~~~`,
		extLinks: []HttpLink{"https://git-scm.com/downloads"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the plugman configuration file.

## Configuration file locations:
- Linux: ~/.config/plugman/config.cue
- macOS: ~/Library/Application Support/plugman/config.cue
- Windows: %APPDATA%\plugman\config.cue

## Things you can try:
- Check the configuration syntax
- Remove the config file to use defaults:
~~~
$ rm ~/.config/plugman/config.cue
~~~

## Example configuration:
~~~cue
install_root:    "/home/user/.local/share/nvim/site/pack/plugman/start"
git_remote_host: "github.com"
max_parallel:    8

ui: {
  verbose:  false
  no_color: false
}
~~~`,
	}

	installRootNotWritableIssue = &Issue{
		id: InstallRootNotWritableId,
		mdMsg: `
# Install root is not writable!

Plugman could not create or write to the plugin install root.

## Common causes:
- The install root points at a protected directory
- A parent directory is owned by another user
- The filesystem is mounted read-only

## Things you can try:
- Check directory ownership and permissions
- Point install_root at a directory you own:
~~~cue
install_root: "/home/user/.local/share/plugman/plugins"
~~~

- Create the directory yourself and retry:
~~~
$ mkdir -p ~/.local/share/plugman/plugins
~~~`,
	}

	packageFetchFailedIssue = &Issue{
		id: PackageFetchFailedId,
		mdMsg: `
# Package fetch failed!

A git clone or pull did not complete successfully.

## Common causes:
- The source shorthand or URL points at a repository that doesn't exist
- The named branch does not exist in the remote repository
- Network problems or the remote host being unreachable
- A pull that cannot fast-forward because local history diverged

## Things you can try:
- Check the package source spelling in your plugfile
- Verify the repository exists and is reachable:
~~~
$ git ls-remote https://github.com/owner/repo.git
~~~

- For diverged local checkouts, remove the plugin directory and reinstall:
~~~
$ plugman clean
$ plugman install
~~~`,
	}

	hookFailedIssue = &Issue{
		id: HookFailedId,
		mdMsg: `
# Package hook failed!

A post_checkout or configure script exited with a non-zero status.

## Things you can try:
- Run with verbose mode to see the script's output:
~~~
$ plugman --verbose install
~~~

- Test the script manually in the plugin's directory
- Check that tools the script needs are on your PATH
- Remove the hook from your plugfile if it is no longer needed`,
	}

	selfUpdateFailedIssue = &Issue{
		id: SelfUpdateFailedId,
		mdMsg: `
# Self-update failed!

Plugman could not replace itself with the latest release build.

## Common causes:
- No network connectivity to the release host
- No release asset published for your OS and architecture
- The plugman binary lives in a directory you cannot write to

## Things you can try:
- Check your network connection and retry
- Re-run with elevated permissions if plugman lives in a system directory
- Download the release manually and replace the binary yourself`,
	}

	issues = map[Id]*Issue{
		plugfileNotFoundIssue.Id():       plugfileNotFoundIssue,
		plugfileParseErrorIssue.Id():     plugfileParseErrorIssue,
		gitNotFoundIssue.Id():            gitNotFoundIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		installRootNotWritableIssue.Id(): installRootNotWritableIssue,
		packageFetchFailedIssue.Id():     packageFetchFailedIssue,
		hookFailedIssue.Id():             hookFailedIssue,
		selfUpdateFailedIssue.Id():       selfUpdateFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
