package cmds

import (
	"fmt"
	"os"
	"slices"
	"sort"
)

// PrintUsage renders every command registered on p to stdout, one line
// per distinct *Command (aliases collapsed onto their first name),
// recursing into Subs with indentation.
func (p *Executor) PrintUsage() {
	printCommands(os.Stdout, p.commands, 0)
}

func printCommands(w *os.File, commands map[string]*Command, depth int) {
	names := make([]string, 0, len(commands))
	seen := make(map[*Command]bool, len(commands))
	for name, cmd := range commands {
		if slices.Contains(cmd.Aliases, name) {
			continue
		}
		if seen[cmd] {
			continue
		}
		seen[cmd] = true
		names = append(names, name)
	}
	sort.Strings(names)

	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}

	for _, name := range names {
		cmd := commands[name]
		line := indent + name
		if len(cmd.Aliases) > 0 {
			line += fmt.Sprintf(" (%v)", cmd.Aliases)
		}
		if cmd.Description != "" {
			line += "  " + cmd.Description
		}
		fmt.Fprintln(w, line)
		if len(cmd.Subs) > 0 {
			printCommands(w, cmd.Subs, depth+1)
		}
	}
}
