package cmds

// GlobalExecutor is the process-wide command table package-level
// Define registers into, the way flag-style command definitions
// (Var/Switch/Collect, logs' -log-debug family) accumulate across
// init() calls in every package that imports cmds.
var GlobalExecutor = NewExecutor()

// Define registers command against GlobalExecutor.
func Define(name string, command *Command) {
	GlobalExecutor.Define(name, command)
}
