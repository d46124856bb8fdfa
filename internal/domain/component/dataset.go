package component

import "strings"

// Dataset is an immutable snapshot of the reference tables. Nothing in the
// codebase mutates a Dataset after it has been built.
type Dataset struct {
	Records  []Record
	Commands []CommandDescriptor
}

// Empty returns a dataset with no rows.
func Empty() *Dataset {
	return &Dataset{}
}

// Len returns the number of reference rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// DescribeCommand finds the first descriptor whose syntax contains the
// first token of cmd. ok is false when nothing matches.
func (d *Dataset) DescribeCommand(cmd string) (CommandDescriptor, bool) {
	if d == nil {
		return CommandDescriptor{}, false
	}
	r := Record{SECommands: cmd}
	token := r.FirstCommand()
	if token == "" {
		return CommandDescriptor{}, false
	}
	for _, c := range d.Commands {
		if strings.Contains(c.Syntax, token) {
			return c, true
		}
	}
	return CommandDescriptor{}, false
}
