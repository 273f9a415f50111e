package command

import (
	"sort"
	"strings"
)

// Candidate is a completion option with a description.
type Candidate struct {
	Value string // the text to insert
	Desc  string // short description
}

// Completer provides live completion for the command line.
type Completer struct {
	packages []string
}

// NewCompleter creates a completer.
func NewCompleter() *Completer {
	return &Completer{}
}

// SetPackageNames updates the names offered after install, info and friends.
func (c *Completer) SetPackageNames(names []string) {
	c.packages = names
}

// Complete returns candidates for the current input.
func (c *Completer) Complete(input string) []Candidate {
	parts := strings.Fields(input)
	trailing := strings.HasSuffix(input, " ")

	// No input yet or partial first word: show commands.
	if len(parts) == 0 || (len(parts) == 1 && !trailing) {
		prefix := ""
		if len(parts) == 1 {
			prefix = parts[0]
		}
		return topLevelCandidates(prefix)
	}

	spec, ok := commandTree[parts[0]]
	if !ok || spec.arg != argPackage {
		return nil
	}

	if (len(parts) == 1 && trailing) || (len(parts) == 2 && !trailing) {
		prefix := ""
		if len(parts) == 2 {
			prefix = parts[1]
		}
		return c.packageCandidates(prefix)
	}
	return nil
}

func topLevelCandidates(prefix string) []Candidate {
	keys := make([]string, 0, len(commandTree))
	for k := range commandTree {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var result []Candidate
	for _, k := range keys {
		if prefix == "" || strings.HasPrefix(k, prefix) {
			result = append(result, Candidate{Value: k, Desc: commandTree[k].desc})
		}
	}
	return result
}

func (c *Completer) packageCandidates(prefix string) []Candidate {
	var result []Candidate
	for _, name := range c.packages {
		if prefix == "" || strings.HasPrefix(name, prefix) {
			result = append(result, Candidate{Value: name, Desc: "package"})
		}
	}
	return result
}
