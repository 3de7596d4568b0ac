package sh

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/maxmix/maxmix.go/pkg/msgs"
)

// TypeNames lists the names of all message types.
func TypeNames() []string {
	var names []string
	for t := msgs.TypeSettings; t.IsValid(); t++ {
		names = append(names, t.String())
	}
	return names
}

// ResolveType parses a message type name, accepting an unambiguous
// abbreviation like "sess" or "vnext".
func ResolveType(name string) (msgs.MessageType, error) {
	if t, err := msgs.ParseMessageType(name); err == nil {
		return t, nil
	}
	ranks := fuzzy.RankFindNormalizedFold(strings.Replace(name, "-", "_", -1), TypeNames())
	switch len(ranks) {
	case 0:
		return 0, fmt.Errorf("unknown message type %q", name)
	case 1:
		return msgs.ParseMessageType(ranks[0].Target)
	}
	sort.Sort(ranks)
	candidates := make([]string, len(ranks))
	for n, rank := range ranks {
		candidates[n] = rank.Target
	}
	return 0, fmt.Errorf("ambiguous message type %q: %s", name, strings.Join(candidates, ", "))
}

// completeTypes completes the TYPE argument.
func completeTypes(args []string) []string {
	if len(args) > 0 {
		return nil
	}
	return TypeNames()
}
