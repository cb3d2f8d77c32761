package task

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/gridflow/internal/target"
)

// Targets maps input or output names to targets.
type Targets map[string]target.Target

// Get returns the named target or an error naming the missing key.
func (t Targets) Get(name string) (target.Target, error) {
	tg, ok := t[name]
	if !ok || tg == nil {
		return nil, fmt.Errorf("%w: no target named %q (have %v)", ErrUnresolvedOutput, name, t.Names())
	}
	return tg, nil
}

// Names returns the keys in lexical order.
func (t Targets) Names() []string {
	names := make([]string, 0, len(t))
	for n := range t {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
