package task

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

const idHashLen = 12

// ID returns the value-based identity of t: two instances with equal kind,
// params and dependencies have the same ID.
func ID(t Task) (string, error) {
	return newIdentifier().id(t)
}

// IdentityOf computes the ID of t given the IDs of its direct upstream tasks.
// upstream maps each dependency name to the upstream task's ID.
func IdentityOf(t Task, upstream map[string]string) (string, error) {
	canon, err := t.Params().Canonical()
	if err != nil {
		return "", fmt.Errorf("%s: %w", t.Kind(), err)
	}
	deps := t.Dependencies()
	names := make([]string, 0, len(deps))
	for n := range deps {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(t.Kind())
	b.WriteByte(0)
	b.WriteString(canon)
	for _, n := range names {
		upID, ok := upstream[n]
		if !ok {
			return "", fmt.Errorf("%s: missing upstream id for input %q", t.Kind(), n)
		}
		fmt.Fprintf(&b, "\x00%s=%s#%s", n, upID, deps[n].Output)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return t.Kind() + "_" + hex.EncodeToString(sum[:])[:idHashLen], nil
}

// CheckComparable rejects tasks that cannot be used as map keys.
func CheckComparable(t Task) error {
	if t == nil {
		return fmt.Errorf("%w: nil task", ErrInvalidTask)
	}
	if !reflect.TypeOf(t).Comparable() {
		return fmt.Errorf("%w: %s is a non-comparable %T, use a pointer type", ErrInvalidTask, t.Kind(), t)
	}
	return nil
}

type identifier struct {
	memo     map[Task]string
	visiting map[Task]bool
}

func newIdentifier() *identifier {
	return &identifier{memo: map[Task]string{}, visiting: map[Task]bool{}}
}

func (i *identifier) id(t Task) (string, error) {
	if err := CheckComparable(t); err != nil {
		return "", err
	}
	if id, ok := i.memo[t]; ok {
		return id, nil
	}
	if i.visiting[t] {
		return "", fmt.Errorf("%w: through %s", ErrCyclicDependency, NameOf(t))
	}
	i.visiting[t] = true
	defer delete(i.visiting, t)

	upstream := make(map[string]string)
	for name, spec := range t.Dependencies() {
		upID, err := i.id(spec.Task)
		if err != nil {
			return "", err
		}
		upstream[name] = upID
	}
	id, err := IdentityOf(t, upstream)
	if err != nil {
		return "", err
	}
	i.memo[t] = id
	return id, nil
}
