package target

import "io"

// FlagTarget is a marker file signalling that a step happened. Only its
// existence matters.
type FlagTarget struct {
	FileTarget
}

func NewFlag(name, path string) FlagTarget {
	return FlagTarget{FileTarget: NewFile(name, path)}
}

func (f FlagTarget) Kind() Kind { return Flag }

// Touch creates the marker atomically.
func (f FlagTarget) Touch() error {
	return WriteFile(f, func(io.Writer) error { return nil })
}
