package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Variables []*Variable `hcl:"variable,block"`
	Tasks     []*Task     `hcl:"task,block"`
}

// Variable is the HCL schema of a `variable "<name>" {}` block.
type Variable struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
	Description string         `hcl:"description,optional"`
}

// Task is the HCL schema of a `task "<kind>" "<name>" {}` block.
type Task struct {
	Kind        string         `hcl:"kind,label"`
	Name        string         `hcl:"name,label"`
	Description string         `hcl:"description,optional"`
	Retries     hcl.Expression `hcl:"retries,optional"`
	Timeout     hcl.Expression `hcl:"timeout,optional"`
	Arguments   *BodyBlock     `hcl:"arguments,block"`
	Inputs      *BodyBlock     `hcl:"inputs,block"`
}

// BodyBlock captures a block whose attributes are free-form.
type BodyBlock struct {
	Body hcl.Body `hcl:",remain"`
}
