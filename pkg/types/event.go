// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Purpose is the pipeline stage a resolver unit applies to.
type Purpose string

const (
	PurposeIdentify    Purpose = "identify"
	PurposeExpand      Purpose = "expand"
	PurposeDereference Purpose = "dereference"
)

// Stages lists the purposes in load-cycle order.
var Stages = []Purpose{PurposeIdentify, PurposeExpand, PurposeDereference}

// ParsePurpose validates a purpose name.
func ParsePurpose(s string) (Purpose, error) {
	for _, p := range Stages {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown purpose %q", s)
}

// Category classifies the outcome of one resolver call.
type Category string

const (
	CategoryTimeout    Category = "timeout"
	CategoryConnection Category = "connection"
	CategoryServer     Category = "server"
	CategoryUnknown    Category = "unknown"
	CategorySuccess    Category = "success"

	// CategoryIgnored marks an expected negative result, such as a title
	// search hit that did not match the document. It is never a failure.
	CategoryIgnored Category = "ignored"
)

// IsFailure reports whether the category counts as an error.
func (c Category) IsFailure() bool {
	switch c {
	case CategoryTimeout, CategoryConnection, CategoryServer, CategoryUnknown:
		return true
	default:
		return false
	}
}

// Event records the outcome of one resolver call during a load cycle.
type Event struct {
	Component string   `json:"component" yaml:"component"`
	Method    string   `json:"method" yaml:"method"`
	Category  Category `json:"category" yaml:"category"`
	Message   string   `json:"message,omitempty" yaml:"message,omitempty"`
}

// Annotation is a structured record surfaced to the host for display.
type Annotation struct {
	Concept    string            `json:"concept" yaml:"concept"`
	Name       string            `json:"name,omitempty" yaml:"name,omitempty"`
	HTML       string            `json:"html,omitempty" yaml:"html,omitempty"`
	Weight     int               `json:"weight" yaml:"weight"`
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
}
