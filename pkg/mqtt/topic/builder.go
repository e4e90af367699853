package topic

import (
	"strings"
)

// Builder constructs topic strings under one root namespace.
type Builder struct {
	// root is the base namespace for all topics (e.g., "camlink/v1").
	root string
}

// NewBuilder creates a Builder for root. Surrounding slashes are ignored.
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.Trim(root, "/")}
}

// Build returns {root}/{segment}/{id}.
func (b *Builder) Build(segment, id string) string {
	return b.root + "/" + segment + "/" + id
}

func (b *Builder) Root() string { return b.root }
