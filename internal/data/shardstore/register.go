package shardstore

import (
	"encoding/gob"

	"codeindex/internal/engine/parser"
)

// gob requires every concrete type that flows through a Symbol's or
// Reference's Payload (an `any`) to be registered once, since the
// encoder only has the interface's static type to go on.
func init() {
	gob.Register(parser.Definition{})
	gob.Register(parser.Reference{})
}
