// Package kv defines the message-based protocol of the key-value cache
// engine.
package kv

// Opcode selects the operation that the cache engine performs.
type Opcode uint8

// The operation encoding used across the engine. The zero opcode performs no
// storage access and completes immediately.
const (
	OpNoop Opcode = iota
	OpGet
	OpUpsert
	OpDelete
)

// String returns the mnemonic of the opcode.
func (o Opcode) String() string {
	switch o {
	case OpNoop:
		return "NOOP"
	case OpGet:
		return "GET"
	case OpUpsert:
		return "UPSERT"
	case OpDelete:
		return "DELETE"
	}

	return "UNKNOWN"
}

// A Key identifies an entry in the cache engine. Keys are compared as full
// words after masking to the configured key width.
type Key uint64

// A Value is the payload stored with a key.
type Value uint64

// Mask returns the key truncated to the given width in bits.
func (k Key) Mask(widthInBits int) Key {
	return k & Key(widthMask(widthInBits))
}

// Mask returns the value truncated to the given width in bits.
func (v Value) Mask(widthInBits int) Value {
	return v & Value(widthMask(widthInBits))
}

func widthMask(widthInBits int) uint64 {
	if widthInBits <= 0 || widthInBits > 64 {
		panic("width must be in the range (0, 64]")
	}

	if widthInBits == 64 {
		return ^uint64(0)
	}

	return (uint64(1) << widthInBits) - 1
}
