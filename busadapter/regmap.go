package busadapter

// The register map of the adapter. Registers are 32-bit words addressed by
// byte offset. The 64-bit VALUE operand and RESULT are split over two
// consecutive words, low word first.
const (
	RegValueLo   = 0x00
	RegValueHi   = 0x04
	RegKey       = 0x08
	RegOperation = 0x0C
	RegStatus    = 0x10
	RegResultLo  = 0x14
	RegResultHi  = 0x18
)

// The bit layout of the STATUS register.
const (
	StatusDoneBit  = 1 << 0
	StatusHitBit   = 1 << 1
	StatusErrorBit = 1 << 2

	statusStateShift = 3
)
