package cachectrl

import (
	"github.com/sarchlab/kvcam/cachectrl/internal/slotarray"
	"github.com/sarchlab/kvcam/sim"
)

// Builder can build dispatch controllers.
type Builder struct {
	engine           sim.Engine
	numSlots         int
	keyWidthInBits   int
	valueWidthInBits int
	topBufSize       int
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		numSlots:         16,
		keyWidthInBits:   16,
		valueWidthInBits: 64,
		topBufSize:       4,
	}
}

// WithEngine sets the engine that drives the controller.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithNumSlots sets the capacity of the slot array.
func (b Builder) WithNumSlots(numSlots int) Builder {
	b.numSlots = numSlots
	return b
}

// WithKeyWidth sets the key width in bits.
func (b Builder) WithKeyWidth(widthInBits int) Builder {
	b.keyWidthInBits = widthInBits
	return b
}

// WithValueWidth sets the value width in bits.
func (b Builder) WithValueWidth(widthInBits int) Builder {
	b.valueWidthInBits = widthInBits
	return b
}

// WithTopBufSize sets the buffer capacity of the Top port.
func (b Builder) WithTopBufSize(topBufSize int) Builder {
	b.topBufSize = topBufSize
	return b
}

// Build creates a dispatch controller with the given name.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		slots:            slotarray.New(b.numSlots),
		keyWidthInBits:   b.keyWidthInBits,
		valueWidthInBits: b.valueWidthInBits,
		enabled:          true,
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, c)

	c.topPort = sim.NewPort(c, b.topBufSize, b.topBufSize, name+".Top")
	c.AddPort("Top", c.topPort)

	c.ctrlPort = sim.NewPort(c, 1, 1, name+".Ctrl")
	c.AddPort("Ctrl", c.ctrlPort)

	c.AddMiddleware(&ctrlMiddleware{Comp: c})
	c.AddMiddleware(&opMiddleware{Comp: c})

	return c
}
