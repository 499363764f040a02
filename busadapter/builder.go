package busadapter

import (
	"github.com/sarchlab/kvcam/sim"
)

// Builder can build bus interface adapters.
type Builder struct {
	engine           sim.Engine
	controller       sim.RemotePort
	keyWidthInBits   int
	valueWidthInBits int
	busBufSize       int
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		keyWidthInBits:   16,
		valueWidthInBits: 64,
		busBufSize:       4,
	}
}

// WithEngine sets the engine that drives the adapter.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithController sets the remote port of the dispatch controller that the
// adapter drives.
func (b Builder) WithController(controller sim.RemotePort) Builder {
	b.controller = controller
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

// WithBusBufSize sets the buffer capacity of the Bus port.
func (b Builder) WithBusBufSize(busBufSize int) Builder {
	b.busBufSize = busBufSize
	return b
}

// Build creates a bus interface adapter with the given name.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		controller:       b.controller,
		keyWidthInBits:   b.keyWidthInBits,
		valueWidthInBits: b.valueWidthInBits,
		enabled:          true,
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, c)

	c.busPort = sim.NewPort(c, b.busBufSize, b.busBufSize, name+".Bus")
	c.AddPort("Bus", c.busPort)

	c.bottomPort = sim.NewPort(c, 1, 1, name+".Bottom")
	c.AddPort("Bottom", c.bottomPort)

	c.ctrlPort = sim.NewPort(c, 1, 1, name+".Ctrl")
	c.AddPort("Ctrl", c.ctrlPort)

	c.AddMiddleware(&ctrlMiddleware{Comp: c})
	c.AddMiddleware(&busMiddleware{Comp: c})

	return c
}
