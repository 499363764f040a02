package directconnection

import "github.com/sarchlab/kvcam/sim"

// Builder can help building directconnection.
type Builder struct {
	engine sim.Engine
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{}
}

// WithEngine sets the engine that drives the connection.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// Build creates a new DirectConnection.
func (b Builder) Build(name string) *Comp {
	c := new(Comp)
	c.TickingComponent = sim.NewSecondaryTickingComponent(name, b.engine, c)
	c.portByRemote = make(map[sim.RemotePort]sim.Port)

	m := &middleware{Comp: c}
	c.AddMiddleware(m)

	return c
}
