package sim

import (
	"log"
	"reflect"
)

// PortMsgLogger is a hook for logging messages as they go across a Port
type PortMsgLogger struct {
	LogHookBase
	cycleTeller CycleTeller
}

// NewPortMsgLogger returns a new PortMsgLogger which will write into the
// logger
func NewPortMsgLogger(
	logger *log.Logger,
	cycleTeller CycleTeller,
) *PortMsgLogger {
	h := new(PortMsgLogger)
	h.Logger = logger
	h.cycleTeller = cycleTeller
	return h
}

// Func writes the message information into the logger
func (h *PortMsgLogger) Func(ctx HookCtx) {
	msg, ok := ctx.Item.(Msg)
	if !ok {
		return
	}

	h.Logger.Printf("%d,%s,%s,%s,%s,%s,%s\n",
		h.cycleTeller.CurrentCycle(),
		ctx.Domain.(Port).Name(),
		ctx.Pos.Name,
		msg.Meta().Src,
		msg.Meta().Dst,
		reflect.TypeOf(msg), msg.Meta().ID)
}
