package kv

import (
	"github.com/sarchlab/kvcam/sim"
)

var opReqByteOverhead = 4
var opRspByteOverhead = 4

// An OpReq abstracts the operation requests that are sent to the cache
// engine.
type OpReq interface {
	sim.Msg
	GetOpcode() Opcode
	GetKey() Key
}

// A GetReq asks the engine for the value stored with a key.
type GetReq struct {
	sim.MsgMeta

	Key Key
}

// Meta returns the message meta.
func (r *GetReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the request with a different ID.
func (r *GetReq) Clone() sim.Msg {
	cloneMsg := *r
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// GetOpcode returns the opcode of the request.
func (r *GetReq) GetOpcode() Opcode {
	return OpGet
}

// GetKey returns the key that the request is looking up.
func (r *GetReq) GetKey() Key {
	return r.Key
}

// GetReqBuilder can build get requests.
type GetReqBuilder struct {
	src, dst sim.RemotePort
	key      Key
}

// WithSrc sets the source of the request to build.
func (b GetReqBuilder) WithSrc(src sim.RemotePort) GetReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request to build.
func (b GetReqBuilder) WithDst(dst sim.RemotePort) GetReqBuilder {
	b.dst = dst
	return b
}

// WithKey sets the key of the request to build.
func (b GetReqBuilder) WithKey(key Key) GetReqBuilder {
	b.key = key
	return b
}

// Build creates a new GetReq
func (b GetReqBuilder) Build() *GetReq {
	r := &GetReq{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.TrafficBytes = opReqByteOverhead
	r.Key = b.key
	return r
}

// A NoopReq performs no storage access and completes immediately.
type NoopReq struct {
	sim.MsgMeta
}

// Meta returns the message meta.
func (r *NoopReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the request with a different ID.
func (r *NoopReq) Clone() sim.Msg {
	cloneMsg := *r
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// GetOpcode returns the opcode of the request.
func (r *NoopReq) GetOpcode() Opcode {
	return OpNoop
}

// GetKey returns zero. A no-op carries no key operand.
func (r *NoopReq) GetKey() Key {
	return 0
}

// NoopReqBuilder can build no-op requests.
type NoopReqBuilder struct {
	src, dst sim.RemotePort
}

// WithSrc sets the source of the request to build.
func (b NoopReqBuilder) WithSrc(src sim.RemotePort) NoopReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request to build.
func (b NoopReqBuilder) WithDst(dst sim.RemotePort) NoopReqBuilder {
	b.dst = dst
	return b
}

// Build creates a new NoopReq
func (b NoopReqBuilder) Build() *NoopReq {
	r := &NoopReq{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.TrafficBytes = opReqByteOverhead
	return r
}

// An UpsertReq inserts a key-value pair, overwriting the value if the key is
// already stored.
type UpsertReq struct {
	sim.MsgMeta

	Key   Key
	Value Value
}

// Meta returns the message meta.
func (r *UpsertReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the request with a different ID.
func (r *UpsertReq) Clone() sim.Msg {
	cloneMsg := *r
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// GetOpcode returns the opcode of the request.
func (r *UpsertReq) GetOpcode() Opcode {
	return OpUpsert
}

// GetKey returns the key that the request is storing to.
func (r *UpsertReq) GetKey() Key {
	return r.Key
}

// UpsertReqBuilder can build upsert requests.
type UpsertReqBuilder struct {
	src, dst sim.RemotePort
	key      Key
	value    Value
}

// WithSrc sets the source of the request to build.
func (b UpsertReqBuilder) WithSrc(src sim.RemotePort) UpsertReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request to build.
func (b UpsertReqBuilder) WithDst(dst sim.RemotePort) UpsertReqBuilder {
	b.dst = dst
	return b
}

// WithKey sets the key of the request to build.
func (b UpsertReqBuilder) WithKey(key Key) UpsertReqBuilder {
	b.key = key
	return b
}

// WithValue sets the value of the request to build.
func (b UpsertReqBuilder) WithValue(value Value) UpsertReqBuilder {
	b.value = value
	return b
}

// Build creates a new UpsertReq
func (b UpsertReqBuilder) Build() *UpsertReq {
	r := &UpsertReq{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.TrafficBytes = opReqByteOverhead
	r.Key = b.key
	r.Value = b.value
	return r
}

// A DeleteReq removes the entry stored with a key.
type DeleteReq struct {
	sim.MsgMeta

	Key Key
}

// Meta returns the message meta.
func (r *DeleteReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the request with a different ID.
func (r *DeleteReq) Clone() sim.Msg {
	cloneMsg := *r
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// GetOpcode returns the opcode of the request.
func (r *DeleteReq) GetOpcode() Opcode {
	return OpDelete
}

// GetKey returns the key that the request is removing.
func (r *DeleteReq) GetKey() Key {
	return r.Key
}

// DeleteReqBuilder can build delete requests.
type DeleteReqBuilder struct {
	src, dst sim.RemotePort
	key      Key
}

// WithSrc sets the source of the request to build.
func (b DeleteReqBuilder) WithSrc(src sim.RemotePort) DeleteReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request to build.
func (b DeleteReqBuilder) WithDst(dst sim.RemotePort) DeleteReqBuilder {
	b.dst = dst
	return b
}

// WithKey sets the key of the request to build.
func (b DeleteReqBuilder) WithKey(key Key) DeleteReqBuilder {
	b.key = key
	return b
}

// Build creates a new DeleteReq
func (b DeleteReqBuilder) Build() *DeleteReq {
	r := &DeleteReq{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.TrafficBytes = opReqByteOverhead
	r.Key = b.key
	return r
}

// An OpRsp reports the completion of an operation. Done, Hit, and Error
// mirror the completion flags of the engine. SlotOneHot carries the one-hot
// encoding of the slot the operation touched, or zero if no slot was
// touched.
type OpRsp struct {
	sim.MsgMeta

	RespondTo string // The ID of the request it replies

	Done       bool
	Hit        bool
	Error      bool
	Value      Value
	SlotOneHot uint64
}

// Meta returns the message meta.
func (r *OpRsp) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the response with a different ID.
func (r *OpRsp) Clone() sim.Msg {
	cloneMsg := *r
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// GetRspTo returns the ID of the request that the response is responding to.
func (r *OpRsp) GetRspTo() string {
	return r.RespondTo
}

// OpRspBuilder can build operation responses.
type OpRspBuilder struct {
	src, dst   sim.RemotePort
	rspTo      string
	done       bool
	hit        bool
	err        bool
	value      Value
	slotOneHot uint64
}

// WithSrc sets the source of the response to build.
func (b OpRspBuilder) WithSrc(src sim.RemotePort) OpRspBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the response to build.
func (b OpRspBuilder) WithDst(dst sim.RemotePort) OpRspBuilder {
	b.dst = dst
	return b
}

// WithRspTo sets ID of the request that the response to build is replying to.
func (b OpRspBuilder) WithRspTo(id string) OpRspBuilder {
	b.rspTo = id
	return b
}

// WithDone marks the operation as completed.
func (b OpRspBuilder) WithDone() OpRspBuilder {
	b.done = true
	return b
}

// WithHit marks that the operation matched a stored key.
func (b OpRspBuilder) WithHit() OpRspBuilder {
	b.hit = true
	return b
}

// WithError marks that the operation failed.
func (b OpRspBuilder) WithError() OpRspBuilder {
	b.err = true
	return b
}

// WithValue sets the value carried by the response to build.
func (b OpRspBuilder) WithValue(value Value) OpRspBuilder {
	b.value = value
	return b
}

// WithSlotOneHot sets the one-hot slot vector of the response to build.
func (b OpRspBuilder) WithSlotOneHot(slotOneHot uint64) OpRspBuilder {
	b.slotOneHot = slotOneHot
	return b
}

// Build creates a new OpRsp
func (b OpRspBuilder) Build() *OpRsp {
	r := &OpRsp{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.TrafficBytes = opRspByteOverhead
	r.RespondTo = b.rspTo
	r.Done = b.done
	r.Hit = b.hit
	r.Error = b.err
	r.Value = b.value
	r.SlotOneHot = b.slotOneHot
	return r
}

// ControlMsg is the message type for controlling the engine components. It
// models the enable, reset, and mid-operation restart pins of the engine.
type ControlMsg struct {
	sim.MsgMeta

	Enable bool
	Reset  bool
	Abort  bool
}

// Meta returns the message meta.
func (m *ControlMsg) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

// Clone returns a copy of the message with a different ID.
func (m *ControlMsg) Clone() sim.Msg {
	cloneMsg := *m
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// GenerateRsp generates a response to the control message.
func (m *ControlMsg) GenerateRsp() sim.Rsp {
	rsp := sim.GeneralRspBuilder{}.
		WithSrc(m.Dst).
		WithDst(m.Src).
		WithOriginalReq(m).
		Build()

	return rsp
}

// A ControlMsgBuilder can build control messages.
type ControlMsgBuilder struct {
	src, dst sim.RemotePort
	enable   bool
	reset    bool
	abort    bool
}

// WithSrc sets the source of the message to build.
func (b ControlMsgBuilder) WithSrc(src sim.RemotePort) ControlMsgBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the message to build.
func (b ControlMsgBuilder) WithDst(dst sim.RemotePort) ControlMsgBuilder {
	b.dst = dst
	return b
}

// WithEnable sets the enable bit of the message to build.
func (b ControlMsgBuilder) WithEnable(flag bool) ControlMsgBuilder {
	b.enable = flag
	return b
}

// WithReset sets the reset bit of the message to build.
func (b ControlMsgBuilder) WithReset() ControlMsgBuilder {
	b.reset = true
	return b
}

// WithAbort sets the abort bit of the message to build. Abort discards the
// operation in flight without modifying storage.
func (b ControlMsgBuilder) WithAbort() ControlMsgBuilder {
	b.abort = true
	return b
}

// Build creates a new ControlMsg.
func (b ControlMsgBuilder) Build() *ControlMsg {
	m := &ControlMsg{}
	m.ID = sim.GetIDGenerator().Generate()
	m.Src = b.src
	m.Dst = b.dst
	m.TrafficBytes = opReqByteOverhead
	m.Enable = b.enable
	m.Reset = b.reset
	m.Abort = b.abort

	return m
}
