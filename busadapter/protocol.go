package busadapter

import (
	"github.com/sarchlab/kvcam/sim"
)

var regReqByteOverhead = 4
var regRspByteOverhead = 4

// A RegReadReq reads one 32-bit register word.
type RegReadReq struct {
	sim.MsgMeta

	Address uint64
}

// Meta returns the message meta.
func (r *RegReadReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the request with a different ID.
func (r *RegReadReq) Clone() sim.Msg {
	cloneMsg := *r
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// RegReadReqBuilder can build register read requests.
type RegReadReqBuilder struct {
	src, dst sim.RemotePort
	address  uint64
}

// WithSrc sets the source of the request to build.
func (b RegReadReqBuilder) WithSrc(src sim.RemotePort) RegReadReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request to build.
func (b RegReadReqBuilder) WithDst(dst sim.RemotePort) RegReadReqBuilder {
	b.dst = dst
	return b
}

// WithAddress sets the byte offset of the register to read.
func (b RegReadReqBuilder) WithAddress(address uint64) RegReadReqBuilder {
	b.address = address
	return b
}

// Build creates a new RegReadReq
func (b RegReadReqBuilder) Build() *RegReadReq {
	r := &RegReadReq{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.TrafficBytes = regReqByteOverhead
	r.Address = b.address
	return r
}

// A RegWriteReq writes one 32-bit register word. ByteEnable selects the
// bytes of the word that take effect.
type RegWriteReq struct {
	sim.MsgMeta

	Address    uint64
	Data       uint32
	ByteEnable uint8
}

// Meta returns the message meta.
func (r *RegWriteReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the request with a different ID.
func (r *RegWriteReq) Clone() sim.Msg {
	cloneMsg := *r
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// RegWriteReqBuilder can build register write requests.
type RegWriteReqBuilder struct {
	src, dst   sim.RemotePort
	address    uint64
	data       uint32
	byteEnable uint8
}

// WithSrc sets the source of the request to build.
func (b RegWriteReqBuilder) WithSrc(src sim.RemotePort) RegWriteReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request to build.
func (b RegWriteReqBuilder) WithDst(dst sim.RemotePort) RegWriteReqBuilder {
	b.dst = dst
	return b
}

// WithAddress sets the byte offset of the register to write.
func (b RegWriteReqBuilder) WithAddress(address uint64) RegWriteReqBuilder {
	b.address = address
	return b
}

// WithData sets the word to write.
func (b RegWriteReqBuilder) WithData(data uint32) RegWriteReqBuilder {
	b.data = data
	return b
}

// WithByteEnable selects the bytes of the word that take effect. The default
// enables the whole word.
func (b RegWriteReqBuilder) WithByteEnable(byteEnable uint8) RegWriteReqBuilder {
	b.byteEnable = byteEnable
	return b
}

// Build creates a new RegWriteReq
func (b RegWriteReqBuilder) Build() *RegWriteReq {
	r := &RegWriteReq{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.TrafficBytes = regReqByteOverhead
	r.Address = b.address
	r.Data = b.data
	r.ByteEnable = b.byteEnable
	if r.ByteEnable == 0 {
		r.ByteEnable = 0xF
	}
	return r
}

// A RegReadRsp carries the word returned by a register read.
type RegReadRsp struct {
	sim.MsgMeta

	RespondTo string
	Data      uint32
}

// Meta returns the message meta.
func (r *RegReadRsp) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the response with a different ID.
func (r *RegReadRsp) Clone() sim.Msg {
	cloneMsg := *r
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// GetRspTo returns the ID of the request that the response is responding to.
func (r *RegReadRsp) GetRspTo() string {
	return r.RespondTo
}

// RegReadRspBuilder can build register read responses.
type RegReadRspBuilder struct {
	src, dst sim.RemotePort
	rspTo    string
	data     uint32
}

// WithSrc sets the source of the response to build.
func (b RegReadRspBuilder) WithSrc(src sim.RemotePort) RegReadRspBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the response to build.
func (b RegReadRspBuilder) WithDst(dst sim.RemotePort) RegReadRspBuilder {
	b.dst = dst
	return b
}

// WithRspTo sets the ID of the request that the response is replying to.
func (b RegReadRspBuilder) WithRspTo(id string) RegReadRspBuilder {
	b.rspTo = id
	return b
}

// WithData sets the word carried by the response to build.
func (b RegReadRspBuilder) WithData(data uint32) RegReadRspBuilder {
	b.data = data
	return b
}

// Build creates a new RegReadRsp
func (b RegReadRspBuilder) Build() *RegReadRsp {
	r := &RegReadRsp{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.TrafficBytes = regRspByteOverhead
	r.RespondTo = b.rspTo
	r.Data = b.data
	return r
}

// A RegWriteRsp acknowledges a register write.
type RegWriteRsp struct {
	sim.MsgMeta

	RespondTo string
}

// Meta returns the message meta.
func (r *RegWriteRsp) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the response with a different ID.
func (r *RegWriteRsp) Clone() sim.Msg {
	cloneMsg := *r
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// GetRspTo returns the ID of the request that the response is responding to.
func (r *RegWriteRsp) GetRspTo() string {
	return r.RespondTo
}

// RegWriteRspBuilder can build register write responses.
type RegWriteRspBuilder struct {
	src, dst sim.RemotePort
	rspTo    string
}

// WithSrc sets the source of the response to build.
func (b RegWriteRspBuilder) WithSrc(src sim.RemotePort) RegWriteRspBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the response to build.
func (b RegWriteRspBuilder) WithDst(dst sim.RemotePort) RegWriteRspBuilder {
	b.dst = dst
	return b
}

// WithRspTo sets the ID of the request that the response is replying to.
func (b RegWriteRspBuilder) WithRspTo(id string) RegWriteRspBuilder {
	b.rspTo = id
	return b
}

// Build creates a new RegWriteRsp
func (b RegWriteRspBuilder) Build() *RegWriteRsp {
	r := &RegWriteRsp{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.TrafficBytes = regRspByteOverhead
	r.RespondTo = b.rspTo
	return r
}
