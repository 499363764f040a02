package sim

import (
	. "github.com/onsi/ginkgo/v2"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("SerialEngine", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *SerialEngine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewSerialEngine()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should schedule events", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)
		evt1 := NewMockEvent(mockCtrl)
		evt2 := NewMockEvent(mockCtrl)
		evt3 := NewMockEvent(mockCtrl)
		evt4 := NewMockEvent(mockCtrl)

		evt1.EXPECT().Cycle().Return(VCycle(4)).AnyTimes()
		evt1.EXPECT().Handler().Return(handler1).AnyTimes()
		evt1.EXPECT().IsSecondary().Return(false).AnyTimes()
		evt2.EXPECT().Cycle().Return(VCycle(2)).AnyTimes()
		evt2.EXPECT().Handler().Return(handler2).AnyTimes()
		evt2.EXPECT().IsSecondary().Return(false).AnyTimes()
		evt3.EXPECT().Cycle().Return(VCycle(3)).AnyTimes()
		evt3.EXPECT().Handler().Return(handler1).AnyTimes()
		evt3.EXPECT().IsSecondary().Return(false).AnyTimes()
		evt4.EXPECT().Cycle().Return(VCycle(5)).AnyTimes()
		evt4.EXPECT().Handler().Return(handler1).AnyTimes()
		evt4.EXPECT().IsSecondary().Return(false).AnyTimes()
		handleEvt2 := handler2.EXPECT().Handle(evt2).Do(func(_ Event) {
			engine.Schedule(evt3)
			engine.Schedule(evt4)
		})
		handleEvt3 := handler1.EXPECT().
			Handle(evt3).Do(func(_ Event) {}).After(handleEvt2)
		handleEvt1 := handler1.EXPECT().
			Handle(evt1).Do(func(_ Event) {}).After(handleEvt3)
		handler1.EXPECT().
			Handle(evt4).Do(func(_ Event) {}).After(handleEvt1)

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		_ = engine.Run()
	})

	It("should consider secondary events", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)
		handler3 := NewMockHandler(mockCtrl)
		evt1 := NewMockEvent(mockCtrl)
		evt2 := NewMockEvent(mockCtrl)
		evt3 := NewMockEvent(mockCtrl)

		evt1.EXPECT().Cycle().Return(VCycle(2)).AnyTimes()
		evt1.EXPECT().Handler().Return(handler1).AnyTimes()
		evt1.EXPECT().IsSecondary().Return(true).AnyTimes()
		evt2.EXPECT().Cycle().Return(VCycle(2)).AnyTimes()
		evt2.EXPECT().Handler().Return(handler2).AnyTimes()
		evt2.EXPECT().IsSecondary().Return(false).AnyTimes()
		evt3.EXPECT().Cycle().Return(VCycle(2)).AnyTimes()
		evt3.EXPECT().Handler().Return(handler3).AnyTimes()
		evt3.EXPECT().IsSecondary().Return(false).AnyTimes()

		handleEvt2 := handler2.EXPECT().Handle(evt2)
		handleEvt3 := handler3.EXPECT().Handle(evt3)
		handler1.EXPECT().
			Handle(evt1).Do(func(_ Event) {}).
			After(handleEvt2).
			After(handleEvt3)

		engine.Schedule(evt1)
		engine.Schedule(evt2)
		engine.Schedule(evt3)

		_ = engine.Run()
	})
})
