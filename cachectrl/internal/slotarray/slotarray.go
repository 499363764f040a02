// Package slotarray provides the fixed-capacity associative store of the
// cache engine.
package slotarray

import (
	"fmt"
	"math/bits"
)

// A Slot is one entry of the array. A slot only carries meaningful data when
// the matching occupancy bit is set.
type Slot struct {
	Key   uint64
	Value uint64
}

// A SlotArray stores key-value pairs in a fixed number of slots. All valid
// slots are compared in parallel on lookup. Slot indices are plain integers;
// one-hot encoding is only produced at the interface boundary through OneHot.
type SlotArray struct {
	slots     []Slot
	occupancy uint64
}

// New creates a SlotArray with the given number of slots.
func New(numSlots int) *SlotArray {
	if numSlots <= 0 || numSlots > 64 {
		panic("number of slots must be in the range (0, 64]")
	}

	return &SlotArray{
		slots: make([]Slot, numSlots),
	}
}

// NumSlots returns the capacity of the array.
func (a *SlotArray) NumSlots() int {
	return len(a.slots)
}

// Lookup finds the slot that holds the given key. It returns the slot index
// and whether a valid slot matched. At most one valid slot can hold a key.
func (a *SlotArray) Lookup(key uint64) (slot int, hit bool) {
	for i := range a.slots {
		if a.isValid(i) && a.slots[i].Key == key {
			return i, true
		}
	}

	return 0, false
}

// FirstFree returns the lowest-index free slot. ok is false when the array
// is full.
func (a *SlotArray) FirstFree() (slot int, ok bool) {
	free := ^a.occupancy & a.capacityMask()
	if free == 0 {
		return 0, false
	}

	return bits.TrailingZeros64(free), true
}

// Write stores a key-value pair into a slot and marks the slot valid.
func (a *SlotArray) Write(slot int, key, value uint64) {
	a.slotMustBeInRange(slot)

	a.slots[slot] = Slot{Key: key, Value: value}
	a.occupancy |= uint64(1) << slot
}

// Read returns the key and value stored in a slot.
func (a *SlotArray) Read(slot int) (key, value uint64) {
	a.slotMustBeInRange(slot)

	return a.slots[slot].Key, a.slots[slot].Value
}

// Clear invalidates a slot. The slot data is zeroed so that stale entries
// never become observable again.
func (a *SlotArray) Clear(slot int) {
	a.slotMustBeInRange(slot)

	a.slots[slot] = Slot{}
	a.occupancy &^= uint64(1) << slot
}

// Reset invalidates all slots.
func (a *SlotArray) Reset() {
	for i := range a.slots {
		a.slots[i] = Slot{}
	}

	a.occupancy = 0
}

// Occupancy returns the valid bitmap of the array, bit i reporting slot i.
func (a *SlotArray) Occupancy() uint64 {
	return a.occupancy
}

// Count returns the number of valid slots. It always equals the population
// count of the occupancy bitmap.
func (a *SlotArray) Count() int {
	return bits.OnesCount64(a.occupancy)
}

// Full returns true when every slot is valid.
func (a *SlotArray) Full() bool {
	return a.occupancy == a.capacityMask()
}

// OneHot returns the one-hot encoding of a slot index.
func (a *SlotArray) OneHot(slot int) uint64 {
	a.slotMustBeInRange(slot)

	return uint64(1) << slot
}

func (a *SlotArray) isValid(slot int) bool {
	return a.occupancy&(uint64(1)<<slot) != 0
}

func (a *SlotArray) capacityMask() uint64 {
	if len(a.slots) == 64 {
		return ^uint64(0)
	}

	return (uint64(1) << len(a.slots)) - 1
}

func (a *SlotArray) slotMustBeInRange(slot int) {
	if slot < 0 || slot >= len(a.slots) {
		panic(fmt.Sprintf("slot %d out of range [0, %d)", slot, len(a.slots)))
	}
}
