// Package id implements the versioned-index identity scheme used to name
// entities, viewports, resources, and jobs. An Id packs a slot index and a
// generation counter ("version") into a single unsigned integer so that a
// freed and reused slot produces a distinguishable identity.
package id

import "fmt"

// Bits describes how many of an Id's low bits belong to the version
// counter; the remaining high bits are the slot index. It is carried as a
// type parameter (via the zero-sized marker types below) rather than a
// runtime field because Go has no const generics — this is the idiomatic
// stand-in for Rust's `const VERSION_BITS: usize`.
type Bits interface {
	bits() uint
}

// Bits8 is the default version-bit width (24 bits of index, 8 bits of
// version), matching the `StandardVersionedIndexId<8>` used throughout the
// original engine for entities, viewports, resources, and jobs.
type Bits8 struct{}

func (Bits8) bits() uint { return 8 }

// Bits16 trades index range for a longer-lived version counter; useful for
// spaces that churn slots rapidly (e.g. long-running entity pools) and want
// ABA protection over a longer window at the cost of fewer live slots.
type Bits16 struct{}

func (Bits16) bits() uint { return 16 }

// Space disambiguates id spaces that otherwise share representation
// (uint32) so that, say, an EntityId can never be passed where a JobId is
// expected. Each space is a distinct zero-sized marker type.
type Space interface {
	space() string
}

// Id is a packed (index, version) identifier for space S using B version
// bits. The zero value packs index 0 at version 0, which is also the first
// id a fresh IdStorage's Reserve returns, so a zero Id is not by itself a
// "no id" marker.
type Id[S Space, B Bits] struct {
	raw uint32
}

// New packs index and version into an Id, this space's from_index_and_version.
// It traps (panics) if either field exceeds its bit budget rather than
// silently masking or wrapping it — an out-of-range index or version is a
// programmer error, the same "assert, don't silently corrupt" stance
// idstore.Free takes on a non-live id.
func New[S Space, B Bits](index uint32, version uint32) Id[S, B] {
	var b B
	bits := b.bits()
	versionMask := uint32(1)<<bits - 1
	indexBits := 32 - bits
	indexMask := uint32(1)<<indexBits - 1
	if index > indexMask {
		panic(fmt.Sprintf("id: index %d exceeds %d-bit capacity", index, indexBits))
	}
	if version > versionMask {
		panic(fmt.Sprintf("id: version %d exceeds %d-bit capacity", version, bits))
	}
	return Id[S, B]{raw: (index << bits) | (version & versionMask)}
}

// Index returns the slot index component.
func (i Id[S, B]) Index() uint32 {
	var b B
	return i.raw >> b.bits()
}

// Version returns the generation counter component.
func (i Id[S, B]) Version() uint32 {
	var b B
	versionMask := uint32(1)<<b.bits() - 1
	return i.raw & versionMask
}

// Raw returns the packed representation, useful as a map key or for
// transport across the JSON scene format.
func (i Id[S, B]) Raw() uint32 {
	return i.raw
}

// NextVersion returns an Id for the same index with the version advanced by
// one, wrapping around modulo 2^B. This is what IdStorage.Free uses to
// produce the next generation that Reserve later hands out for a recycled
// slot.
func (i Id[S, B]) NextVersion() Id[S, B] {
	var b B
	versionMask := uint32(1)<<b.bits() - 1
	nextVersion := (i.Version() + 1) & versionMask
	return New[S, B](i.Index(), nextVersion)
}

// String renders the id as "[index;version]", matching the original
// engine's Display implementation for StandardVersionedIndexId.
func (i Id[S, B]) String() string {
	return fmt.Sprintf("[%d;%d]", i.Index(), i.Version())
}
