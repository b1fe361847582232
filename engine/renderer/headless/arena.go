package headless

import (
	"encoding/binary"
	m "math"

	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// Fake but realistic-looking base so addresses never collide with zero and
// arithmetic mistakes surface as obviously wrong values.
const arenaBaseAddress metadata.DeviceAddress = 0x0000_0001_0000_0000

/**
 * @brief DeviceArena hands out buffer-device-address style references over a
 * single host-owned memory region. Readers get zero-indirection access with
 * no bounds metadata: an address outside a live allocation is a contract
 * violation of the producer, not a recoverable condition here.
 */
type DeviceArena struct {
	data []byte
	next uint64
}

func NewDeviceArena(capacity uint64) *DeviceArena {
	return &DeviceArena{
		data: make([]byte, capacity),
	}
}

// Allocate reserves size bytes at the requested alignment and returns the
// device address of the region together with a writable view over it.
func (da *DeviceArena) Allocate(size, alignment uint64) (metadata.DeviceAddress, []byte) {
	offset := metadata.GetAligned(da.next, alignment)
	if offset+size > uint64(len(da.data)) {
		// Grow to at least double. Callers must write through the returned
		// view before the next Allocate; growth reallocates the backing array.
		newCapacity := math.Max(uint64(len(da.data))*2, offset+size)
		grown := make([]byte, newCapacity)
		copy(grown, da.data)
		da.data = grown
	}
	da.next = offset + size
	return arenaBaseAddress + metadata.DeviceAddress(offset), da.data[offset : offset+size]
}

// Used returns the number of arena bytes handed out so far.
func (da *DeviceArena) Used() uint64 {
	return da.next
}

func (da *DeviceArena) resolve(address metadata.DeviceAddress) []byte {
	return da.data[address-arenaBaseAddress:]
}

// VertexAt reads the i-th packed vertex position at the given base address.
// Unchecked by design; this sits on the per-ray path.
func (da *DeviceArena) VertexAt(address metadata.DeviceAddress, i uint32) math.Vec3 {
	buf := da.resolve(address + metadata.DeviceAddress(uint64(i)*metadata.VertexStride))
	return math.Vec3{
		X: m.Float32frombits(binary.LittleEndian.Uint32(buf[0:])),
		Y: m.Float32frombits(binary.LittleEndian.Uint32(buf[4:])),
		Z: m.Float32frombits(binary.LittleEndian.Uint32(buf[8:])),
	}
}

// IndexAt reads the i-th packed u32 index at the given base address.
func (da *DeviceArena) IndexAt(address metadata.DeviceAddress, i uint32) uint32 {
	buf := da.resolve(address + metadata.DeviceAddress(uint64(i)*metadata.IndexStride))
	return binary.LittleEndian.Uint32(buf)
}

// WriteVertices packs positions into the arena (12 bytes each, tightly
// packed) and returns the 16-byte aligned base address of the run.
func (da *DeviceArena) WriteVertices(vertices []math.Vec3) metadata.DeviceAddress {
	address, buf := da.Allocate(uint64(len(vertices))*metadata.VertexStride, metadata.VertexAddressAlignment)
	for i, v := range vertices {
		o := i * int(metadata.VertexStride)
		binary.LittleEndian.PutUint32(buf[o:], m.Float32bits(v.X))
		binary.LittleEndian.PutUint32(buf[o+4:], m.Float32bits(v.Y))
		binary.LittleEndian.PutUint32(buf[o+8:], m.Float32bits(v.Z))
	}
	return address
}

// WriteIndices packs indices into the arena and returns the base address.
func (da *DeviceArena) WriteIndices(indices []uint32) metadata.DeviceAddress {
	address, buf := da.Allocate(uint64(len(indices))*metadata.IndexStride, metadata.IndexStride)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*int(metadata.IndexStride):], idx)
	}
	return address
}
