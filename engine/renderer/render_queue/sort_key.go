package render_queue

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderable"
)

const (
	// MaxPasses is the number of material passes the sort key can tell apart.
	MaxPasses = 16

	// DistanceRange is the default camera distance, in world units, mapped onto the
	// quantized distance field. Farther drawables share the last bucket.
	DistanceRange float32 = 1000

	// DistanceLevels is the largest quantized distance value.
	DistanceLevels = 1023

	priorityOffset   = 256
	precedenceOffset = 128
)

// Field positions, most significant first:
//
//	63..55  priority + 256
//	54..51  pass index
//	50      blended
//	49..40  quantized distance (inverted when blended)
//	39..32  precedence + 128
//	31..0   texture id
const (
	priorityShift   = 55
	passShift       = 51
	blendedShift    = 50
	distanceShift   = 40
	precedenceShift = 32

	priorityMask   = 0x1FF
	passMask       = 0xF
	distanceMask   = 0x3FF
	precedenceMask = 0xFF
	textureMask    = 0xFFFFFFFF
)

// SortKey is a packed ordering key. Ascending order visits lower priorities first,
// then lower pass indices, then opaque before blended, then opaque front-to-back
// and blended back-to-front, then precedence, then texture id.
type SortKey uint64

// SortKeyFields are the unpacked inputs to a SortKey.
type SortKeyFields struct {
	Priority   int
	Pass       int
	Blended    bool
	Distance   float32
	Precedence int
	TextureID  uint64
}

// NewSortKey packs a key using the default DistanceRange. Out-of-range inputs are
// clamped silently.
//
// Parameters:
//   - priority: render priority, clamped to [renderable.PriorityMin, renderable.PriorityMax]
//   - pass: material pass index, clamped to [0, MaxPasses-1]
//   - blended: whether the pass blends
//   - distance: signed distance from the camera plane
//   - precedence: tie-breaker, clamped to [-128, 127]
//   - textureID: texture identity, clamped to 32 bits
//
// Returns:
//   - SortKey: the packed key
func NewSortKey(priority, pass int, blended bool, distance float32, precedence int, textureID uint64) SortKey {
	return SortKeyFields{
		Priority:   priority,
		Pass:       pass,
		Blended:    blended,
		Distance:   distance,
		Precedence: precedence,
		TextureID:  textureID,
	}.Pack(DistanceRange)
}

// Pack encodes the fields into a SortKey, quantizing distance over [0, distanceRange].
//
// Parameters:
//   - distanceRange: the distance mapped to the last quantization level
//
// Returns:
//   - SortKey: the packed key
func (f SortKeyFields) Pack(distanceRange float32) SortKey {
	priority := uint64(common.Clamp(f.Priority, renderable.PriorityMin, renderable.PriorityMax) + priorityOffset)
	pass := uint64(common.Clamp(f.Pass, 0, MaxPasses-1))
	precedence := uint64(common.Clamp(f.Precedence, -128, 127) + precedenceOffset)
	texture := min(f.TextureID, textureMask)

	var blended uint64
	if f.Blended {
		blended = 1
	}
	distance := uint64(QuantizeDistance(f.Distance, distanceRange, f.Blended))

	return SortKey(priority<<priorityShift |
		pass<<passShift |
		blended<<blendedShift |
		distance<<distanceShift |
		precedence<<precedenceShift |
		texture)
}

// QuantizeDistance maps a camera distance onto [0, DistanceLevels]. Distances are
// clamped to [0, distanceRange]; NaN is treated as 0. Blended distances are
// inverted so that ascending keys visit them far to near.
//
// Parameters:
//   - d: the signed camera distance
//   - distanceRange: the distance mapped to DistanceLevels
//   - blended: whether to invert the result
//
// Returns:
//   - uint32: the quantized distance
func QuantizeDistance(d, distanceRange float32, blended bool) uint32 {
	if math32.IsNaN(d) || distanceRange <= 0 {
		d = 0
	}
	d = common.Clamp(d, 0, distanceRange)
	q := uint32(math32.Floor(d / distanceRange * DistanceLevels))
	q = min(q, DistanceLevels)
	if blended {
		return DistanceLevels - q
	}
	return q
}

// Priority returns the (clamped) priority stored in the key.
func (k SortKey) Priority() int {
	return int(uint64(k)>>priorityShift&priorityMask) - priorityOffset
}

// Pass returns the pass index stored in the key.
func (k SortKey) Pass() int {
	return int(uint64(k) >> passShift & passMask)
}

// Blended reports whether the blended bit is set.
func (k SortKey) Blended() bool {
	return uint64(k)>>blendedShift&1 == 1
}

// Distance returns the quantized distance field as stored (inverted for blended keys).
func (k SortKey) Distance() uint32 {
	return uint32(uint64(k) >> distanceShift & distanceMask)
}

// Precedence returns the precedence stored in the key.
func (k SortKey) Precedence() int {
	return int(uint64(k)>>precedenceShift&precedenceMask) - precedenceOffset
}

// TextureID returns the texture field.
func (k SortKey) TextureID() uint32 {
	return uint32(uint64(k) & textureMask)
}

func (k SortKey) String() string {
	return fmt.Sprintf("key(prio=%d pass=%d blended=%t dist=%d prec=%d tex=%d)",
		k.Priority(), k.Pass(), k.Blended(), k.Distance(), k.Precedence(), k.TextureID())
}
