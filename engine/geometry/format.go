package geometry

import "strings"

// Attribute is a bit flag naming one per-vertex attribute in an interleaved vertex.
type Attribute uint8

const (
	// AttributePosition is a vec3<f32> position.
	AttributePosition Attribute = 1 << iota
	// AttributeNormal is a vec3<f32> normal.
	AttributeNormal
	// AttributeUV is a vec2<f32> texture coordinate.
	AttributeUV
	// AttributeColor is a vec4<f32> RGBA color.
	AttributeColor
)

// attributeOrder is the interleave order of attributes within one vertex.
var attributeOrder = [...]Attribute{AttributePosition, AttributeNormal, AttributeUV, AttributeColor}

// Size returns the byte size of a single attribute.
func (a Attribute) Size() int {
	switch a {
	case AttributePosition, AttributeNormal:
		return 12
	case AttributeUV:
		return 8
	case AttributeColor:
		return 16
	default:
		return 0
	}
}

// String returns the attribute name.
func (a Attribute) String() string {
	switch a {
	case AttributePosition:
		return "position"
	case AttributeNormal:
		return "normal"
	case AttributeUV:
		return "uv"
	case AttributeColor:
		return "color"
	default:
		return "unknown"
	}
}

// VertexFormat describes the interleaved layout of one vertex as a set of attributes.
// Attributes are always laid out in position, normal, uv, color order. VertexFormat is
// comparable and is used as part of the GPU buffer pool bucket key.
type VertexFormat struct {
	Attributes Attribute
}

// Has reports whether the format contains the attribute.
func (f VertexFormat) Has(a Attribute) bool {
	return f.Attributes&a != 0
}

// Stride returns the byte size of one interleaved vertex.
//
// Returns:
//   - int: the stride in bytes
func (f VertexFormat) Stride() int {
	stride := 0
	for _, a := range attributeOrder {
		if f.Has(a) {
			stride += a.Size()
		}
	}
	return stride
}

// Offset returns the byte offset of an attribute within one vertex, or -1 if the
// format does not contain it.
//
// Parameters:
//   - a: the attribute to locate
//
// Returns:
//   - int: the byte offset, or -1
func (f VertexFormat) Offset(a Attribute) int {
	if !f.Has(a) {
		return -1
	}
	offset := 0
	for _, o := range attributeOrder {
		if o == a {
			return offset
		}
		if f.Has(o) {
			offset += o.Size()
		}
	}
	return -1
}

// Each calls fn for every attribute in the format in interleave order with its
// shader location (its position in the order) and byte offset.
func (f VertexFormat) Each(fn func(a Attribute, location uint32, offset int)) {
	offset := 0
	for i, a := range attributeOrder {
		if !f.Has(a) {
			continue
		}
		fn(a, uint32(i), offset)
		offset += a.Size()
	}
}

func (f VertexFormat) String() string {
	var parts []string
	f.Each(func(a Attribute, _ uint32, _ int) {
		parts = append(parts, a.String())
	})
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, "+")
}

// IndexWidth is the byte width of one index element.
type IndexWidth int

const (
	// IndexWidthUint16 is a 16-bit index.
	IndexWidthUint16 IndexWidth = 2
	// IndexWidthUint32 is a 32-bit index.
	IndexWidthUint32 IndexWidth = 4
)

// Bytes returns the byte size of one index.
func (w IndexWidth) Bytes() int {
	return int(w)
}

func (w IndexWidth) String() string {
	switch w {
	case IndexWidthUint16:
		return "uint16"
	case IndexWidthUint32:
		return "uint32"
	default:
		return "invalid"
	}
}
