package generation

import "encoding/json"

// ShapeKind is the kind of geometric primitive
type ShapeKind string

const (
	ShapeBox      ShapeKind = "box"
	ShapeSphere   ShapeKind = "sphere"
	ShapeCylinder ShapeKind = "cylinder"
	ShapeCone     ShapeKind = "cone"
	ShapeTorus    ShapeKind = "torus"
	ShapeCapsule  ShapeKind = "capsule"
)

// IsKnown reports whether the renderer has a mesh for this kind.
func (k ShapeKind) IsKnown() bool {
	switch k {
	case ShapeBox, ShapeSphere, ShapeCylinder, ShapeCone, ShapeTorus, ShapeCapsule:
		return true
	default:
		return false
	}
}

// Primitive is one shape of a voxel reconstruction, held as the exact JSON
// the model produced. Nothing is validated: mistyped or extra fields reach
// the renderer unchanged.
//
// The renderer expects objects of the form
//
//	{"type":"torus","position":[x,y,z],"rotation":[x,y,z],"scale":[x,y,z],
//	 "color":"#rrggbb","radius":0.5,"tube":0.1}
type Primitive json.RawMessage

func (p Primitive) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

func (p *Primitive) UnmarshalJSON(data []byte) error {
	*p = append((*p)[:0], data...)
	return nil
}

// Kind returns the "type" field, or "" when the primitive is not an object
// or its type is not a string.
func (p Primitive) Kind() ShapeKind {
	var shape struct {
		Type any `json:"type"`
	}
	if err := json.Unmarshal(p, &shape); err != nil {
		return ""
	}
	kind, _ := shape.Type.(string)
	return ShapeKind(kind)
}

// CountUnknownKinds returns how many primitives use a kind the renderer does
// not recognise. Used for logging only; such primitives are still returned.
func CountUnknownKinds(primitives []Primitive) int {
	n := 0
	for _, p := range primitives {
		if !p.Kind().IsKnown() {
			n++
		}
	}
	return n
}
