// Package zobject implements the Z-machine object tree: the fixed-size
// object records (parent/sibling/child links and a 32- or 48-bit
// attribute flag set, version-dependent per spec.md S3) plus their
// variable-length property lists.
package zobject

import (
	"encoding/binary"
	"fmt"

	"github.com/zmterp/zengine/zcore"
	"github.com/zmterp/zengine/zstring"
)

// InvalidObjectError is returned for object id 0 (the Z-machine's "no
// object" sentinel). Get does not check non-zero ids against the end of
// the object table.
type InvalidObjectError struct {
	Id uint16
}

func (e *InvalidObjectError) Error() string {
	return fmt.Sprintf("invalid object id %d", e.Id)
}

// Object is one object record read from the tree.
type Object struct {
	Id              uint16
	BaseAddress     uint32
	Attributes      uint64 // top 32 bits always valid; bits 32-47 only on v4+
	Parent          uint16
	Sibling         uint16
	Child           uint16
	PropertyPointer uint16
}

// propertyDefaultsSize is the size in bytes of the property default table
// preceding the object records (31 two-byte entries on v1-3, 63 on v4+).
func propertyDefaultsSize(version uint8) uint32 {
	if version >= 4 {
		return 63 * 2
	}
	return 31 * 2
}

func recordSize(version uint8) uint32 {
	if version >= 4 {
		return 14
	}
	return 9
}

// Get reads object id's record from the tree rooted at m.ObjectTableBase.
func Get(m *zcore.Memory, id uint16) (*Object, error) {
	if id == 0 {
		return nil, &InvalidObjectError{Id: id}
	}

	base := uint32(m.ObjectTableBase) + propertyDefaultsSize(m.Version) + uint32(id-1)*recordSize(m.Version)

	if m.Version >= 4 {
		propertyPtr := m.ReadWord(base + 12)
		attrHi := binary.BigEndian.Uint32(m.RawBytes()[base : base+4])
		attrLo := m.ReadWord(base + 4)
		return &Object{
			Id:              id,
			BaseAddress:     base,
			Attributes:      uint64(attrHi)<<32 | uint64(attrLo)<<16,
			Parent:          m.ReadWord(base + 6),
			Sibling:         m.ReadWord(base + 8),
			Child:           m.ReadWord(base + 10),
			PropertyPointer: propertyPtr,
		}, nil
	}

	propertyPtr := m.ReadWord(base + 7)
	attrHi := binary.BigEndian.Uint32(m.RawBytes()[base : base+4])
	return &Object{
		Id:              id,
		BaseAddress:     base,
		Attributes:      uint64(attrHi) << 32,
		Parent:          uint16(m.ReadByte(base + 4)),
		Sibling:         uint16(m.ReadByte(base + 5)),
		Child:           uint16(m.ReadByte(base + 6)),
		PropertyPointer: propertyPtr,
	}, nil
}

// Name decodes the object's short name, the length-prefixed Z-string that
// precedes its property list.
func (o *Object) Name(m *zcore.Memory, alphabets *zstring.Alphabets) string {
	nameLength := m.ReadByte(uint32(o.PropertyPointer))
	if nameLength == 0 {
		return ""
	}
	name, _ := zstring.Decode(m, uint32(o.PropertyPointer)+1, alphabets)
	return name
}

func attributeMask(attribute uint16) uint64 {
	return uint64(1) << (63 - attribute)
}

// TestAttribute reports whether attribute (0-31 on v1-3, 0-47 on v4+) is
// set.
func (o *Object) TestAttribute(attribute uint16) bool {
	return o.Attributes&attributeMask(attribute) == attributeMask(attribute)
}

func (o *Object) writeAttributes(m *zcore.Memory, version uint8) error {
	if err := m.WriteByte(o.BaseAddress, uint8(o.Attributes>>56)); err != nil {
		return err
	}
	if err := m.WriteByte(o.BaseAddress+1, uint8(o.Attributes>>48)); err != nil {
		return err
	}
	if err := m.WriteByte(o.BaseAddress+2, uint8(o.Attributes>>40)); err != nil {
		return err
	}
	if err := m.WriteByte(o.BaseAddress+3, uint8(o.Attributes>>32)); err != nil {
		return err
	}
	if version >= 4 {
		return m.WriteWord(o.BaseAddress+4, uint16(o.Attributes>>16))
	}
	return nil
}

// SetAttribute sets attribute and persists the attribute bytes.
func (o *Object) SetAttribute(m *zcore.Memory, attribute uint16) error {
	o.Attributes |= attributeMask(attribute)
	return o.writeAttributes(m, m.Version)
}

// ClearAttribute clears attribute and persists the attribute bytes.
func (o *Object) ClearAttribute(m *zcore.Memory, attribute uint16) error {
	o.Attributes &^= attributeMask(attribute)
	return o.writeAttributes(m, m.Version)
}

// SetParent rewrites the object's parent link.
func (o *Object) SetParent(m *zcore.Memory, parent uint16) error {
	o.Parent = parent
	if m.Version >= 4 {
		return m.WriteWord(o.BaseAddress+6, parent)
	}
	return m.WriteByte(o.BaseAddress+4, uint8(parent))
}

// SetSibling rewrites the object's sibling link.
func (o *Object) SetSibling(m *zcore.Memory, sibling uint16) error {
	o.Sibling = sibling
	if m.Version >= 4 {
		return m.WriteWord(o.BaseAddress+8, sibling)
	}
	return m.WriteByte(o.BaseAddress+5, uint8(sibling))
}

// SetChild rewrites the object's child link.
func (o *Object) SetChild(m *zcore.Memory, child uint16) error {
	o.Child = child
	if m.Version >= 4 {
		return m.WriteWord(o.BaseAddress+10, child)
	}
	return m.WriteByte(o.BaseAddress+6, uint8(child))
}

// Unlink detaches o from its parent's child list, relinking o's next
// sibling in its place. It is the shared first half of both insert_obj
// (which re-parents after unlinking) and remove_obj.
func Unlink(m *zcore.Memory, o *Object) error {
	if o.Parent == 0 {
		return nil
	}
	parent, err := Get(m, o.Parent)
	if err != nil {
		return err
	}

	if parent.Child == o.Id {
		if err := parent.SetChild(m, o.Sibling); err != nil {
			return err
		}
	} else {
		sibling, err := Get(m, parent.Child)
		if err != nil {
			return err
		}
		for sibling.Sibling != o.Id {
			sibling, err = Get(m, sibling.Sibling)
			if err != nil {
				return err
			}
		}
		if err := sibling.SetSibling(m, o.Sibling); err != nil {
			return err
		}
	}

	if err := o.SetParent(m, 0); err != nil {
		return err
	}
	return o.SetSibling(m, 0)
}
