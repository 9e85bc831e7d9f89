package zobject

import (
	"fmt"

	"github.com/zmterp/zengine/zcore"
)

// Property is one entry from an object's property list.
type Property struct {
	Id                   uint8
	Length               uint8
	Address              uint32 // address of the size byte(s)
	DataAddress          uint32
}

func (o *Object) propertyListStart(m *zcore.Memory) uint32 {
	nameLength := m.ReadByte(uint32(o.PropertyPointer))
	return uint32(o.PropertyPointer) + 1 + uint32(nameLength)*2
}

// propertyAt decodes the property-size byte(s) at addr, per spec.md's
// version-dependent encoding: v1-3 use a single byte (top 3 bits length-1,
// bottom 5 bits id); v4+ use one or two bytes, with a top-bit-set first
// byte meaning a two-byte header.
func propertyAt(m *zcore.Memory, addr uint32, version uint8) Property {
	sizeByte := m.ReadByte(addr)

	if version <= 3 {
		return Property{
			Id:          sizeByte & 0b0001_1111,
			Length:      (sizeByte >> 5) + 1,
			Address:     addr,
			DataAddress: addr + 1,
		}
	}

	if sizeByte&0b1000_0000 != 0 {
		lengthByte := m.ReadByte(addr + 1)
		length := lengthByte & 0b0011_1111
		if length == 0 {
			length = 64
		}
		return Property{
			Id:          sizeByte & 0b0011_1111,
			Length:      length,
			Address:     addr,
			DataAddress: addr + 2,
		}
	}

	length := uint8(1)
	if sizeByte&0b0100_0000 != 0 {
		length = 2
	}
	return Property{
		Id:          sizeByte & 0b0011_1111,
		Length:      length,
		Address:     addr,
		DataAddress: addr + 1,
	}
}

// GetProperty finds propertyId on o. If o doesn't define it, the returned
// Property has DataAddress 0; PropertyDefault reads the table-wide default.
func GetProperty(m *zcore.Memory, o *Object, propertyId uint8) Property {
	ptr := o.propertyListStart(m)
	for m.ReadByte(ptr) != 0 {
		p := propertyAt(m, ptr, m.Version)
		if p.Id == propertyId {
			return p
		}
		ptr = p.DataAddress + uint32(p.Length)
	}
	return Property{Id: propertyId}
}

// PropertyDefault reads the table-wide default value for propertyId (used
// when an object doesn't define it).
func PropertyDefault(m *zcore.Memory, propertyId uint8) uint16 {
	addr := uint32(m.ObjectTableBase) + 2*uint32(propertyId-1)
	return m.ReadWord(addr)
}

// GetPropertyLength recovers a property's length from the address of its
// first data byte - the form get_prop_addr/get_prop_len callers use.
func GetPropertyLength(m *zcore.Memory, dataAddr uint32) uint16 {
	if dataAddr == 0 {
		return 0
	}
	prevByte := m.ReadByte(dataAddr - 1)
	if m.Version <= 3 {
		return uint16(prevByte>>5) + 1
	}
	if prevByte&0b1000_0000 != 0 {
		length := prevByte & 0b0011_1111
		if length == 0 {
			return 64
		}
		return uint16(length)
	}
	return uint16((prevByte>>6)&1) + 1
}

// SetProperty overwrites propertyId's value on o. The property must
// already exist on the object (the Standard requires put_prop never be
// called for a property the object doesn't define).
func SetProperty(m *zcore.Memory, o *Object, propertyId uint8, value uint16) error {
	ptr := o.propertyListStart(m)
	for m.ReadByte(ptr) != 0 {
		p := propertyAt(m, ptr, m.Version)
		if p.Id == propertyId {
			switch p.Length {
			case 1:
				return m.WriteByte(p.DataAddress, uint8(value))
			default:
				return m.WriteWord(p.DataAddress, value)
			}
		}
		ptr = p.DataAddress + uint32(p.Length)
	}
	return &InvalidPropertyError{ObjectId: o.Id, PropertyId: propertyId}
}

// GetNextProperty implements get_next_prop: propertyId 0 asks for the
// first property on the object; otherwise it returns the id following
// propertyId in the (descending) property list, or 0 if propertyId was
// last.
func GetNextProperty(m *zcore.Memory, o *Object, propertyId uint8) (uint8, error) {
	if propertyId == 0 {
		ptr := o.propertyListStart(m)
		if m.ReadByte(ptr) == 0 {
			return 0, nil
		}
		return propertyAt(m, ptr, m.Version).Id, nil
	}

	p := GetProperty(m, o, propertyId)
	if p.DataAddress == 0 {
		return 0, &InvalidPropertyError{ObjectId: o.Id, PropertyId: propertyId}
	}

	next := p.DataAddress + uint32(p.Length)
	if m.ReadByte(next) == 0 {
		return 0, nil
	}
	return propertyAt(m, next, m.Version).Id, nil
}

// InvalidPropertyError is returned for put_prop/get_next_prop calls
// against a property an object doesn't define.
type InvalidPropertyError struct {
	ObjectId   uint16
	PropertyId uint8
}

func (e *InvalidPropertyError) Error() string {
	return fmt.Sprintf("property %d not found on object %d", e.PropertyId, e.ObjectId)
}
