package zobject_test

import (
	"encoding/binary"
	"testing"

	"github.com/zmterp/zengine/zcore"
	"github.com/zmterp/zengine/zobject"
	"github.com/zmterp/zengine/zstring"
)

// newTestObjectTree builds a minimal, internally-consistent v3 object
// table in a synthetic in-memory buffer, the same way
// zstring_test.go's newTestMemory avoids depending on a real story file:
//
//	object 1 "cave": attributes 2,3,19 set, child 2, property 6 (len 1,
//	  value 0x2a) and property 3 (len 2, value 0x1234)
//	object 2: parent 1, no properties
//
// Property default 9 is seeded with 0x0005 so PropertyDefault has
// something to read.
func newTestObjectTree(t *testing.T) *zcore.Memory {
	t.Helper()
	const (
		objectTableBase = 0x0040
		obj1Props       = 0x0200
		obj2Props       = 0x0220
		staticBase      = 0x0300
	)

	buf := make([]uint8, 0x0400)
	buf[0x00] = 3 // version
	binary.BigEndian.PutUint16(buf[0x0a:0x0c], objectTableBase)
	binary.BigEndian.PutUint16(buf[0x0e:0x10], staticBase)

	m := zcore.Load(buf)
	alphabets := zstring.LoadAlphabets(m)

	// Property default table: 31 words, all zero except entry 9.
	binary.BigEndian.PutUint16(m.RawBytes()[objectTableBase+2*(9-1):], 0x0005)

	// Object records start after the 31-word default table.
	obj1 := uint32(objectTableBase + 31*2)
	obj2 := obj1 + 9

	name := zstring.Encode([]rune("cave"), 3, alphabets)
	writeBytes(m, obj1Props, uint8(len(name)/2))
	writeBytes(m, obj1Props+1, name...)
	propList := obj1Props + 1 + uint32(len(name))
	writeBytes(m, propList,
		0x06, 0x2a, // property 6, length 1, value 0x2a
		0x23, 0x12, 0x34, // property 3, length 2, value 0x1234
		0x00, // terminator
	)

	writeBytes(m, obj2Props, 0x00) // no name, empty property list

	// Object 1: attributes 2, 3, 19 set; no parent; sibling 0; child 2.
	writeBytes(m, obj1,
		0x30, 0x00, 0x10, 0x00, // attribute bytes
		0x00,                   // parent
		0x00,                   // sibling
		0x02,                   // child
		uint8(obj1Props>>8), uint8(obj1Props&0xff), // property pointer
	)

	// Object 2: parent 1, no attributes, no siblings or children.
	writeBytes(m, obj2,
		0x00, 0x00, 0x00, 0x00,
		0x01,
		0x00,
		0x00,
		uint8(obj2Props>>8), uint8(obj2Props&0xff),
	)

	return m
}

func writeBytes(m *zcore.Memory, addr uint32, bytes ...uint8) {
	copy(m.RawBytes()[addr:], bytes)
}

func TestGetInvalidObjectZero(t *testing.T) {
	m := newTestObjectTree(t)
	if _, err := zobject.Get(m, 0); err == nil {
		t.Fatalf("expected an error retrieving object 0")
	} else if _, ok := err.(*zobject.InvalidObjectError); !ok {
		t.Fatalf("expected *InvalidObjectError, got %T: %v", err, err)
	}
}

func TestObjectTreeLinks(t *testing.T) {
	m := newTestObjectTree(t)
	alphabets := zstring.LoadAlphabets(m)

	obj1, err := zobject.Get(m, 1)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}
	if got := obj1.Name(m, alphabets); got != "cave" {
		t.Errorf("Name() = %q, want %q", got, "cave")
	}
	if obj1.Parent != 0 {
		t.Errorf("Parent = %d, want 0", obj1.Parent)
	}
	if obj1.Child != 2 {
		t.Errorf("Child = %d, want 2", obj1.Child)
	}
	if obj1.Sibling != 0 {
		t.Errorf("Sibling = %d, want 0", obj1.Sibling)
	}
	if obj1.PropertyPointer != 0x0200 {
		t.Errorf("PropertyPointer = 0x%x, want 0x0200", obj1.PropertyPointer)
	}

	obj2, err := zobject.Get(m, 2)
	if err != nil {
		t.Fatalf("Get(2): %v", err)
	}
	if obj2.Parent != 1 {
		t.Errorf("obj2 Parent = %d, want 1", obj2.Parent)
	}
}

func TestAttributes(t *testing.T) {
	m := newTestObjectTree(t)
	obj1, err := zobject.Get(m, 1)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}

	if obj1.TestAttribute(1) || obj1.TestAttribute(4) || obj1.TestAttribute(10) {
		t.Error("object 1 should not have attributes 1, 4, 10 set")
	}
	if !(obj1.TestAttribute(2) && obj1.TestAttribute(3) && obj1.TestAttribute(19)) {
		t.Error("object 1 should have attributes 2, 3, 19 set")
	}

	if err := obj1.SetAttribute(m, 10); err != nil {
		t.Fatalf("SetAttribute: %v", err)
	}
	if !obj1.TestAttribute(10) {
		t.Error("setting attribute 10 didn't take")
	}

	// Persisted, not just in the in-memory struct.
	reread, err := zobject.Get(m, 1)
	if err != nil {
		t.Fatalf("Get(1) after SetAttribute: %v", err)
	}
	if !reread.TestAttribute(10) {
		t.Error("attribute 10 was not persisted to memory")
	}

	if err := obj1.ClearAttribute(m, 10); err != nil {
		t.Fatalf("ClearAttribute: %v", err)
	}
	if obj1.TestAttribute(10) {
		t.Error("clearing attribute 10 didn't take")
	}
}

func TestGetProperty(t *testing.T) {
	m := newTestObjectTree(t)
	obj1, err := zobject.Get(m, 1)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}

	prop6 := zobject.GetProperty(m, obj1, 6)
	if prop6.Length != 1 {
		t.Errorf("property 6 length = %d, want 1", prop6.Length)
	}
	if got := m.ReadByte(prop6.DataAddress); got != 0x2a {
		t.Errorf("property 6 data = 0x%x, want 0x2a", got)
	}

	prop3 := zobject.GetProperty(m, obj1, 3)
	if prop3.Length != 2 {
		t.Errorf("property 3 length = %d, want 2", prop3.Length)
	}
	if got := m.ReadWord(prop3.DataAddress); got != 0x1234 {
		t.Errorf("property 3 data = 0x%x, want 0x1234", got)
	}

	missing := zobject.GetProperty(m, obj1, 1)
	if missing.DataAddress != 0 {
		t.Error("property 1 shouldn't exist on object 1")
	}

	if got := zobject.PropertyDefault(m, 9); got != 0x0005 {
		t.Errorf("PropertyDefault(9) = 0x%x, want 0x0005", got)
	}
}

func TestSetProperty(t *testing.T) {
	m := newTestObjectTree(t)
	obj1, err := zobject.Get(m, 1)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}

	if err := zobject.SetProperty(m, obj1, 3, 0x5678); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}
	if got := zobject.GetProperty(m, obj1, 3); m.ReadWord(got.DataAddress) != 0x5678 {
		t.Errorf("property 3 after SetProperty = 0x%x, want 0x5678", m.ReadWord(got.DataAddress))
	}

	if err := zobject.SetProperty(m, obj1, 1, 0); err == nil {
		t.Fatalf("expected InvalidPropertyError setting a property the object doesn't define")
	}
}

func TestGetNextProperty(t *testing.T) {
	m := newTestObjectTree(t)
	obj1, err := zobject.Get(m, 1)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}

	first, err := zobject.GetNextProperty(m, obj1, 0)
	if err != nil || first != 6 {
		t.Fatalf("GetNextProperty(0) = %d, %v; want 6, nil", first, err)
	}

	second, err := zobject.GetNextProperty(m, obj1, 6)
	if err != nil || second != 3 {
		t.Fatalf("GetNextProperty(6) = %d, %v; want 3, nil", second, err)
	}

	last, err := zobject.GetNextProperty(m, obj1, 3)
	if err != nil || last != 0 {
		t.Fatalf("GetNextProperty(3) = %d, %v; want 0, nil", last, err)
	}
}

func TestUnlink(t *testing.T) {
	m := newTestObjectTree(t)
	_, err := zobject.Get(m, 1)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}
	obj2, err := zobject.Get(m, 2)
	if err != nil {
		t.Fatalf("Get(2): %v", err)
	}

	if err := zobject.Unlink(m, obj2); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if obj2.Parent != 0 {
		t.Errorf("obj2 Parent after Unlink = %d, want 0", obj2.Parent)
	}

	reread, err := zobject.Get(m, 1)
	if err != nil {
		t.Fatalf("Get(1) after Unlink: %v", err)
	}
	if reread.Child != 0 {
		t.Errorf("obj1 Child after Unlink = %d, want 0", reread.Child)
	}
}
