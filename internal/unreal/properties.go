package unreal

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
)

// PropertyType is the low nibble of a serialised property tag.
type PropertyType byte

const (
	ByteProperty       PropertyType = 1
	IntProperty        PropertyType = 2
	BoolProperty       PropertyType = 3
	FloatProperty      PropertyType = 4
	ObjectProperty     PropertyType = 5
	NameProperty       PropertyType = 6
	StringProperty     PropertyType = 7 // fixed length string in early packages
	ClassProperty      PropertyType = 8
	ArrayProperty      PropertyType = 9
	StructProperty     PropertyType = 10
	VectorProperty     PropertyType = 11
	RotatorProperty    PropertyType = 12
	StrProperty        PropertyType = 13
	MapProperty        PropertyType = 14
	FixedArrayProperty PropertyType = 15
)

// rfHasStack marks objects whose data is preceded by a state frame.
const rfHasStack = 0x02000000

const maxProperties = 4096

// Property is one decoded property. Value holds a string for string, name
// and object properties (objects resolve to their name), int32, float32 or
// bool for the numeric types, and the raw bytes for everything else.
type Property struct {
	Name       string
	Type       PropertyType
	ArrayIndex int
	Value      any
}

// Properties decodes the property list at the start of an export's data.
// Decoding stops at the terminating "None" property; anything after it
// (native data) is ignored.
func (p *Package) Properties(e Export) ([]Property, error) {
	if e.SerialSize <= 0 {
		return nil, nil
	}
	data := make([]byte, e.SerialSize)
	if _, err := p.r.ReadAt(data, e.SerialOffset); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrMalformed, e.Name, err)
	}
	r := bytes.NewReader(data)
	pr := &propReader{r: r, p: p}

	if e.Flags&rfHasStack != 0 {
		node := pr.compact()
		pr.compact() // state node
		pr.skip(8)   // probe mask
		pr.skip(4)   // latent action
		if node != 0 {
			pr.compact()
		}
	}

	var props []Property
	for i := 0; i < maxProperties; i++ {
		name := pr.name()
		if pr.err != nil {
			return props, pr.err
		}
		if strings.EqualFold(name, "None") {
			return props, nil
		}
		info := pr.byte()
		typ := PropertyType(info & 0x0F)
		array := info&0x80 != 0
		if typ == StructProperty {
			pr.name()
		}
		size := pr.size((info >> 4) & 0x07)
		prop := Property{Name: name, Type: typ}
		if array && typ != BoolProperty {
			prop.ArrayIndex = pr.arrayIndex()
		}
		if pr.err != nil {
			return props, pr.err
		}
		if size < 0 || int64(size) > int64(r.Len()) {
			return props, fmt.Errorf("%w: property %s size %d", ErrMalformed, name, size)
		}
		value := make([]byte, size)
		pr.read(value)
		prop.Value = p.decodeValue(typ, array, value)
		props = append(props, prop)
	}
	return props, fmt.Errorf("%w: too many properties", ErrMalformed)
}

func (p *Package) decodeValue(typ PropertyType, array bool, v []byte) any {
	switch typ {
	case BoolProperty:
		return array
	case ByteProperty:
		if len(v) > 0 {
			return int32(v[0])
		}
	case IntProperty:
		if len(v) >= 4 {
			return int32(binary.LittleEndian.Uint32(v))
		}
	case FloatProperty:
		if len(v) >= 4 {
			return math.Float32frombits(binary.LittleEndian.Uint32(v))
		}
	case ObjectProperty, ClassProperty:
		ref, err := ReadCompactIndex(bytes.NewReader(v))
		if err == nil {
			return p.ObjectName(ref)
		}
	case NameProperty:
		idx, err := ReadCompactIndex(bytes.NewReader(v))
		if err == nil && idx >= 0 && int(idx) < len(p.Names) {
			return p.Names[idx]
		}
	case StringProperty:
		if p.Version < 120 {
			return strings.TrimRight(string(bytes.SplitN(v, []byte{0}, 2)[0]), "\x00")
		}
	case StrProperty:
		t := &tableReader{br: bufio.NewReader(bytes.NewReader(v))}
		s := t.sized()
		if t.err == nil {
			return s
		}
	}
	return v
}

// StringValue returns the first property named name with a string value.
func StringValue(props []Property, name string) (string, bool) {
	for _, prop := range props {
		if strings.EqualFold(prop.Name, name) {
			if s, ok := prop.Value.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// IntValue returns the first property named name with an integer value.
func IntValue(props []Property, name string) (int32, bool) {
	for _, prop := range props {
		if strings.EqualFold(prop.Name, name) {
			if i, ok := prop.Value.(int32); ok {
				return i, true
			}
		}
	}
	return 0, false
}

type propReader struct {
	r   *bytes.Reader
	p   *Package
	err error
}

func (pr *propReader) compact() int32 {
	if pr.err != nil {
		return 0
	}
	v, err := ReadCompactIndex(pr.r)
	if err != nil {
		pr.err = fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v
}

func (pr *propReader) byte() byte {
	if pr.err != nil {
		return 0
	}
	b, err := pr.r.ReadByte()
	if err != nil {
		pr.err = fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return b
}

func (pr *propReader) read(b []byte) {
	if pr.err != nil {
		return
	}
	if _, err := io.ReadFull(pr.r, b); err != nil {
		pr.err = fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

func (pr *propReader) skip(n int64) {
	if pr.err != nil {
		return
	}
	if _, err := pr.r.Seek(n, io.SeekCurrent); err != nil {
		pr.err = err
	}
}

func (pr *propReader) name() string {
	idx := pr.compact()
	if pr.err != nil {
		return ""
	}
	if idx < 0 || int(idx) >= len(pr.p.Names) {
		pr.err = fmt.Errorf("%w: property name index %d", ErrMalformed, idx)
		return ""
	}
	return pr.p.Names[idx]
}

func (pr *propReader) size(code byte) int {
	switch code {
	case 0:
		return 1
	case 1:
		return 2
	case 2:
		return 4
	case 3:
		return 12
	case 4:
		return 16
	case 5:
		return int(pr.byte())
	case 6:
		var b [2]byte
		pr.read(b[:])
		return int(binary.LittleEndian.Uint16(b[:]))
	default:
		var b [4]byte
		pr.read(b[:])
		return int(int32(binary.LittleEndian.Uint32(b[:])))
	}
}

func (pr *propReader) arrayIndex() int {
	b := pr.byte()
	switch {
	case b&0x80 == 0:
		return int(b)
	case b&0xC0 == 0x80:
		return int(b&0x7F)<<8 | int(pr.byte())
	default:
		v := int(b&0x3F) << 24
		v |= int(pr.byte()) << 16
		v |= int(pr.byte()) << 8
		v |= int(pr.byte())
		return v
	}
}
