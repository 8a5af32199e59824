package xmms2

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/genricoloni/synthia/internal/domain"
)

// xmmsv value type tags
const (
	typeNone   uint32 = 0
	typeError  uint32 = 1
	typeInt32  uint32 = 2
	typeString uint32 = 3
	typeColl   uint32 = 4
	typeBin    uint32 = 5
	typeList   uint32 = 6
	typeDict   uint32 = 7
	typeFloat  uint32 = 9
)

// maxDepth bounds nesting of lists and dicts in a decoded value
const maxDepth = 16

// ServerError is an error value returned by the daemon
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "xmms2: " + e.Message
}

// encodeValue appends the serialized form of a method argument:
// nil, int, string or []any.
func encodeValue(buf []byte, v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return binary.BigEndian.AppendUint32(buf, typeNone), nil
	case int:
		return appendInt(binary.BigEndian.AppendUint32(buf, typeInt32), x), nil
	case string:
		return appendString(binary.BigEndian.AppendUint32(buf, typeString), x), nil
	case []any:
		return encodeList(buf, x)
	}
	return nil, fmt.Errorf("cannot encode %T", v)
}

// encodeList serializes an unrestricted list; method arguments travel this way
func encodeList(buf []byte, items []any) ([]byte, error) {
	buf = binary.BigEndian.AppendUint32(buf, typeList)
	buf = binary.BigEndian.AppendUint32(buf, typeNone)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(items)))
	var err error
	for _, item := range items {
		if buf, err = encodeValue(buf, item); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func appendInt(buf []byte, n int) []byte {
	return binary.BigEndian.AppendUint32(buf, uint32(int32(n)))
}

// appendString writes the length including the terminating NUL, then the bytes and the NUL
func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)+1))
	buf = append(buf, s...)
	return append(buf, 0)
}

// decodeValue parses a single serialized value
func decodeValue(payload []byte) (any, error) {
	d := decoder{r: bytes.NewReader(payload)}
	v, err := d.value(0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProtocol, err)
	}
	return v, nil
}

type decoder struct {
	r *bytes.Reader
}

func (d *decoder) readU32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func (d *decoder) readInt() (int, error) {
	u, err := d.readU32()
	return int(int32(u)), err
}

// readCount reads a length and checks it against the bytes left, each element taking at least elem bytes
func (d *decoder) readCount(elem int) (int, error) {
	n, err := d.readU32()
	if err != nil {
		return 0, err
	}
	if int64(n)*int64(elem) > int64(d.r.Len()) {
		return 0, fmt.Errorf("length %d exceeds payload", n)
	}
	return int(n), nil
}

func (d *decoder) readBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *decoder) readString() (string, error) {
	n, err := d.readCount(1)
	if err != nil {
		return "", err
	}
	buf, err := d.readBytes(n)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf, "\x00")), nil
}

func (d *decoder) value(depth int) (any, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("nesting deeper than %d", maxDepth)
	}
	typ, err := d.readU32()
	if err != nil {
		return nil, err
	}
	return d.typed(typ, depth)
}

func (d *decoder) typed(typ uint32, depth int) (any, error) {
	switch typ {
	case typeNone:
		return nil, nil
	case typeError:
		msg, err := d.readString()
		if err != nil {
			return nil, err
		}
		return &ServerError{Message: msg}, nil
	case typeInt32:
		return d.readInt()
	case typeString:
		return d.readString()
	case typeBin:
		n, err := d.readCount(1)
		if err != nil {
			return nil, err
		}
		return d.readBytes(n)
	case typeFloat:
		mant, err := d.readInt()
		if err != nil {
			return nil, err
		}
		exp, err := d.readInt()
		if err != nil {
			return nil, err
		}
		return math.Ldexp(float64(mant)/math.MaxInt32, exp), nil
	case typeList:
		if _, err := d.readU32(); err != nil { // restricting type
			return nil, err
		}
		n, err := d.readCount(4)
		if err != nil {
			return nil, err
		}
		list := make([]any, 0, n)
		for range n {
			v, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case typeDict:
		n, err := d.readCount(8)
		if err != nil {
			return nil, err
		}
		dict := make(map[string]any, n)
		for range n {
			key, err := d.readString()
			if err != nil {
				return nil, err
			}
			v, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			dict[key] = v
		}
		return dict, nil
	case typeColl:
		return nil, fmt.Errorf("collections are not supported")
	}
	return nil, fmt.Errorf("unknown value type %d", typ)
}
