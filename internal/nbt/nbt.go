// Package nbt implements a minimal reader for the subset of the
// Minecraft Named Binary Tag format needed to recover a loosely-typed
// recursive map/list from a decompressed attribute payload. Unknown or
// malformed input returns an error; callers are expected to tolerate
// decode failure and fall back to an empty result.
package nbt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	tagEnd = iota
	tagByte
	tagShort
	tagInt
	tagLong
	tagFloat
	tagDouble
	tagByteArray
	tagString
	tagList
	tagCompound
	tagIntArray
	tagLongArray
)

// Decode reads one root-level named compound tag and returns its value
// as nested map[string]any / []any with primitive leaves of string,
// int64, or float64; a byte-array tag decodes to []byte.
func Decode(r io.Reader) (any, error) {
	d := &decoder{r: r}
	tagType, err := d.readByte()
	if err != nil {
		return nil, err
	}
	if _, err := d.readString(); err != nil { // root tag name, discarded
		return nil, err
	}
	return d.readPayload(int(tagType))
}

// DecodeBytes is a convenience wrapper over Decode for an in-memory
// buffer.
func DecodeBytes(b []byte) (any, error) {
	return Decode(bytes.NewReader(b))
}

type decoder struct {
	r io.Reader
}

func (d *decoder) readByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *decoder) readString() (string, error) {
	var n uint16
	if err := binary.Read(d.r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(d.r, buf); err != nil {
			return "", err
		}
	}
	return string(buf), nil
}

func (d *decoder) readPayload(tagType int) (any, error) {
	switch tagType {
	case tagEnd:
		return nil, nil
	case tagByte:
		v, err := d.readByte()
		return int64(int8(v)), err
	case tagShort:
		var v int16
		err := binary.Read(d.r, binary.BigEndian, &v)
		return int64(v), err
	case tagInt:
		var v int32
		err := binary.Read(d.r, binary.BigEndian, &v)
		return int64(v), err
	case tagLong:
		var v int64
		err := binary.Read(d.r, binary.BigEndian, &v)
		return v, err
	case tagFloat:
		var v float32
		err := binary.Read(d.r, binary.BigEndian, &v)
		return float64(v), err
	case tagDouble:
		var v float64
		err := binary.Read(d.r, binary.BigEndian, &v)
		return v, err
	case tagByteArray:
		var n int32
		if err := binary.Read(d.r, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		buf := make([]byte, n)
		if n > 0 {
			if _, err := io.ReadFull(d.r, buf); err != nil {
				return nil, err
			}
		}
		return buf, nil
	case tagString:
		return d.readString()
	case tagList:
		elemType, err := d.readByte()
		if err != nil {
			return nil, err
		}
		var n int32
		if err := binary.Read(d.r, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		list := make([]any, 0, n)
		for i := int32(0); i < n; i++ {
			v, err := d.readPayload(int(elemType))
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case tagCompound:
		m := map[string]any{}
		for {
			childType, err := d.readByte()
			if err != nil {
				return nil, err
			}
			if childType == tagEnd {
				return m, nil
			}
			name, err := d.readString()
			if err != nil {
				return nil, err
			}
			v, err := d.readPayload(int(childType))
			if err != nil {
				return nil, err
			}
			m[name] = v
		}
	case tagIntArray:
		var n int32
		if err := binary.Read(d.r, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		out := make([]any, n)
		for i := range out {
			var v int32
			if err := binary.Read(d.r, binary.BigEndian, &v); err != nil {
				return nil, err
			}
			out[i] = int64(v)
		}
		return out, nil
	case tagLongArray:
		var n int32
		if err := binary.Read(d.r, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		out := make([]any, n)
		for i := range out {
			var v int64
			if err := binary.Read(d.r, binary.BigEndian, &v); err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("nbt: unknown tag type %d", tagType)
	}
}
