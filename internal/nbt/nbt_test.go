package nbt

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// writeRootCompoundWithString builds a minimal root compound tag with one string
// child, for round-trip testing of the decoder.
func writeRootCompoundWithString(t *testing.T, rootName, childName, childVal string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteByte(tagCompound)
	writeStr(&buf, rootName)

	buf.WriteByte(tagString)
	writeStr(&buf, childName)
	writeStr(&buf, childVal)

	buf.WriteByte(tagEnd)
	return buf.Bytes()
}

func writeStr(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, uint16(len(s)))
	buf.WriteString(s)
}

func TestDecodeCompoundWithString(t *testing.T) {
	raw := writeRootCompoundWithString(t, "root", "ExtraAttributes", "hello")
	v, err := DecodeBytes(raw)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T", v)
	}
	if m["ExtraAttributes"] != "hello" {
		t.Errorf("got %v", m["ExtraAttributes"])
	}
}

func TestDecodeTruncatedFails(t *testing.T) {
	raw := writeRootCompoundWithString(t, "root", "x", "y")
	_, err := DecodeBytes(raw[:len(raw)-3])
	if err == nil {
		t.Fatal("expected error on truncated input")
	}
}
