package lobby

import (
	"bytes"
	"encoding/binary"
	"io"
	"unicode/utf8"
)

func ReadUint8(r io.Reader) uint8 {
	b := make([]byte, 1)
	r.Read(b)
	return uint8(b[0])
}

func WriteUint8(w io.Writer, v uint8) {
	w.Write([]byte{v})
}

func ReadUint16(r io.Reader) uint16 {
	b := make([]byte, 2)
	io.ReadFull(r, b)
	return binary.BigEndian.Uint16(b)
}

func WriteUint16(w io.Writer, v uint16) {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	w.Write(b)
}

func ReadUint32(r io.Reader) uint32 {
	b := make([]byte, 4)
	io.ReadFull(r, b)
	return binary.BigEndian.Uint32(b)
}

func WriteUint32(w io.Writer, v uint32) {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	w.Write(b)
}

func ReadBool(r io.Reader) bool {
	return ReadUint8(r) != 0
}

func WriteBool(w io.Writer, v bool) {
	if v {
		WriteUint8(w, 1)
	} else {
		WriteUint8(w, 0)
	}
}

// ReadString reads a string prefixed by its uint16 length
func ReadString(r io.Reader) string {
	b := make([]byte, ReadUint16(r))
	n, _ := io.ReadFull(r, b)
	return string(b[:n])
}

// WriteString writes s prefixed by its uint16 length
func WriteString(w io.Writer, s string) {
	if len(s) > 0xFFFF {
		s = s[:0xFFFF]
	}

	WriteUint16(w, uint16(len(s)))
	io.WriteString(w, s)
}

// ReadName reads a NUL padded name field of NameMax bytes
func ReadName(r io.Reader) string {
	b := make([]byte, NameMax)
	io.ReadFull(r, b)
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return string(b)
}

// WriteName writes name as a NUL padded field of NameMax bytes,
// truncating it if necessary
func WriteName(w io.Writer, name string) {
	b := make([]byte, NameMax)
	copy(b, TruncName(name))
	w.Write(b)
}

// TruncName cuts name to the width of a name field
func TruncName(name string) string {
	return truncate(name, NameMax)
}

// truncate cuts s to at most n bytes without splitting a character
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n]
}
