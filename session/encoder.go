package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	sessionFormatVersionCurrent = 1

	maxFieldLen       = 255
	maxAuthorityCount = 1024
	renewedAtSize     = 8
)

// ErrUnsupportedVersion is returned by Decode for blobs written by an unknown schema.
var ErrUnsupportedVersion = errors.New("unsupported session schema version")

// Encode serializes s. Layout (v1):
//
//	version u8
//	fingerprint  u8 len + bytes
//	userID       u8 len + bytes
//	username     u8 len + bytes
//	email        u8 len + bytes
//	authorities  u16 count, then u8 len + bytes each
//	createdAt    i64 big-endian (unix millis)
//	renewedAt    i64 big-endian (unix millis), always last
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}
	if len(s.Authorities) > maxAuthorityCount {
		return nil, errors.New("too many authorities")
	}

	var buf bytes.Buffer
	buf.Grow(64 + len(s.Authorities)*16)
	buf.WriteByte(sessionFormatVersionCurrent)

	for _, f := range []struct {
		name  string
		value string
	}{
		{"fingerprint", s.Fingerprint},
		{"userID", s.UserID},
		{"username", s.Username},
		{"email", s.Email},
	} {
		if err := writeShortString(&buf, f.name, f.value); err != nil {
			return nil, err
		}
	}

	if err := binary.Write(&buf, binary.BigEndian, uint16(len(s.Authorities))); err != nil {
		return nil, err
	}
	for _, a := range s.Authorities {
		if err := writeShortString(&buf, "authority", a); err != nil {
			return nil, err
		}
	}

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.RenewedAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a blob produced by Encode.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != sessionFormatVersionCurrent {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	s := &Session{}
	for _, dst := range []*string{&s.Fingerprint, &s.UserID, &s.Username, &s.Email} {
		if *dst, err = readShortString(reader); err != nil {
			return nil, err
		}
	}

	var count uint16
	if err := binary.Read(reader, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	if count > maxAuthorityCount {
		return nil, errors.New("too many authorities")
	}
	if count > 0 {
		s.Authorities = make([]string, 0, count)
	}
	for i := 0; i < int(count); i++ {
		a, err := readShortString(reader)
		if err != nil {
			return nil, err
		}
		s.Authorities = append(s.Authorities, a)
	}

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.RenewedAt); err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes after session")
	}

	return s, nil
}

func writeShortString(buf *bytes.Buffer, name, value string) error {
	if len(value) > maxFieldLen {
		return fmt.Errorf("%s too long", name)
	}
	buf.WriteByte(byte(len(value)))
	buf.WriteString(value)
	return nil
}

func readShortString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
