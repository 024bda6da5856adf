package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const blobFormatVersionCurrent = 1

const (
	flagSecure   = 1 << 0
	flagHTTPOnly = 1 << 1
)

var (
	// ErrCorruptBlob is returned when stored bytes cannot be decoded.
	ErrCorruptBlob = errors.New("session blob corrupt")
	// ErrBlobTooLarge is returned when a field exceeds its length prefix.
	ErrBlobTooLarge = errors.New("session blob field too large")
)

// Encode serializes b in the current schema version.
func Encode(b *Blob) ([]byte, error) {
	if b == nil {
		return nil, errors.New("nil blob")
	}
	if len(b.Cookies) > 0xFFFF {
		return nil, ErrBlobTooLarge
	}

	var buf bytes.Buffer
	buf.WriteByte(blobFormatVersionCurrent)

	if err := writeString16(&buf, b.Origin); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, b.SavedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(b.Cookies))); err != nil {
		return nil, err
	}

	for _, c := range b.Cookies {
		if err := writeString8(&buf, c.Name); err != nil {
			return nil, err
		}
		if err := writeString16(&buf, c.Value); err != nil {
			return nil, err
		}
		if err := writeString8(&buf, c.Path); err != nil {
			return nil, err
		}
		if err := writeString8(&buf, c.Domain); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.BigEndian, c.Expires); err != nil {
			return nil, err
		}
		var flags byte
		if c.Secure {
			flags |= flagSecure
		}
		if c.HTTPOnly {
			flags |= flagHTTPOnly
		}
		buf.WriteByte(flags)
		buf.WriteByte(c.SameSite)
	}

	return buf.Bytes(), nil
}

// Decode parses bytes produced by [Encode].
func Decode(data []byte) (*Blob, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, ErrCorruptBlob
	}
	if version != blobFormatVersionCurrent {
		return nil, ErrCorruptBlob
	}

	b := &Blob{}
	if b.Origin, err = readString16(reader); err != nil {
		return nil, ErrCorruptBlob
	}
	if err := binary.Read(reader, binary.BigEndian, &b.SavedAt); err != nil {
		return nil, ErrCorruptBlob
	}

	var count uint16
	if err := binary.Read(reader, binary.BigEndian, &count); err != nil {
		return nil, ErrCorruptBlob
	}

	b.Cookies = make([]Cookie, 0, count)
	for i := 0; i < int(count); i++ {
		var c Cookie
		if c.Name, err = readString8(reader); err != nil {
			return nil, ErrCorruptBlob
		}
		if c.Value, err = readString16(reader); err != nil {
			return nil, ErrCorruptBlob
		}
		if c.Path, err = readString8(reader); err != nil {
			return nil, ErrCorruptBlob
		}
		if c.Domain, err = readString8(reader); err != nil {
			return nil, ErrCorruptBlob
		}
		if err := binary.Read(reader, binary.BigEndian, &c.Expires); err != nil {
			return nil, ErrCorruptBlob
		}
		flags, err := reader.ReadByte()
		if err != nil {
			return nil, ErrCorruptBlob
		}
		c.Secure = flags&flagSecure != 0
		c.HTTPOnly = flags&flagHTTPOnly != 0
		if c.SameSite, err = reader.ReadByte(); err != nil {
			return nil, ErrCorruptBlob
		}
		b.Cookies = append(b.Cookies, c)
	}

	if reader.Len() != 0 {
		return nil, ErrCorruptBlob
	}

	return b, nil
}

func writeString8(buf *bytes.Buffer, s string) error {
	if len(s) > 0xFF {
		return ErrBlobTooLarge
	}
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
	return nil
}

func writeString16(buf *bytes.Buffer, s string) error {
	if len(s) > 0xFFFF {
		return ErrBlobTooLarge
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	buf.WriteString(s)
	return nil
}

func readString8(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return "", err
	}
	return string(out), nil
}

func readString16(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return "", err
	}
	return string(out), nil
}
