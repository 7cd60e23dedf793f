package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cookiecutter/internal/client/models"
	"google.golang.org/protobuf/encoding/protowire"
)

// codecVersion is written into every envelope. Decode rejects envelopes
// written by a newer, incompatible encoder.
const codecVersion = 1

var ErrUnsupportedVersion = errors.New("unsupported workspace encoding version")

// Field numbers. Never reuse a number once it has been released.
const (
	envVersion protowire.Number = 1
	envItem    protowire.Number = 2

	itemID           protowire.Number = 1
	itemSource       protowire.Number = 2
	itemArtifact     protowire.Number = 3
	itemDisplayName  protowire.Number = 4
	itemCreatedAt    protowire.Number = 5
	itemLastModified protowire.Number = 6
	itemSnapshot     protowire.Number = 7

	blobName        protowire.Number = 1
	blobContentType protowire.Number = 2
	blobData        protowire.Number = 3

	snapMode  protowire.Number = 1
	snapParam protowire.Number = 2

	paramName  protowire.Number = 1
	paramValue protowire.Number = 2
)

// Encode serializes the collection. Every variable-length field is
// length-prefixed, so binary data is stored verbatim.
func Encode(items []models.WorkItem) []byte {
	var b []byte
	b = protowire.AppendTag(b, envVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, codecVersion)
	for _, it := range items {
		b = protowire.AppendTag(b, envItem, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeItem(it))
	}
	return b
}

func encodeItem(it models.WorkItem) []byte {
	var b []byte
	b = appendString(b, itemID, it.ID)
	b = protowire.AppendTag(b, itemSource, protowire.BytesType)
	b = protowire.AppendBytes(b, encodeBlob(it.Source))
	if it.Artifact != nil {
		b = protowire.AppendTag(b, itemArtifact, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeBlob(*it.Artifact))
	}
	b = appendString(b, itemDisplayName, it.DisplayName)
	b = appendTime(b, itemCreatedAt, it.CreatedAt)
	b = appendTime(b, itemLastModified, it.LastModified)
	if it.Snapshot != nil {
		b = protowire.AppendTag(b, itemSnapshot, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeSnapshot(*it.Snapshot))
	}
	return b
}

func encodeBlob(bl models.Blob) []byte {
	var b []byte
	b = appendString(b, blobName, bl.Name)
	b = appendString(b, blobContentType, bl.ContentType)
	b = protowire.AppendTag(b, blobData, protowire.BytesType)
	b = protowire.AppendBytes(b, bl.Data)
	return b
}

func encodeSnapshot(s models.Snapshot) []byte {
	var b []byte
	b = protowire.AppendTag(b, snapMode, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.Mode))
	for _, name := range models.ParameterNames() {
		v, _ := s.Params.Get(name)
		var p []byte
		p = appendString(p, paramName, name)
		p = appendString(p, paramValue, string(v))
		b = protowire.AppendTag(b, snapParam, protowire.BytesType)
		b = protowire.AppendBytes(b, p)
	}
	return b
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendTime(b []byte, num protowire.Number, t time.Time) []byte {
	if t.IsZero() {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(t.UnixNano()))
}

// Decode parses a collection written by Encode. An envelope with no items
// decodes to an empty, non-nil slice.
func Decode(b []byte) ([]models.WorkItem, error) {
	items := []models.WorkItem{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == envVersion && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return n, nil
			}
			if v > codecVersion {
				return 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
			}
			return n, nil
		case num == envItem && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			it, err := decodeItem(raw)
			if err != nil {
				return 0, err
			}
			items = append(items, it)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func decodeItem(b []byte) (models.WorkItem, error) {
	var it models.WorkItem
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case typ == protowire.BytesType && (num == itemID || num == itemDisplayName):
			s, n := protowire.ConsumeString(b)
			if num == itemID {
				it.ID = s
			} else {
				it.DisplayName = s
			}
			return n, nil
		case typ == protowire.BytesType && (num == itemSource || num == itemArtifact):
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			bl, err := decodeBlob(raw)
			if err != nil {
				return 0, err
			}
			if num == itemSource {
				it.Source = bl
			} else {
				it.Artifact = &bl
			}
			return n, nil
		case typ == protowire.VarintType && (num == itemCreatedAt || num == itemLastModified):
			v, n := protowire.ConsumeVarint(b)
			t := time.Unix(0, int64(v)).UTC()
			if num == itemCreatedAt {
				it.CreatedAt = t
			} else {
				it.LastModified = t
			}
			return n, nil
		case typ == protowire.BytesType && num == itemSnapshot:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			s, err := decodeSnapshot(raw)
			if err != nil {
				return 0, err
			}
			it.Snapshot = &s
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return it, err
}

func decodeBlob(b []byte) (models.Blob, error) {
	var bl models.Blob
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		raw, n := protowire.ConsumeBytes(b)
		switch num {
		case blobName:
			bl.Name = string(raw)
		case blobContentType:
			bl.ContentType = string(raw)
		case blobData:
			bl.Data = append([]byte{}, raw...)
		}
		return n, nil
	})
	return bl, err
}

func decodeSnapshot(b []byte) (models.Snapshot, error) {
	var s models.Snapshot
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == snapMode && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			s.Mode = models.Mode(v)
			return n, nil
		case num == snapParam && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			var name, value string
			err := walk(raw, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				if typ != protowire.BytesType {
					return protowire.ConsumeFieldValue(num, typ, b), nil
				}
				v, n := protowire.ConsumeString(b)
				switch num {
				case paramName:
					name = v
				case paramValue:
					value = v
				}
				return n, nil
			})
			if err != nil {
				return 0, err
			}
			// Parameters dropped by a later version are ignored.
			_ = s.Params.Set(name, value)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err == nil && !s.Mode.Valid() {
		err = fmt.Errorf("snapshot: %w: %d", models.ErrUnknownMode, int(s.Mode))
	}
	return s, err
}

// walk iterates over the fields of one message. fn consumes the field value
// and returns the number of bytes used, or a negative protowire error code.
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}
