// Package codec encodes documents (map[string]query.Value) to and from the
// byte slices BadgerDB stores as values. The keys those values are stored
// under are built by storage/badger_store.go, not here.
//
// Grounded on the teacher's datalog/storage/types.go StorageDatom.Bytes()/
// StorageDatomFromBytes scheme: a type tag byte followed by a size-prefixed
// payload, repeated per field. nimbusdb generalizes it from a fixed
// E/A/V/Tx datom layout to a variable-length field map, since documents
// have arbitrary shape rather than one value per datom.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nimbusdb/nimbusdb/ident"
	"github.com/nimbusdb/nimbusdb/query"
)

// valueTag mirrors the teacher's datalog.ValueType byte tag.
type valueTag byte

const (
	tagNull valueTag = iota
	tagBool
	tagInt32
	tagInt64
	tagFloat64
	tagDecimal
	tagString
	tagBytes
	tagTime
	tagIdentifier
	tagSequence
	tagDocument
)

// EncodeDocument serializes a document as: uint32 field count, then per
// field a size-prefixed key string followed by an encoded Value.
func EncodeDocument(doc map[string]query.Value) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(len(doc)))
	for k, v := range doc {
		buf = appendString(buf, k)
		buf = appendValue(buf, v)
	}
	return buf
}

// DecodeDocument is the inverse of EncodeDocument.
func DecodeDocument(data []byte) (map[string]query.Value, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("codec: document data too short: %d bytes", len(data))
	}
	count := binary.BigEndian.Uint32(data[0:4])
	pos := 4
	doc := make(map[string]query.Value, count)
	for i := uint32(0); i < count; i++ {
		key, n, err := readString(data[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		v, n, err := readValue(data[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		doc[key] = v
	}
	return doc, nil
}

func appendString(buf []byte, s string) []byte {
	sizeBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(sizeBuf, uint32(len(s)))
	buf = append(buf, sizeBuf...)
	return append(buf, s...)
}

func readString(data []byte) (string, int, error) {
	if len(data) < 4 {
		return "", 0, fmt.Errorf("codec: string length truncated")
	}
	size := binary.BigEndian.Uint32(data[0:4])
	if len(data) < 4+int(size) {
		return "", 0, fmt.Errorf("codec: string data truncated: expected %d bytes", size)
	}
	return string(data[4 : 4+size]), 4 + int(size), nil
}

// appendValue writes tag(1) + size(4) + payload for a single Value.
func appendValue(buf []byte, v query.Value) []byte {
	payload := valuePayload(v)
	head := make([]byte, 5)
	head[0] = byte(tagOf(v))
	binary.BigEndian.PutUint32(head[1:5], uint32(len(payload)))
	buf = append(buf, head...)
	return append(buf, payload...)
}

func readValue(data []byte) (query.Value, int, error) {
	if len(data) < 5 {
		return nil, 0, fmt.Errorf("codec: value header truncated")
	}
	tag := valueTag(data[0])
	size := binary.BigEndian.Uint32(data[1:5])
	if len(data) < 5+int(size) {
		return nil, 0, fmt.Errorf("codec: value payload truncated: expected %d bytes", size)
	}
	payload := data[5 : 5+size]
	v, err := decodePayload(tag, payload)
	return v, 5 + int(size), err
}

func tagOf(v query.Value) valueTag {
	switch v.(type) {
	case nil:
		return tagNull
	case bool:
		return tagBool
	case int32:
		return tagInt32
	case int, int64:
		return tagInt64
	case float32, float64:
		return tagFloat64
	case decimal.Decimal:
		return tagDecimal
	case string:
		return tagString
	case []byte:
		return tagBytes
	case time.Time:
		return tagTime
	case ident.ID:
		return tagIdentifier
	case []query.Value:
		return tagSequence
	case map[string]query.Value:
		return tagDocument
	default:
		return tagNull
	}
}

func valuePayload(v query.Value) []byte {
	switch n := v.(type) {
	case nil:
		return nil
	case bool:
		if n {
			return []byte{1}
		}
		return []byte{0}
	case int32:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(n))
		return b
	case int:
		return int64Payload(int64(n))
	case int64:
		return int64Payload(n)
	case float32:
		return float64Payload(float64(n))
	case float64:
		return float64Payload(n)
	case decimal.Decimal:
		return []byte(n.String())
	case string:
		return []byte(n)
	case []byte:
		return n
	case time.Time:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(n.UTC().UnixNano()))
		return b
	case ident.ID:
		return n.Bytes()
	case []query.Value:
		var buf []byte
		countBuf := make([]byte, 4)
		binary.BigEndian.PutUint32(countBuf, uint32(len(n)))
		buf = append(buf, countBuf...)
		for _, e := range n {
			buf = appendValue(buf, e)
		}
		return buf
	case map[string]query.Value:
		return EncodeDocument(n)
	default:
		return nil
	}
}

func int64Payload(n int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(n))
	return b
}

func float64Payload(f float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(f))
	return b
}

func decodePayload(tag valueTag, payload []byte) (query.Value, error) {
	switch tag {
	case tagNull:
		return nil, nil
	case tagBool:
		if len(payload) != 1 {
			return nil, fmt.Errorf("codec: malformed bool payload")
		}
		return payload[0] != 0, nil
	case tagInt32:
		if len(payload) != 4 {
			return nil, fmt.Errorf("codec: malformed int32 payload")
		}
		return int32(binary.BigEndian.Uint32(payload)), nil
	case tagInt64:
		if len(payload) != 8 {
			return nil, fmt.Errorf("codec: malformed int64 payload")
		}
		return int64(binary.BigEndian.Uint64(payload)), nil
	case tagFloat64:
		if len(payload) != 8 {
			return nil, fmt.Errorf("codec: malformed float64 payload")
		}
		return math.Float64frombits(binary.BigEndian.Uint64(payload)), nil
	case tagDecimal:
		d, err := decimal.NewFromString(string(payload))
		if err != nil {
			return nil, fmt.Errorf("codec: malformed decimal payload: %w", err)
		}
		return d, nil
	case tagString:
		return string(payload), nil
	case tagBytes:
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil
	case tagTime:
		if len(payload) != 8 {
			return nil, fmt.Errorf("codec: malformed time payload")
		}
		return time.Unix(0, int64(binary.BigEndian.Uint64(payload))).UTC(), nil
	case tagIdentifier:
		id, err := ident.FromBytes(payload)
		if err != nil {
			return nil, fmt.Errorf("codec: malformed identifier payload: %w", err)
		}
		return id, nil
	case tagSequence:
		if len(payload) < 4 {
			return nil, fmt.Errorf("codec: sequence length truncated")
		}
		count := binary.BigEndian.Uint32(payload[0:4])
		pos := 4
		seq := make([]query.Value, 0, count)
		for i := uint32(0); i < count; i++ {
			v, n, err := readValue(payload[pos:])
			if err != nil {
				return nil, err
			}
			pos += n
			seq = append(seq, v)
		}
		return seq, nil
	case tagDocument:
		return DecodeDocument(payload)
	default:
		return nil, fmt.Errorf("codec: unknown value tag %d", tag)
	}
}
