package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/ScapeQin/shufflr/codec"
	"github.com/ScapeQin/shufflr/model"
)

// Entry layout (all integers little-endian, lengths as uvarints):
//
//	magic "SHFL" | version | kind | compression
//	codec name (len + bytes)
//	shape (ndim + dims)
//	scalar attrs block (len + codec bytes)   — single-valued labels
//	array attrs block (len + codec bytes)    — multi-valued labels
//	payload block                            — float32 data, compressBlock format
//
// Labels are attributes of the entry, partitioned into scalar-valued and
// array-valued categories before persisting; they are not part of the
// payload. Entries are self-describing: the codec name and compression type
// in the header select the decoder on read.
var entryMagic = [4]byte{'S', 'H', 'F', 'L'}

const entryVersion = 1

var errMalformedEntry = errors.New("malformed entry")

// partitionAttrs splits the label mapping into scalar and array-valued
// attribute categories.
func partitionAttrs(labels map[string][]string) (scalars map[string]string, arrays map[string][]string) {
	scalars = make(map[string]string)
	arrays = make(map[string][]string)
	for key, vals := range labels {
		if len(vals) == 1 {
			scalars[key] = vals[0]
		} else {
			arrays[key] = vals
		}
	}
	return scalars, arrays
}

func encodeItem(item model.Item, c codec.Codec, comp Compression) ([]byte, error) {
	scalars, arrays := partitionAttrs(item.Labels)

	scalarBlock, err := c.Marshal(scalars)
	if err != nil {
		return nil, fmt.Errorf("encode scalar attrs: %w", err)
	}
	arrayBlock, err := c.Marshal(arrays)
	if err != nil {
		return nil, fmt.Errorf("encode array attrs: %w", err)
	}

	payload := make([]byte, 4*len(item.Value.Data))
	for i, f := range item.Value.Data {
		binary.LittleEndian.PutUint32(payload[4*i:], math.Float32bits(f))
	}
	payloadBlock, err := compressBlock(payload, comp)
	if err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}

	buf := make([]byte, 0, len(payloadBlock)+len(scalarBlock)+len(arrayBlock)+64)
	buf = append(buf, entryMagic[:]...)
	buf = append(buf, entryVersion, byte(item.Kind), byte(comp))
	buf = binary.AppendUvarint(buf, uint64(len(c.Name())))
	buf = append(buf, c.Name()...)
	buf = binary.AppendUvarint(buf, uint64(len(item.Value.Shape)))
	for _, d := range item.Value.Shape {
		buf = binary.AppendUvarint(buf, uint64(d))
	}
	buf = binary.AppendUvarint(buf, uint64(len(scalarBlock)))
	buf = append(buf, scalarBlock...)
	buf = binary.AppendUvarint(buf, uint64(len(arrayBlock)))
	buf = append(buf, arrayBlock...)
	buf = append(buf, payloadBlock...)
	return buf, nil
}

type entryReader struct {
	buf []byte
	pos int
}

func (r *entryReader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		return 0, errMalformedEntry
	}
	r.pos += n
	return v, nil
}

func (r *entryReader) bytes(n uint64) ([]byte, error) {
	if uint64(len(r.buf)-r.pos) < n {
		return nil, errMalformedEntry
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

func decodeItem(data []byte) (model.Item, error) {
	if len(data) < 7 || [4]byte(data[:4]) != entryMagic {
		return model.Item{}, errMalformedEntry
	}
	if data[4] != entryVersion {
		return model.Item{}, fmt.Errorf("%w: unsupported version %d", errMalformedEntry, data[4])
	}

	kind := model.Kind(data[5])
	comp := Compression(data[6])
	if !comp.valid() {
		return model.Item{}, fmt.Errorf("%w: compression type %d", errMalformedEntry, data[6])
	}

	r := &entryReader{buf: data, pos: 7}

	nameLen, err := r.uvarint()
	if err != nil {
		return model.Item{}, err
	}
	name, err := r.bytes(nameLen)
	if err != nil {
		return model.Item{}, err
	}
	c, ok := codec.ByName(string(name))
	if !ok {
		return model.Item{}, fmt.Errorf("%w: unknown codec %q", errMalformedEntry, name)
	}

	ndim, err := r.uvarint()
	if err != nil {
		return model.Item{}, err
	}
	shape := make([]int, ndim)
	for i := range shape {
		d, err := r.uvarint()
		if err != nil {
			return model.Item{}, err
		}
		shape[i] = int(d)
	}

	scalarLen, err := r.uvarint()
	if err != nil {
		return model.Item{}, err
	}
	scalarBlock, err := r.bytes(scalarLen)
	if err != nil {
		return model.Item{}, err
	}
	arrayLen, err := r.uvarint()
	if err != nil {
		return model.Item{}, err
	}
	arrayBlock, err := r.bytes(arrayLen)
	if err != nil {
		return model.Item{}, err
	}

	var scalars map[string]string
	if err := c.Unmarshal(scalarBlock, &scalars); err != nil {
		return model.Item{}, fmt.Errorf("decode scalar attrs: %w", err)
	}
	var arrays map[string][]string
	if err := c.Unmarshal(arrayBlock, &arrays); err != nil {
		return model.Item{}, fmt.Errorf("decode array attrs: %w", err)
	}

	labels := make(map[string][]string, len(scalars)+len(arrays))
	for k, v := range scalars {
		labels[k] = []string{v}
	}
	for k, v := range arrays {
		labels[k] = v
	}

	payload, err := decompressBlock(data[r.pos:], comp)
	if err != nil {
		return model.Item{}, fmt.Errorf("decompress payload: %w", err)
	}
	if len(payload)%4 != 0 {
		return model.Item{}, errMalformedEntry
	}
	values := make([]float32, len(payload)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[4*i:]))
	}

	value, err := model.NewArray(values, shape...)
	if err != nil {
		return model.Item{}, fmt.Errorf("%w: %v", errMalformedEntry, err)
	}
	return model.Item{Kind: kind, Value: value, Labels: labels}, nil
}
