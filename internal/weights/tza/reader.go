package tza

import (
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/lumenforge/denoise/internal/tensor"
)

// entry is one parsed record: the tensor it names, plus the byte range
// of its element data inside the pooled data buffer. Each range is the
// descriptor's aligned size, the raw bytes followed by zero padding, so
// tensor.View accepts it.
type entry struct {
	desc tensor.TensorDesc
	off  int
	size int
}

// Blob is an in-memory parsed tza container implementing weights.Blob.
// The whole file is read and kept resident; weight blobs for this
// module's built-in network are small enough that an mmap'd,
// page-cache-backed access path is not worth the complexity here.
type Blob struct {
	entries map[string]entry
	data    []byte
}

// Get implements weights.Blob.
func (b *Blob) Get(name string) (tensor.Tensor, bool) {
	e, ok := b.entries[name]
	if !ok {
		return tensor.Tensor{}, false
	}
	return tensor.View(e.desc, b.data[e.off:e.off+e.size], 0), true
}

// Names returns the sorted set of tensor names the blob holds, mainly
// useful for diagnostics and tests.
func (b *Blob) Names() []string {
	names := make([]string, 0, len(b.entries))
	for name := range b.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFile parses a tza weight container from disk.
func LoadFile(path string) (*Blob, error) {
	//nolint:gosec // G304: path comes from the caller, not untrusted user input.
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "tza: open")
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse reads a tza weight container from r.
func Parse(r io.Reader) (*Blob, error) {
	magic := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, errors.Wrap(err, "tza: read magic")
	}
	if string(magic) != MagicBytes {
		return nil, errors.Errorf("tza: bad magic %q, expected %q", magic, MagicBytes)
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, errors.Wrap(err, "tza: read version")
	}
	if version != FormatVersion {
		return nil, errors.Errorf("tza: unsupported format version %d", version)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, errors.Wrap(err, "tza: read record count")
	}

	b := &Blob{entries: make(map[string]entry, count)}
	var data []byte

	for i := uint32(0); i < count; i++ {
		name, desc, payload, err := parseRecord(r)
		if err != nil {
			return nil, errors.Wrapf(err, "tza: record %d", i)
		}
		if _, dup := b.entries[name]; dup {
			return nil, errors.Errorf("tza: duplicate tensor name %q", name)
		}
		size := int(desc.AlignedByteSize())
		b.entries[name] = entry{desc: desc, off: len(data), size: size}
		data = append(data, payload...)
		data = append(data, make([]byte, size-len(payload))...)
	}

	b.data = data
	return b, nil
}

func parseRecord(r io.Reader) (name string, desc tensor.TensorDesc, payload []byte, err error) {
	var nameLen uint32
	if err = binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return "", tensor.TensorDesc{}, nil, errors.Wrap(err, "read name length")
	}
	if nameLen == 0 || nameLen > 4096 {
		return "", tensor.TensorDesc{}, nil, errors.Errorf("implausible name length %d", nameLen)
	}
	nameBuf := make([]byte, nameLen)
	if _, err = io.ReadFull(r, nameBuf); err != nil {
		return "", tensor.TensorDesc{}, nil, errors.Wrap(err, "read name")
	}
	name = string(nameBuf)

	var rank recordRank
	if err = binary.Read(r, binary.LittleEndian, &rank); err != nil {
		return "", tensor.TensorDesc{}, nil, errors.Wrap(err, "read rank")
	}

	var dims [4]uint32
	if err = binary.Read(r, binary.LittleEndian, &dims); err != nil {
		return "", tensor.TensorDesc{}, nil, errors.Wrap(err, "read dims")
	}

	var dtype recordDType
	if err = binary.Read(r, binary.LittleEndian, &dtype); err != nil {
		return "", tensor.TensorDesc{}, nil, errors.Wrap(err, "read dtype")
	}

	var dataLen uint64
	if err = binary.Read(r, binary.LittleEndian, &dataLen); err != nil {
		return "", tensor.TensorDesc{}, nil, errors.Wrap(err, "read data length")
	}
	if dataLen > 1<<32 {
		return "", tensor.TensorDesc{}, nil, errors.Errorf("implausible data length %d", dataLen)
	}
	payload = make([]byte, dataLen)
	if _, err = io.ReadFull(r, payload); err != nil {
		return "", tensor.TensorDesc{}, nil, errors.Wrap(err, "read data")
	}

	dt := decodeDType(dtype)
	switch rank {
	case rankWeight:
		o, i, h, w := int(dims[0]), int(dims[1]), int(dims[2]), int(dims[3])
		desc = tensor.NewWeightDesc(o, i, h, w, o, i, tensor.OIHW, dt)
	case rankBias:
		x := int(dims[0])
		desc = tensor.NewBiasDesc(x, x, dt)
	default:
		return "", tensor.TensorDesc{}, nil, errors.Errorf("unsupported record rank %d", rank)
	}

	want := int(desc.NumElements()) * dt.Size()
	if len(payload) != want {
		return "", tensor.TensorDesc{}, nil, errors.Errorf(
			"tensor %q: data length %d does not match shape (want %d)", name, len(payload), want)
	}
	return name, desc, payload, nil
}

func decodeDType(d recordDType) tensor.DataType {
	switch d {
	case dtypeHalf:
		return tensor.Half
	default:
		return tensor.Float
	}
}
