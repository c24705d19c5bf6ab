package tza

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/lumenforge/denoise/internal/tensor"
)

// Entry is one tensor to serialize: a name, its descriptor (rank must
// be 1 for a bias tensor or 4 for a weight tensor in oihw layout) and
// its raw logical element data, already encoded in desc.DataType.
type Entry struct {
	Name string
	Desc tensor.TensorDesc
	Data []byte
}

// WriteFile serializes entries to a new tza file at path, overwriting
// any existing file.
func WriteFile(path string, entries []Entry) error {
	//nolint:gosec // G304: path comes from the caller, not untrusted user input.
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "tza: create")
	}
	defer func() { _ = f.Close() }()
	return Write(f, entries)
}

// Write serializes entries to w in tza format.
func Write(w io.Writer, entries []Entry) error {
	if _, err := io.WriteString(w, MagicBytes); err != nil {
		return errors.Wrap(err, "tza: write magic")
	}
	if err := binary.Write(w, binary.LittleEndian, FormatVersion); err != nil {
		return errors.Wrap(err, "tza: write version")
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(entries))); err != nil {
		return errors.Wrap(err, "tza: write record count")
	}
	for _, e := range entries {
		if err := writeRecord(w, e); err != nil {
			return errors.Wrapf(err, "tza: record %q", e.Name)
		}
	}
	return nil
}

func writeRecord(w io.Writer, e Entry) error {
	want := int(e.Desc.NumElements()) * e.Desc.DataType.Size()
	if len(e.Data) != want {
		return errors.Errorf("data length %d does not match descriptor shape (want %d)", len(e.Data), want)
	}

	var rank recordRank
	var dims [4]uint32
	switch e.Desc.Rank() {
	case 4:
		rank = rankWeight
		dims = [4]uint32{uint32(e.Desc.O()), uint32(e.Desc.I()), uint32(e.Desc.H()), uint32(e.Desc.W())}
	case 1:
		rank = rankBias
		dims = [4]uint32{uint32(e.Desc.X()), 0, 0, 0}
	default:
		return errors.Errorf("unsupported descriptor rank %d", e.Desc.Rank())
	}

	dtype := encodeDType(e.Desc.DataType)

	if err := binary.Write(w, binary.LittleEndian, uint32(len(e.Name))); err != nil {
		return errors.Wrap(err, "write name length")
	}
	if _, err := io.WriteString(w, e.Name); err != nil {
		return errors.Wrap(err, "write name")
	}
	if err := binary.Write(w, binary.LittleEndian, rank); err != nil {
		return errors.Wrap(err, "write rank")
	}
	if err := binary.Write(w, binary.LittleEndian, dims); err != nil {
		return errors.Wrap(err, "write dims")
	}
	if err := binary.Write(w, binary.LittleEndian, dtype); err != nil {
		return errors.Wrap(err, "write dtype")
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(e.Data))); err != nil {
		return errors.Wrap(err, "write data length")
	}
	if _, err := w.Write(e.Data); err != nil {
		return errors.Wrap(err, "write data")
	}
	return nil
}

func encodeDType(dt tensor.DataType) recordDType {
	switch dt {
	case tensor.Half:
		return dtypeHalf
	default:
		return dtypeFloat
	}
}
