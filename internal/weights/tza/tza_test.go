package tza

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenforge/denoise/internal/tensor"
)

func TestWriteParseRoundTrip(t *testing.T) {
	weightDesc := tensor.NewWeightDesc(2, 3, 1, 1, 2, 3, tensor.OIHW, tensor.Half)
	weightData := make([]byte, weightDesc.NumElements()*2)
	for i := range weightData {
		weightData[i] = byte(i)
	}

	biasDesc := tensor.NewBiasDesc(2, 2, tensor.Half)
	biasData := make([]byte, biasDesc.NumElements()*2)
	for i := range biasData {
		biasData[i] = byte(100 + i)
	}

	entries := []Entry{
		{Name: "enc_conv0.weight", Desc: weightDesc, Data: weightData},
		{Name: "enc_conv0.bias", Desc: biasDesc, Data: biasData},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, entries))

	blob, err := Parse(&buf)
	require.NoError(t, err)

	w, ok := blob.Get("enc_conv0.weight")
	require.True(t, ok)
	require.Equal(t, weightDesc, w.Desc)
	require.Equal(t, weightData, w.Bytes())

	b, ok := blob.Get("enc_conv0.bias")
	require.True(t, ok)
	require.Equal(t, biasDesc, b.Desc)
	require.Equal(t, biasData, b.Bytes())

	_, ok = blob.Get("does_not_exist")
	require.False(t, ok)
}

func TestParseRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("NOPE")
	_, err := Parse(buf)
	require.Error(t, err)
}

func TestParseRejectsDuplicateName(t *testing.T) {
	desc := tensor.NewBiasDesc(1, 1, tensor.Half)
	entries := []Entry{
		{Name: "dup", Desc: desc, Data: make([]byte, 2)},
		{Name: "dup", Desc: desc, Data: make([]byte, 2)},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, entries))

	_, err := Parse(&buf)
	require.Error(t, err)
}

func TestWriteRejectsMismatchedDataLength(t *testing.T) {
	desc := tensor.NewBiasDesc(4, 4, tensor.Half)
	entries := []Entry{{Name: "bad", Desc: desc, Data: make([]byte, 3)}}

	var buf bytes.Buffer
	err := Write(&buf, entries)
	require.Error(t, err)
}
