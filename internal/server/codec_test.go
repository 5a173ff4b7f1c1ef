package server

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	payload := []byte(`{"op":"raw.preview","input":{"path":"/photos/a.cr2"}}`)

	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, payload))
	assert.Equal(t, 4+len(payload), buf.Len())

	got, err := readFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFrameSequence(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, []byte("first")))
	require.NoError(t, writeFrame(&buf, []byte("second")))

	a, err := readFrame(&buf)
	require.NoError(t, err)
	b, err := readFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, "first", string(a))
	assert.Equal(t, "second", string(b))
}

func TestReadFrameRejectsZeroLength(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0, 0, 0, 0})
	_, err := readFrame(buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zero-length")
}

func TestReadFrameRejectsOversize(t *testing.T) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], maxFrameBytes+1)
	_, err := readFrame(bytes.NewReader(lenBuf[:]))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds limit")
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(100))
	buf.WriteString("only a little")

	_, err := readFrame(&buf)
	require.Error(t, err)
}
