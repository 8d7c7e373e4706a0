package bytecode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func TestChunk_CBORRoundTrip(t *testing.T) {
	c := NewChunk("wire")
	c.EmitConstant(3.14, 1)
	c.EmitConstant(-2, 2)
	c.WriteOp(OpMultiply, 2)
	c.WriteOp(OpReturn, 3)

	data, err := MarshalChunk(c)
	if err != nil {
		t.Fatalf("MarshalChunk: %v", err)
	}

	got, err := UnmarshalChunk(data)
	if err != nil {
		t.Fatalf("UnmarshalChunk: %v", err)
	}

	if got.Name() != c.Name() {
		t.Errorf("Name: got %q, want %q", got.Name(), c.Name())
	}
	if got.String() != c.String() {
		t.Errorf("disassembly differs:\n%s\nwant\n%s", got, c)
	}
	if got.ConstantCount() != 2 || got.GetConstant(0) != 3.14 || got.GetConstant(1) != -2 {
		t.Errorf("constants = %v", got.Constants().Clone())
	}
}

func TestChunk_CBORDeterministic(t *testing.T) {
	build := func() *Chunk {
		c := NewChunk("same")
		c.EmitConstant(1, 1)
		c.WriteOp(OpReturn, 1)
		return c
	}

	a, err := MarshalChunk(build())
	if err != nil {
		t.Fatal(err)
	}
	b, err := MarshalChunk(build())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("canonical encoding is not deterministic")
	}
}

func TestChunk_CBOREmpty(t *testing.T) {
	data, err := MarshalChunk(NewChunk("empty"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalChunk(data)
	if err != nil {
		t.Fatalf("UnmarshalChunk: %v", err)
	}
	if got.Len() != 0 || got.ConstantCount() != 0 {
		t.Errorf("empty chunk decoded with Len=%d constants=%d", got.Len(), got.ConstantCount())
	}
}

func TestUnmarshalChunkRejectsMismatchedLines(t *testing.T) {
	data, err := cborEncMode.Marshal(&wireChunk{
		Version: WireVersion,
		Name:    "bad",
		Code:    []byte{byte(OpReturn), byte(OpReturn)},
		Lines:   []int{1},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = UnmarshalChunk(data)
	if err == nil || !strings.Contains(err.Error(), "line entries") {
		t.Errorf("UnmarshalChunk error = %v, want line count mismatch", err)
	}
}

func TestUnmarshalChunkRejectsNewerVersion(t *testing.T) {
	data, err := cborEncMode.Marshal(&wireChunk{Version: WireVersion + 1, Name: "future"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = UnmarshalChunk(data)
	if err == nil || !strings.Contains(err.Error(), "newer") {
		t.Errorf("UnmarshalChunk error = %v, want version error", err)
	}
}

func TestUnmarshalChunkGarbage(t *testing.T) {
	garbage, _ := cbor.Marshal("not a chunk")
	if _, err := UnmarshalChunk(garbage); err == nil {
		t.Error("UnmarshalChunk accepted a CBOR string")
	}
}
