package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// WireVersion is the current chunk wire format version.
// Increment when making incompatible changes to the format.
const WireVersion uint16 = 1

// wireChunk is the CBOR shape of a Chunk.
type wireChunk struct {
	Version   uint16    `cbor:"1,keyasint"`
	Name      string    `cbor:"2,keyasint"`
	Code      []byte    `cbor:"3,keyasint"`
	Constants []float64 `cbor:"4,keyasint,omitempty"`
	Lines     []int     `cbor:"5,keyasint,omitempty"` // one per code byte
}

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalChunk serializes a Chunk to CBOR bytes.
func MarshalChunk(c *Chunk) ([]byte, error) {
	w := wireChunk{
		Version:   WireVersion,
		Name:      c.name,
		Code:      c.Code().Clone(),
		Constants: c.Constants().Clone(),
		Lines:     c.Lines().Clone(),
	}
	return cborEncMode.Marshal(&w)
}

// UnmarshalChunk deserializes a Chunk from CBOR bytes.
func UnmarshalChunk(data []byte) (*Chunk, error) {
	var w wireChunk
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal chunk: %w", err)
	}
	if w.Version > WireVersion {
		return nil, fmt.Errorf("bytecode: chunk version %d is newer than supported version %d", w.Version, WireVersion)
	}
	if len(w.Lines) != len(w.Code) {
		return nil, fmt.Errorf("bytecode: chunk %q has %d code bytes but %d line entries", w.Name, len(w.Code), len(w.Lines))
	}

	c := NewChunk(w.Name)
	for i, b := range w.Code {
		c.Write(b, w.Lines[i])
	}
	for _, v := range w.Constants {
		c.AddConstant(v)
	}
	return c, nil
}
