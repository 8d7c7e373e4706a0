package bytecode

import (
	"math"
	"testing"
)

func TestNewChunk(t *testing.T) {
	c := NewChunk("empty")

	if c.Name() != "empty" {
		t.Errorf("Name() = %q, want %q", c.Name(), "empty")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
	if c.ConstantCount() != 0 {
		t.Errorf("ConstantCount() = %d, want 0", c.ConstantCount())
	}
}

func TestChunkWriteAndGetByte(t *testing.T) {
	c := NewChunk("bytes")
	writes := []struct {
		b    byte
		line int
	}{
		{byte(OpLoadConstant), 1},
		{0, 1},
		{byte(OpNegate), 2},
		{0xFF, 3},
		{byte(OpReturn), 3},
	}
	for _, w := range writes {
		c.Write(w.b, w.line)
	}

	if c.Len() != len(writes) {
		t.Fatalf("Len() = %d, want %d", c.Len(), len(writes))
	}
	for i, w := range writes {
		if got := c.GetByte(i); got != w.b {
			t.Errorf("GetByte(%d) = %d, want %d", i, got, w.b)
		}
		if got := c.LineAt(i); got != w.line {
			t.Errorf("LineAt(%d) = %d, want %d", i, got, w.line)
		}
	}
	if c.Lines().Len() != c.Code().Len() {
		t.Errorf("lines %d != bytecode %d", c.Lines().Len(), c.Code().Len())
	}
}

func TestChunkAddConstant(t *testing.T) {
	c := NewChunk("pool")
	values := []Value{1.2, 3.4, 1.2, 0, -7}

	for i, v := range values {
		idx := c.AddConstant(v)
		if idx != i {
			t.Errorf("AddConstant(%v) = %d, want %d", v, idx, i)
		}
		if got := c.GetConstant(idx); got != v {
			t.Errorf("GetConstant(%d) = %v, want %v", idx, got, v)
		}
	}

	// No deduplication: the repeated 1.2 has its own slot.
	if c.ConstantCount() != len(values) {
		t.Errorf("ConstantCount() = %d, want %d", c.ConstantCount(), len(values))
	}
}

func TestChunkUpdateConstant(t *testing.T) {
	c := NewChunk("update")
	a := c.AddConstant(2)
	b := c.AddConstant(2)

	c.UpdateConstant(a, -2)

	if got := c.GetConstant(a); got != -2 {
		t.Errorf("GetConstant(%d) = %v, want -2", a, got)
	}
	if got := c.GetConstant(b); got != 2 {
		t.Errorf("equal slot %d changed to %v", b, got)
	}
}

func TestChunkEmitConstant(t *testing.T) {
	c := NewChunk("emit")
	idx := c.EmitConstant(9.5, 4)

	if idx != 0 {
		t.Errorf("EmitConstant index = %d, want 0", idx)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if Opcode(c.GetByte(0)) != OpLoadConstant || c.GetByte(1) != 0 {
		t.Errorf("code = [%d %d], want [1 0]", c.GetByte(0), c.GetByte(1))
	}
	if c.LineAt(0) != 4 || c.LineAt(1) != 4 {
		t.Errorf("lines = [%d %d], want [4 4]", c.LineAt(0), c.LineAt(1))
	}
}

func TestChunkOutOfRangePanics(t *testing.T) {
	c := NewChunk("oob")
	c.Write(byte(OpReturn), 1)
	c.AddConstant(1)

	tests := []struct {
		name string
		fn   func()
	}{
		{"GetByte", func() { c.GetByte(1) }},
		{"GetConstant", func() { c.GetConstant(1) }},
		{"UpdateConstant", func() { c.UpdateConstant(5, 0) }},
		{"LineAt", func() { c.LineAt(-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s did not panic", tt.name)
				}
			}()
			tt.fn()
		})
	}
}

func TestChunkRelease(t *testing.T) {
	c := NewChunk("release")
	c.EmitConstant(1, 1)
	c.WriteOp(OpReturn, 1)

	c.Release()

	if c.Len() != 0 || c.ConstantCount() != 0 || c.Lines().Len() != 0 {
		t.Errorf("after Release: Len=%d constants=%d lines=%d", c.Len(), c.ConstantCount(), c.Lines().Len())
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{3.14, "3.14"},
		{5, "5"},
		{-5, "-5"},
		{0.1, "0.1"},
		{1e21, "1000000000000000000000"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), "NaN"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.v); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestChunkEmitConstantOverflowPanics(t *testing.T) {
	c := NewChunk("full")
	for i := 0; i <= MaxConstantIndex; i++ {
		c.AddConstant(Value(i))
	}

	defer func() {
		if recover() == nil {
			t.Error("EmitConstant past the operand range did not panic")
		}
	}()
	c.EmitConstant(1, 1)
}
