package flver

import (
	"errors"
	"testing"
)

func TestLayoutType_Size(t *testing.T) {
	tests := []struct {
		typ  LayoutType
		want int
	}{
		{TypeFloat2, 8},
		{TypeFloat3, 12},
		{TypeFloat4, 16},
		{TypeByte4A, 4},
		{TypeByte4B, 4},
		{TypeShort2ToFloat2, 4},
		{TypeByte4C, 4},
		{TypeUV, 4},
		{TypeUVPair, 8},
		{TypeShort4ToFloat4A, 8},
		{TypeShort4ToFloat4B, 8},
		{TypeByte4E, 4},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			got, err := tt.typ.Size()
			if err != nil {
				t.Fatalf("Size() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Size() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLayoutType_UnknownSize(t *testing.T) {
	for _, typ := range []LayoutType{0x00, 0x14, 0x2D, 0xF0} {
		if _, err := typ.Size(); !errors.Is(err, ErrUnknownType) {
			t.Errorf("Size(0x%X): expected ErrUnknownType, got %v", uint32(typ), err)
		}
	}
}

func TestLayoutNames(t *testing.T) {
	if got := TypeShort4ToFloat4B.String(); got != "Short4ToFloat4B" {
		t.Errorf("type name = %q", got)
	}
	if got := LayoutType(0x99).String(); got != "Unknown(0x99)" {
		t.Errorf("unknown type name = %q", got)
	}
	if got := SemanticVertexColor.String(); got != "VertexColor" {
		t.Errorf("semantic name = %q", got)
	}
	if got := LayoutSemantic(4).String(); got != "Unknown(4)" {
		t.Errorf("unknown semantic name = %q", got)
	}
}

func TestBufferLayout_Size(t *testing.T) {
	layout := &BufferLayout{Members: []BufferLayoutMember{
		{Type: TypeFloat3, Semantic: SemanticPosition},
		{Type: TypeByte4C, Semantic: SemanticNormal},
		{Type: TypeShort2ToFloat2, Semantic: SemanticUV},
		{Type: TypeUVPair, Semantic: SemanticUV, Index: 1},
	}}

	got, err := layout.Size()
	if err != nil {
		t.Fatalf("Size() failed: %v", err)
	}
	if got != 28 {
		t.Errorf("Size() = %d, want 28", got)
	}

	layout.Members = append(layout.Members, BufferLayoutMember{Type: 0x77})
	if _, err := layout.Size(); !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}
