package block

import (
	"testing"

	"github.com/accountchain/node/pkg/crypto"
	"github.com/accountchain/node/pkg/types"
)

func TestBuildMerkle_Empty(t *testing.T) {
	root := BuildMerkle(nil)
	if root != EmptyMerkleRoot {
		t.Errorf("empty input should return EmptyMerkleRoot, got %s", root)
	}

	root2 := BuildMerkle([]types.Hash{})
	if root2 != EmptyMerkleRoot {
		t.Errorf("empty slice should return EmptyMerkleRoot, got %s", root2)
	}
}

func TestBuildMerkle_SingleHash(t *testing.T) {
	h := crypto.Hash([]byte("single tx"))
	root := BuildMerkle([]types.Hash{h})
	if root != h {
		t.Errorf("single hash should return itself: got %s, want %s", root, h)
	}
}

func TestBuildMerkle_TwoHashes(t *testing.T) {
	h1 := crypto.Hash([]byte("tx1"))
	h2 := crypto.Hash([]byte("tx2"))

	root := BuildMerkle([]types.Hash{h1, h2})
	want := crypto.HashConcat(h1, h2)

	if root != want {
		t.Errorf("two hashes: got %s, want %s", root, want)
	}
}

func TestBuildMerkle_ThreeHashes(t *testing.T) {
	h1 := crypto.Hash([]byte("tx1"))
	h2 := crypto.Hash([]byte("tx2"))
	h3 := crypto.Hash([]byte("tx3"))

	root := BuildMerkle([]types.Hash{h1, h2, h3})

	// With 3 hashes: h3 is duplicated -> [h1, h2, h3, h3]
	// Level 1: [Hash(h1||h2), Hash(h3||h3)]
	// Level 2: Hash(Hash(h1||h2) || Hash(h3||h3))
	left := crypto.HashConcat(h1, h2)
	right := crypto.HashConcat(h3, h3)
	want := crypto.HashConcat(left, right)

	if root != want {
		t.Errorf("three hashes: got %s, want %s", root, want)
	}
}

func TestBuildMerkle_FourHashes(t *testing.T) {
	h1 := crypto.Hash([]byte("tx1"))
	h2 := crypto.Hash([]byte("tx2"))
	h3 := crypto.Hash([]byte("tx3"))
	h4 := crypto.Hash([]byte("tx4"))

	root := BuildMerkle([]types.Hash{h1, h2, h3, h4})

	left := crypto.HashConcat(h1, h2)
	right := crypto.HashConcat(h3, h4)
	want := crypto.HashConcat(left, right)

	if root != want {
		t.Errorf("four hashes: got %s, want %s", root, want)
	}
}

func TestBuildMerkle_Deterministic(t *testing.T) {
	hashes := make([]types.Hash, 5)
	for i := range hashes {
		hashes[i] = crypto.Hash([]byte{byte(i)})
	}

	r1 := BuildMerkle(hashes)
	r2 := BuildMerkle(hashes)
	if r1 != r2 {
		t.Error("merkle root is not deterministic")
	}
}

func TestBuildMerkle_OrderMatters(t *testing.T) {
	h1 := crypto.Hash([]byte("tx1"))
	h2 := crypto.Hash([]byte("tx2"))

	r1 := BuildMerkle([]types.Hash{h1, h2})
	r2 := BuildMerkle([]types.Hash{h2, h1})

	if r1 == r2 {
		t.Error("different ordering should produce different merkle root")
	}
}

func TestBuildMerkle_DoesNotMutateInput(t *testing.T) {
	h1 := crypto.Hash([]byte("tx1"))
	h2 := crypto.Hash([]byte("tx2"))
	h3 := crypto.Hash([]byte("tx3"))

	original := []types.Hash{h1, h2, h3}
	input := make([]types.Hash, len(original))
	copy(input, original)

	BuildMerkle(input)

	for i := range input {
		if input[i] != original[i] {
			t.Errorf("input[%d] was mutated: got %s, want %s", i, input[i], original[i])
		}
	}
}

func TestBuildMerkle_LargerTree(t *testing.T) {
	// 7 hashes exercises multi-level odd padding.
	hashes := make([]types.Hash, 7)
	for i := range hashes {
		hashes[i] = crypto.Hash([]byte{byte(i)})
	}

	root := BuildMerkle(hashes)

	if root == "" {
		t.Error("merkle root of 7 hashes should not be the empty sentinel")
	}

	root2 := BuildMerkle(hashes)
	if root != root2 {
		t.Error("merkle root of 7 hashes is not deterministic")
	}
}
