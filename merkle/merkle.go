// Package merkle builds the Merkle tree of one-time signing leaves that
// anchors a MAM channel window, and implements sibling-path extraction
// and root reconstruction for publishing and verifying messages.
package merkle

import (
	"fmt"

	"github.com/iotaledger/mam.go/curl"
	"github.com/iotaledger/mam.go/signing"
	"github.com/iotaledger/mam.go/trinary"
)

// Node is one node of a Merkle tree: either a leaf (key != nil, left
// and right nil) or an internal node built by pairing two children.
type Node struct {
	Address trinary.Trits
	Key     trinary.Trits
	Size    int
	Left    *Node
	Right   *Node
}

func (n *Node) isLeaf() bool {
	return n.Left == nil && n.Right == nil
}

// Tree is a Merkle tree of one-time signing leaves over a contiguous
// range of subseed indices.
type Tree struct {
	Root *Node
}

// Build constructs a tree of count leaves at subseed indices
// [start, start+count), at the given security level.
func Build(seed trinary.Trits, start int64, count int, security int) (*Tree, error) {
	if count <= 0 {
		return nil, fmt.Errorf("merkle: count must be positive, got %d", count)
	}
	level := make([]*Node, count)
	for i := 0; i < count; i++ {
		subseed, err := signing.Subseed(seed, start+int64(i))
		if err != nil {
			return nil, err
		}
		digest, err := signing.Digest(subseed, security)
		if err != nil {
			return nil, err
		}
		addr, err := signing.Address(digest)
		if err != nil {
			return nil, err
		}
		key, err := signing.PrivateKey(subseed, security)
		if err != nil {
			return nil, err
		}
		level[i] = &Node{Address: addr, Key: key, Size: 1}
	}

	s := curl.New(curl.DefaultRounds)
	for len(level) > 1 {
		next := make([]*Node, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 >= len(level) {
				next = append(next, level[i])
				continue
			}
			left, right := level[i], level[i+1]
			s.Reset()
			if err := s.Absorb(left.Address); err != nil {
				return nil, err
			}
			if err := s.Absorb(right.Address); err != nil {
				return nil, err
			}
			parent := &Node{
				Address: s.Squeeze(curl.HashLen),
				Size:    left.Size + right.Size,
				Left:    left,
				Right:   right,
			}
			next = append(next, parent)
		}
		level = next
	}
	return &Tree{Root: level[0]}, nil
}

// RootAddress returns the tree's root address.
func (t *Tree) RootAddress() trinary.Trits {
	return t.Root.Address
}

// Subtree is the result of getSubtree: the one-time private key at a
// leaf, and the sibling addresses along its authentication path, leaf
// first.
type Subtree struct {
	Key    trinary.Trits
	Leaves []trinary.Trits
}

// GetSubtree extracts the authentication path and private key for the
// leaf at index.
func (t *Tree) GetSubtree(index int) (*Subtree, error) {
	node := t.Root
	var path []trinary.Trits
	for !node.isLeaf() {
		s := node.Left.Size
		if index < s {
			if node.Right != nil {
				path = append(path, node.Right.Address)
			} else {
				path = append(path, node.Left.Address)
			}
			node = node.Left
		} else {
			path = append(path, node.Left.Address)
			index -= s
			node = node.Right
		}
	}
	if index != 0 {
		return nil, fmt.Errorf("merkle: index out of range for leaf")
	}

	reversed := make([]trinary.Trits, len(path))
	for i, e := range path {
		reversed[len(path)-1-i] = e
	}
	return &Subtree{Key: node.Key, Leaves: reversed}, nil
}

// RootFromSiblings reconstructs a Merkle root from a leaf's post-absorb
// rate, its authentication path siblings (leaf-to-root order), and the
// leaf index within the tree.
func RootFromSiblings(rate trinary.Trits, siblings []trinary.Trits, index int) (trinary.Trits, error) {
	current := append(trinary.Trits{}, rate...)
	s := curl.New(curl.DefaultRounds)
	i := 1
	for _, sibling := range siblings {
		s.Reset()
		if i&index == 0 {
			if err := s.Absorb(current); err != nil {
				return nil, err
			}
			if err := s.Absorb(sibling); err != nil {
				return nil, err
			}
		} else {
			if err := s.Absorb(sibling); err != nil {
				return nil, err
			}
			if err := s.Absorb(current); err != nil {
				return nil, err
			}
		}
		current = s.Rate(curl.HashLen)
		i <<= 1
	}
	return current, nil
}
