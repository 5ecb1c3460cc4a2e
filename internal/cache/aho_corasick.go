// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package cache

import (
	"strings"
)

// Keywords is an immutable Aho-Corasick automaton over a word list. It finds
// any listed word inside a message body in a single pass regardless of how
// many words are blacklisted. Matching is case-insensitive.
//
//	kw := NewKeywords([]string{"spam", "scam"})
//	word, found := kw.Find("this is a SCAM") // "scam", true
type Keywords struct {
	root  *kwNode
	words []string
}

type kwNode struct {
	children map[rune]*kwNode
	fail     *kwNode
	// word is the index+1 of the longest word ending here, 0 for none.
	word int
	// out points to the nearest suffix node that ends a word.
	out *kwNode
}

func newKWNode() *kwNode {
	return &kwNode{children: make(map[rune]*kwNode)}
}

// NewKeywords builds the automaton. Blank entries are ignored and words are
// lowercased and trimmed.
func NewKeywords(words []string) *Keywords {
	kw := &Keywords{root: newKWNode()}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		kw.words = append(kw.words, w)
		kw.insert(len(kw.words), w)
	}
	kw.link()
	return kw
}

func (kw *Keywords) insert(index int, word string) {
	node := kw.root
	for _, r := range word {
		next, ok := node.children[r]
		if !ok {
			next = newKWNode()
			node.children[r] = next
		}
		node = next
	}
	node.word = index
}

// link computes failure and output links breadth first.
func (kw *Keywords) link() {
	queue := make([]*kwNode, 0, len(kw.root.children))
	for _, child := range kw.root.children {
		child.fail = kw.root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		for r, child := range node.children {
			f := node.fail
			for f != nil && f.children[r] == nil {
				f = f.fail
			}
			if f == nil {
				child.fail = kw.root
			} else {
				child.fail = f.children[r]
			}
			if child.fail.word > 0 {
				child.out = child.fail
			} else {
				child.out = child.fail.out
			}
			queue = append(queue, child)
		}
	}
}

// Find returns the first listed word occurring in text.
func (kw *Keywords) Find(text string) (string, bool) {
	if kw == nil || len(kw.words) == 0 {
		return "", false
	}
	node := kw.root
	for _, r := range strings.ToLower(text) {
		for node != kw.root && node.children[r] == nil {
			node = node.fail
		}
		if next, ok := node.children[r]; ok {
			node = next
		}
		if node.word > 0 {
			return kw.words[node.word-1], true
		}
		if node.out != nil {
			return kw.words[node.out.word-1], true
		}
	}
	return "", false
}

// Contains reports whether any listed word occurs in text.
func (kw *Keywords) Contains(text string) bool {
	_, ok := kw.Find(text)
	return ok
}

// Words returns the normalised word list.
func (kw *Keywords) Words() []string {
	if kw == nil {
		return nil
	}
	out := make([]string, len(kw.words))
	copy(out, kw.words)
	return out
}

// Len returns the number of distinct words.
func (kw *Keywords) Len() int {
	if kw == nil {
		return 0
	}
	return len(kw.words)
}
