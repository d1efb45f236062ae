package entropy

import (
	"container/heap"
	"math"
	"sort"
)

// Code is an assigned canonical code for one symbol.
type Code struct {
	Code uint32
	Len  uint8
}

// SymbolFreq is one entry of a sparse frequency histogram.
type SymbolFreq struct {
	Symbol uint32
	Freq   uint32
}

// LengthEntry is the serialized form of one table entry: the code itself is
// implied by the canonical construction over the (length, symbol) ordering.
type LengthEntry struct {
	Symbol uint32
	Len    uint8
}

type trieNode struct {
	left   int32
	right  int32
	symbol int64 // -1 while internal
}

// Table holds the canonical encode map and the decode trie.
type Table struct {
	enc   map[uint32]Code
	nodes []trieNode
}

// Lookup returns the code for a symbol, if present.
func (t *Table) Lookup(symbol uint32) (Code, bool) {
	c, ok := t.enc[symbol]
	return c, ok
}

// Entries returns the (symbol, length) pairs sorted by (length asc,
// symbol asc), the order the canonical rebuild expects.
func (t *Table) Entries() []LengthEntry {
	entries := make([]LengthEntry, 0, len(t.enc))
	for sym, c := range t.enc {
		entries = append(entries, LengthEntry{Symbol: sym, Len: c.Len})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Len != entries[j].Len {
			return entries[i].Len < entries[j].Len
		}
		return entries[i].Symbol < entries[j].Symbol
	})
	return entries
}

// BuildFrequencies deduplicates a symbol stream into a histogram sorted by
// symbol. Fails on an empty stream or a counter overflow.
func BuildFrequencies(symbols []uint32) ([]SymbolFreq, error) {
	if len(symbols) == 0 {
		return nil, ErrEmptySymbols
	}
	freqMap := make(map[uint32]uint32, len(symbols))
	for _, s := range symbols {
		if freqMap[s] == math.MaxUint32 {
			return nil, ErrFrequencyOverflow
		}
		freqMap[s]++
	}
	freqs := make([]SymbolFreq, 0, len(freqMap))
	for sym, f := range freqMap {
		freqs = append(freqs, SymbolFreq{Symbol: sym, Freq: f})
	}
	sort.Slice(freqs, func(i, j int) bool { return freqs[i].Symbol < freqs[j].Symbol })
	return freqs, nil
}

// heapNode is a leaf or merged subtree during length assignment. symbol is
// the smallest symbol in the subtree and breaks frequency ties.
type heapNode struct {
	freq   uint32
	symbol uint32
	left   int32 // index into the arena, -1 for leaves
	right  int32
}

type nodeHeap []heapNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].symbol < h[j].symbol
}
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(heapNode)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// BuildTable assigns canonical codes from a frequency histogram. Zero
// frequencies are ignored; at least one symbol must remain.
func BuildTable(freqs []SymbolFreq) (*Table, error) {
	pq := make(nodeHeap, 0, len(freqs))
	for _, sf := range freqs {
		if sf.Freq == 0 {
			continue
		}
		pq = append(pq, heapNode{freq: sf.Freq, symbol: sf.Symbol, left: -1, right: -1})
	}
	if len(pq) == 0 {
		return nil, ErrEmptySymbols
	}

	// Degenerate tree of one leaf: length 1, code 0, root->left->leaf.
	if len(pq) == 1 {
		sym := pq[0].symbol
		t := &Table{
			enc: map[uint32]Code{sym: {Code: 0, Len: 1}},
			nodes: []trieNode{
				{left: 1, right: -1, symbol: -1},
				{left: -1, right: -1, symbol: int64(sym)},
			},
		}
		return t, nil
	}

	heap.Init(&pq)

	// Merge the two smallest subtrees until one root remains. Merged
	// children move into the arena so lengths can be read off afterwards.
	arena := make([]heapNode, 0, 2*len(pq))
	for pq.Len() > 1 {
		a := heap.Pop(&pq).(heapNode)
		b := heap.Pop(&pq).(heapNode)
		parent := heapNode{
			freq:   a.freq + b.freq,
			symbol: min(a.symbol, b.symbol),
			left:   int32(len(arena)),
		}
		arena = append(arena, a)
		parent.right = int32(len(arena))
		arena = append(arena, b)
		heap.Push(&pq, parent)
	}
	root := pq[0]

	// Code lengths are leaf depths.
	lens, err := collectLengths(root, arena)
	if err != nil {
		return nil, err
	}
	return tableFromSorted(canonicalSort(lens))
}

func collectLengths(root heapNode, arena []heapNode) ([]LengthEntry, error) {
	type frame struct {
		idx   int32 // arena index, -1 for the root
		depth uint8
	}
	var lens []LengthEntry
	stack := []frame{{idx: -1, depth: 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cur := root
		if f.idx != -1 {
			cur = arena[f.idx]
		}
		if cur.left == -1 && cur.right == -1 {
			lens = append(lens, LengthEntry{Symbol: cur.symbol, Len: f.depth})
			continue
		}
		if f.depth >= 32 {
			return nil, ErrCodeTooLong
		}
		if cur.right != -1 {
			stack = append(stack, frame{idx: cur.right, depth: f.depth + 1})
		}
		if cur.left != -1 {
			stack = append(stack, frame{idx: cur.left, depth: f.depth + 1})
		}
	}
	return lens, nil
}

// TableFromLengths rebuilds the canonical table from serialized entries.
// Entries need not be pre-sorted; lengths outside [1, 32] are rejected.
func TableFromLengths(entries []LengthEntry) (*Table, error) {
	if len(entries) == 0 {
		return nil, ErrEmptySymbols
	}
	for _, e := range entries {
		if e.Len == 0 || e.Len > 32 {
			return nil, ErrInvalidCodeLength
		}
	}
	sorted := make([]LengthEntry, len(entries))
	copy(sorted, entries)
	return tableFromSorted(canonicalSort(sorted))
}

func canonicalSort(entries []LengthEntry) []LengthEntry {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Len != entries[j].Len {
			return entries[i].Len < entries[j].Len
		}
		return entries[i].Symbol < entries[j].Symbol
	})
	return entries
}

// tableFromSorted assigns canonical codes to entries already sorted by
// (length asc, symbol asc) and builds the decode trie.
func tableFromSorted(entries []LengthEntry) (*Table, error) {
	t := &Table{
		enc:   make(map[uint32]Code, len(entries)),
		nodes: []trieNode{{left: -1, right: -1, symbol: -1}},
	}

	code := uint32(0)
	prevLen := entries[0].Len
	for _, e := range entries {
		if e.Len != prevLen {
			code <<= e.Len - prevLen
			prevLen = e.Len
		}
		t.enc[e.Symbol] = Code{Code: code, Len: e.Len}
		if err := t.insert(e.Symbol, code, e.Len); err != nil {
			return nil, err
		}
		code++
	}
	return t, nil
}

func (t *Table) insert(symbol, code uint32, length uint8) error {
	node := int32(0)
	for i := int(length) - 1; i >= 0; i-- {
		bit := code >> uint(i) & 1
		var next int32
		if bit == 0 {
			next = t.nodes[node].left
		} else {
			next = t.nodes[node].right
		}
		if next == -1 {
			next = int32(len(t.nodes))
			t.nodes = append(t.nodes, trieNode{left: -1, right: -1, symbol: -1})
			if bit == 0 {
				t.nodes[node].left = next
			} else {
				t.nodes[node].right = next
			}
		}
		node = next
	}
	if t.nodes[node].symbol != -1 {
		return ErrDuplicateCode
	}
	t.nodes[node].symbol = int64(symbol)
	return nil
}

// EncodeSymbols builds the canonical table for a symbol stream and encodes
// the stream against it, MSB-first, zero-padded to a byte boundary.
func EncodeSymbols(symbols []uint32) (*Table, []byte, error) {
	if len(symbols) == 0 {
		return nil, nil, ErrEmptySymbols
	}
	freqs, err := BuildFrequencies(symbols)
	if err != nil {
		return nil, nil, err
	}
	t, err := BuildTable(freqs)
	if err != nil {
		return nil, nil, err
	}

	var bw BitWriter
	for _, s := range symbols {
		c, ok := t.enc[s]
		if !ok {
			return nil, nil, ErrSymbolNotInTable
		}
		if err := bw.WriteBits(c.Code, c.Len); err != nil {
			return nil, nil, err
		}
	}
	bw.Flush()
	return t, bw.Bytes(), nil
}

// DecodeSymbols walks the trie one bit at a time until count symbols have
// been produced.
func DecodeSymbols(bits []byte, t *Table, count int) ([]uint32, error) {
	br := NewBitReader(bits)
	out := make([]uint32, 0, count)
	for n := 0; n < count; n++ {
		node := int32(0)
		for {
			nd := t.nodes[node]
			if nd.symbol != -1 {
				out = append(out, uint32(nd.symbol))
				break
			}
			bit, err := br.ReadBit()
			if err != nil {
				return nil, err
			}
			if bit == 0 {
				node = nd.left
			} else {
				node = nd.right
			}
			if node == -1 {
				return nil, ErrNullChild
			}
		}
	}
	return out, nil
}
