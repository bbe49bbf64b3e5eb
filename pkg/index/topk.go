package index

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/edsrzf/mmap-go"
	"github.com/hbollon/go-edlib"
	"github.com/tchap/go-patricia/v2/patricia"
)

// The topk file, all integers big-endian uint32:
//
//	magic "ODTK" | version | words | prefixLen | k | prefixes
//	word offsets [words+1] | word bytes
//	prefix offsets [prefixes+1] | prefix bytes
//	list offsets [prefixes+1] | word ids
//
// Every prefix of up to prefixLen characters has its k best completions
// precomputed, ranked by length and then lexically.
const (
	topkMagic   = "ODTK"
	topkVersion = 1
	topkHeader  = 4 + 5*4

	// scanLimit bounds the words visited for a query without a stored list.
	scanLimit = 4096
)

var errCorruptTopK = errors.New("corrupt topk file")

func buildTopK(words []string, w io.Writer, opts Options) error {
	if opts.TopKPrefixLen <= 0 || opts.TopK <= 0 {
		return fmt.Errorf("topk: prefix length %d and k %d must be positive", opts.TopKPrefixLen, opts.TopK)
	}

	trie := patricia.NewTrie()
	seen := map[string]struct{}{}
	for i, word := range words {
		if word == "" {
			continue
		}
		trie.Insert(patricia.Prefix(word), i)
		runes := []rune(word)
		for l := 1; l <= min(opts.TopKPrefixLen, len(runes)); l++ {
			seen[string(runes[:l])] = struct{}{}
		}
	}
	prefixes := make([]string, 0, len(seen))
	for p := range seen {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	lists := make([][]uint32, len(prefixes))
	for i, p := range prefixes {
		var ids []int
		err := trie.VisitSubtree(patricia.Prefix(p), func(_ patricia.Prefix, item patricia.Item) error {
			ids = append(ids, item.(int))
			return nil
		})
		if err != nil {
			return err
		}
		lists[i] = topIDs(words, ids, opts.TopK)
	}

	bw := bufio.NewWriter(w)
	put := func(v uint32) {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		bw.Write(b[:])
	}
	putTable := func(items []string) {
		off := uint32(0)
		put(off)
		for _, s := range items {
			off += uint32(len(s))
			put(off)
		}
		for _, s := range items {
			bw.WriteString(s)
		}
	}

	bw.WriteString(topkMagic)
	for _, v := range []int{topkVersion, len(words), opts.TopKPrefixLen, opts.TopK, len(prefixes)} {
		put(uint32(v))
	}
	putTable(words)
	putTable(prefixes)
	off := uint32(0)
	put(off)
	for _, l := range lists {
		off += uint32(len(l))
		put(off)
	}
	for _, l := range lists {
		for _, id := range l {
			put(id)
		}
	}
	return bw.Flush()
}

// topIDs keeps the k best ids. Ids follow lexical order, so sorting by
// length and then id ranks by length and then lexically.
func topIDs(words []string, ids []int, k int) []uint32 {
	sort.Slice(ids, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(words[ids[i]]), utf8.RuneCountInString(words[ids[j]])
		if li != lj {
			return li < lj
		}
		return ids[i] < ids[j]
	})
	out := make([]uint32, 0, min(k, len(ids)))
	for _, id := range ids[:min(k, len(ids))] {
		out = append(out, uint32(id))
	}
	return out
}

// table is a view of an offsets array plus the bytes it indexes.
type table struct {
	offs []byte
	blob []byte
	n    int
}

func (t table) at(i int) []byte {
	a := binary.BigEndian.Uint32(t.offs[4*i:])
	b := binary.BigEndian.Uint32(t.offs[4*i+4:])
	return t.blob[a:b]
}

type topkIndex struct {
	data      mmap.MMap
	words     table
	prefixes  table
	lists     []byte
	ids       []byte
	prefixLen int
	k         int
}

func loadTopK(path string) (*topkIndex, error) {
	data, err := mapFile(path)
	if err != nil {
		return nil, unavailable(BackendTopK, path, err)
	}
	payload, err := verify(data)
	if err != nil {
		_ = data.Unmap()
		return nil, unavailable(BackendTopK, path, err)
	}
	x, err := parseTopK(payload)
	if err != nil {
		_ = data.Unmap()
		return nil, unavailable(BackendTopK, path, err)
	}
	// the whole mapping, footer included, is what Close must unmap
	x.data = data
	log.Debugf("loaded topk index %s with %d words", path, x.words.n)
	return x, nil
}

// reader walks the mapped file with bounds checks.
type reader struct {
	b   []byte
	pos int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > len(r.b)-r.pos {
		r.err = fmt.Errorf("%w: truncated at %d", errCorruptTopK, r.pos)
		return nil
	}
	out := r.b[r.pos : r.pos+n]
	r.pos += n
	return out
}

func (r *reader) u32() int {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return int(binary.BigEndian.Uint32(b))
}

// offsets reads n+1 offsets, checking they start at zero and never
// decrease, and returns them with the last one.
func (r *reader) offsets(n int) ([]byte, int) {
	offs := r.take(4 * (n + 1))
	if offs == nil {
		return nil, 0
	}
	prev := uint32(0)
	for i := 0; i <= n; i++ {
		v := binary.BigEndian.Uint32(offs[4*i:])
		if v < prev || (i == 0 && v != 0) {
			r.err = fmt.Errorf("%w: offsets out of order", errCorruptTopK)
			return nil, 0
		}
		prev = v
	}
	return offs, int(prev)
}

func (r *reader) table(n int) table {
	offs, size := r.offsets(n)
	return table{offs: offs, blob: r.take(size), n: n}
}

func parseTopK(data []byte) (*topkIndex, error) {
	r := &reader{b: data}
	if string(r.take(4)) != topkMagic {
		return nil, fmt.Errorf("%w: bad magic", errCorruptTopK)
	}
	if v := r.u32(); v != topkVersion {
		return nil, fmt.Errorf("%w: version %d", errCorruptTopK, v)
	}
	nWords, prefixLen, k, nPrefixes := r.u32(), r.u32(), r.u32(), r.u32()
	x := &topkIndex{data: data, prefixLen: prefixLen, k: k}
	x.words = r.table(nWords)
	x.prefixes = r.table(nPrefixes)

	lists, total := r.offsets(nPrefixes)
	x.lists = lists
	x.ids = r.take(4 * total)
	if r.err != nil {
		return nil, r.err
	}
	if r.pos != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", errCorruptTopK, len(data)-r.pos)
	}
	for i := 0; i < len(x.ids)/4; i++ {
		if int(binary.BigEndian.Uint32(x.ids[4*i:])) >= nWords {
			return nil, fmt.Errorf("%w: word id out of range", errCorruptTopK)
		}
	}
	return x, nil
}

func (x *topkIndex) Backend() Backend { return BackendTopK }

func (x *topkIndex) Count() int { return x.words.n }

func (x *topkIndex) Close() error { return x.data.Unmap() }

func (x *topkIndex) word(i int) string { return string(x.words.at(i)) }

// list returns the stored completion ids for prefix p.
func (x *topkIndex) list(p string) ([]int, bool) {
	i := sort.Search(x.prefixes.n, func(i int) bool { return string(x.prefixes.at(i)) >= p })
	if i == x.prefixes.n || string(x.prefixes.at(i)) != p {
		return nil, false
	}
	a := int(binary.BigEndian.Uint32(x.lists[4*i:]))
	b := int(binary.BigEndian.Uint32(x.lists[4*i+4:]))
	ids := make([]int, 0, b-a)
	for j := a; j < b; j++ {
		ids = append(ids, int(binary.BigEndian.Uint32(x.ids[4*j:])))
	}
	return ids, true
}

// scan ranks the words starting with p, visiting at most scanLimit of them.
func (x *topkIndex) scan(p string) []int {
	lo := sort.Search(x.words.n, func(i int) bool { return string(x.words.at(i)) >= p })
	var ids []int
	for i := lo; i < x.words.n && len(ids) < scanLimit; i++ {
		if !strings.HasPrefix(string(x.words.at(i)), p) {
			break
		}
		ids = append(ids, i)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return utf8.RuneCount(x.words.at(ids[i])) < utf8.RuneCount(x.words.at(ids[j]))
	})
	return ids
}

// Query returns the p.Num shortest completions of q, topped up with fuzzy
// completions when q has too few exact ones.
func (x *topkIndex) Query(q string, p Params) (_ []string, err error) {
	defer recoverCorrupt(BackendTopK, &err)
	start := time.Now()
	num := p.Num
	if num <= 0 {
		num = x.k
	}

	n := utf8.RuneCountInString(q)
	var ids []int
	if stored, ok := x.list(q); ok && n <= x.prefixLen && (len(stored) >= num || len(stored) < x.k) {
		ids = stored
	} else {
		ids = x.scan(q)
	}

	out := make([]string, 0, num)
	have := map[string]bool{}
	for _, id := range ids[:min(num, len(ids))] {
		w := x.word(id)
		out = append(out, w)
		have[w] = true
	}
	if len(out) < num {
		out = append(out, x.fuzzy(q, num-len(out), have)...)
	}
	log.Debugf("topk query %q: %d candidates in %v", q, len(out), time.Since(start))
	return out, nil
}

type fuzzyHit struct {
	word string
	dist int
}

// fuzzy completes q as if its tail were mistyped: it scans completions of
// ever shorter stems and ranks them by the edit distance between q and
// their leading characters.
func (x *topkIndex) fuzzy(q string, want int, have map[string]bool) []string {
	runes := []rune(q)
	maxDist := 1
	if len(runes) >= 5 {
		maxDist = 2
	}
	var hits []fuzzyHit
	for cut := 1; cut <= maxDist && len(runes)-cut >= 1 && len(hits) < want; cut++ {
		stem := string(runes[:len(runes)-cut])
		for _, id := range x.scan(stem) {
			w := x.word(id)
			if have[w] {
				continue
			}
			if d := prefixDistance(runes, w); d <= maxDist {
				hits = append(hits, fuzzyHit{word: w, dist: d})
				have[w] = true
			}
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	out := make([]string, 0, min(want, len(hits)))
	for _, h := range hits[:min(want, len(hits))] {
		out = append(out, h.word)
	}
	return out
}

// prefixDistance is the smallest distance between q and a leading part of w
// at most one character shorter or longer than q.
func prefixDistance(q []rune, w string) int {
	wr := []rune(w)
	best := len(q) + len(wr)
	for l := len(q) - 1; l <= len(q)+1; l++ {
		if l < 0 || l > len(wr) {
			continue
		}
		best = min(best, edlib.LevenshteinDistance(string(q), string(wr[:l])))
	}
	return best
}
