package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeebo/xxh3"
	"golang.org/x/text/unicode/norm"
)

// Key returns the canonical encoding of row i restricted to cols.
//
// Each cell is written as a one-letter type tag, the byte length of its body
// and the body itself, so no choice of cell contents can make two different
// tuples collide. Strings are NFC normalized.
func Key(cols []*Column, row int) string {
	var buf strings.Builder
	for _, c := range cols {
		writeCell(&buf, c.Values[row])
	}
	return buf.String()
}

// Tuple returns the cells of row i restricted to cols.
func Tuple(cols []*Column, row int) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = c.Values[row]
	}
	return out
}

func writeCell(buf *strings.Builder, v any) {
	tag, body := encodeCell(v)
	buf.WriteByte(tag)
	buf.WriteString(strconv.Itoa(len(body)))
	buf.WriteByte(':')
	buf.WriteString(body)
}

func encodeCell(v any) (byte, string) {
	switch val := v.(type) {
	case nil:
		return 'n', ""
	case string:
		return 's', norm.NFC.String(val)
	case int64:
		return 'i', strconv.FormatInt(val, 10)
	case float64:
		return 'f', strconv.FormatFloat(val, 'g', -1, 64)
	case decimal.Decimal:
		return 'd', val.String()
	case bool:
		return 'b', strconv.FormatBool(val)
	case time.Time:
		return 't', val.UTC().Format(time.RFC3339Nano)
	default:
		return 'x', fmt.Sprintf("%v", val)
	}
}

// Group is a distinct tuple together with the number of times it was seen.
type Group struct {
	Key    string
	Values []any
	Count  int
	// First is the index of the first row that produced the tuple.
	First int
}

// Grouper counts tuples by canonical key in first-occurrence order.
// Keys are bucketed by their xxh3 hash; the full key is compared inside a
// bucket, so hash collisions never merge distinct tuples.
type Grouper struct {
	buckets map[uint64][]*Group
	groups  []*Group
}

// NewGrouper creates an empty grouper.
func NewGrouper() *Grouper {
	return &Grouper{buckets: make(map[uint64][]*Group)}
}

// GroupRows counts every row of cols.
func GroupRows(cols []*Column, rows int) *Grouper {
	g := NewGrouper()
	for i := 0; i < rows; i++ {
		g.Add(Key(cols, i), Tuple(cols, i), i)
	}
	return g
}

// Add records one occurrence of key. values and row are kept from the first
// occurrence only.
func (g *Grouper) Add(key string, values []any, row int) *Group {
	h := xxh3.HashString(key)
	for _, grp := range g.buckets[h] {
		if grp.Key == key {
			grp.Count++
			return grp
		}
	}
	grp := &Group{Key: key, Values: values, Count: 1, First: row}
	g.buckets[h] = append(g.buckets[h], grp)
	g.groups = append(g.groups, grp)
	return grp
}

// Count returns how many times key was added.
func (g *Grouper) Count(key string) int {
	for _, grp := range g.buckets[xxh3.HashString(key)] {
		if grp.Key == key {
			return grp.Count
		}
	}
	return 0
}

// Groups returns all groups in first-occurrence order.
func (g *Grouper) Groups() []*Group {
	out := make([]*Group, len(g.groups))
	copy(out, g.groups)
	return out
}

// Len returns the number of distinct keys.
func (g *Grouper) Len() int {
	return len(g.groups)
}
