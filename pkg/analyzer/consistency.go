package analyzer

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// KeyConsistency maps top-level keys to the fraction of sampled records that
// carry them.
type KeyConsistency = orderedmap.OrderedMap[string, float64]

// KeyScorer tracks which sampled records carry each top-level key.
// Presence is kept as one bitmap of record indices per key.
type KeyScorer struct {
	presence *orderedmap.OrderedMap[string, *roaring.Bitmap]
	next     uint32
}

// NewKeyScorer returns an empty scorer.
func NewKeyScorer() *KeyScorer {
	return &KeyScorer{presence: orderedmap.New[string, *roaring.Bitmap]()}
}

// Observe registers the next sampled record. Non-object records take up an
// index but contribute no keys.
func (s *KeyScorer) Observe(record any) {
	idx := s.next
	s.next++

	obj, ok := asObject(record)
	if !ok {
		return
	}
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		bm, ok := s.presence.Get(pair.Key)
		if !ok {
			bm = roaring.New()
			s.presence.Set(pair.Key, bm)
		}
		bm.Add(idx)
	}
}

// Count returns how many observed records carry key.
func (s *KeyScorer) Count(key string) int {
	bm, ok := s.presence.Get(key)
	if !ok {
		return 0
	}
	return int(bm.GetCardinality())
}

// Missing returns the indices of observed records that lack key.
func (s *KeyScorer) Missing(key string) []uint32 {
	all := roaring.New()
	all.AddRange(0, uint64(s.next))
	if bm, ok := s.presence.Get(key); ok {
		all.AndNot(bm)
	}
	return all.ToArray()
}

// Keys returns the distinct top-level keys in first-seen order.
func (s *KeyScorer) Keys() []string {
	keys := make([]string, 0, s.presence.Len())
	for pair := s.presence.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Finalize returns count/sampleSize per key rounded to three decimals.
// A zero sample size scores every key 0.
func (s *KeyScorer) Finalize(sampleSize int) *KeyConsistency {
	out := orderedmap.New[string, float64]()
	for pair := s.presence.Oldest(); pair != nil; pair = pair.Next() {
		ratio := 0.0
		if sampleSize > 0 {
			ratio = round3(float64(pair.Value.GetCardinality()) / float64(sampleSize))
		}
		out.Set(pair.Key, ratio)
	}
	return out
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
