package services

import (
	"fmt"

	"github.com/go-faster/jx"

	"github.com/NASA-AMMOS/aerie-gateway/modules/dataset/domain"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/serrors"
)

const CodeSegmentTooLarge = "DATASET_SEGMENT_TOO_LARGE"

// Chunk is one extend payload. Size is its encoded byte length.
type Chunk struct {
	Profiles domain.ProfileSet
	Size     int
}

// profileCost is the encoded length of one profile entry without segments:
// `"name":{"type":..,"schema":..,"segments":[` plus the closing `]}`.
func profileCost(p domain.Profile) int {
	var e jx.Encoder
	e.FieldStart(p.Name)
	p.Header(&e)
	return len(e.Bytes()) + len("]}")
}

func segmentCost(s domain.ProfileSegment) int {
	var e jx.Encoder
	s.Encode(&e)
	return len(e.Bytes())
}

// chunkBuilder tracks the encoded size of a chunk as segments are added.
type chunkBuilder struct {
	slot map[int]int // profile index -> position in out
	out  domain.ProfileSet
	size int
}

func newChunkBuilder() *chunkBuilder {
	return &chunkBuilder{slot: make(map[int]int), size: len("{}")}
}

// costOf returns the chunk size after adding a segment of seg bytes to
// profile i.
func (b *chunkBuilder) costOf(i int, p domain.Profile, seg int) int {
	j, ok := b.slot[i]
	if !ok {
		size := b.size + profileCost(p) + seg
		if len(b.out) > 0 {
			size++ // comma between profiles
		}
		return size
	}
	size := b.size + seg
	if len(b.out[j].Segments) > 0 {
		size++ // comma between segments
	}
	return size
}

func (b *chunkBuilder) add(i int, p domain.Profile, s domain.ProfileSegment, size int) {
	j, ok := b.slot[i]
	if !ok {
		j = len(b.out)
		b.slot[i] = j
		b.out = append(b.out, domain.Profile{Name: p.Name, Type: p.Type, Schema: p.Schema})
	}
	b.out[j].Segments = append(b.out[j].Segments, s)
	b.size = size
}

// PackChunks splits the segments of profiles into extend payloads whose
// encoded size stays below budget. Profiles are visited round-robin in their
// set order and each profile's segments are taken strictly in order. A chunk
// is closed as soon as the next candidate segment would not fit. Segments
// are never split, so a segment that does not fit in an empty chunk is an
// input error. profiles is not modified.
func PackChunks(profiles domain.ProfileSet, budget int) ([]Chunk, error) {
	cursors := make([]int, len(profiles))
	remaining := profiles.SegmentCount()

	var chunks []Chunk
	for remaining > 0 {
		b := newChunkBuilder()
		full := false
		for !full {
			progressed := false
			for i, p := range profiles {
				if cursors[i] >= len(p.Segments) {
					continue
				}
				s := p.Segments[cursors[i]]
				size := b.costOf(i, p, segmentCost(s))
				if size >= budget {
					full = true
					break
				}
				b.add(i, p, s, size)
				cursors[i]++
				remaining--
				progressed = true
			}
			if !progressed {
				break
			}
		}
		if len(b.out) == 0 {
			i := nextPending(profiles, cursors)
			return nil, serrors.New(serrors.KindInput, CodeSegmentTooLarge,
				fmt.Sprintf("segment %d of profile %q does not fit in a %d byte request",
					cursors[i], profiles[i].Name, budget))
		}
		chunks = append(chunks, Chunk{Profiles: b.out, Size: b.size})
	}
	return chunks, nil
}

func nextPending(profiles domain.ProfileSet, cursors []int) int {
	for i, p := range profiles {
		if cursors[i] < len(p.Segments) {
			return i
		}
	}
	return 0
}
