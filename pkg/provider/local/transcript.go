package local

import (
	gocontext "context"
	"fmt"
	"sort"
	"strings"
)

// mergeGap is the largest silence, in seconds, bridged by a merge.
const mergeGap = 0.05

type segment struct {
	Start, End float64
	Text       string
}

// transcriptMerge joins transcript segments separated by less than
// mergeGap, keeping each cluster's start time.
func transcriptMerge(_ gocontext.Context, p *Pack) (any, error) {
	recs, err := p.ReadJSONL("audio/sample_transcript.jsonl")
	if err != nil {
		return nil, err
	}
	segs := make([]segment, 0, len(recs))
	for i, r := range recs {
		start, ok1 := number(r["start"])
		end, ok2 := number(r["end"])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("segment %d: start and end must be numbers", i)
		}
		text, _ := r["text"].(string)
		segs = append(segs, segment{Start: start, End: end, Text: text})
	}

	out := []any{}
	for _, c := range mergeSegments(segs) {
		out = append(out, map[string]any{
			"start": round(c.Start, 2),
			"end":   round(c.End, 2),
			"text":  c.Text,
		})
	}
	return out, nil
}

func mergeSegments(segs []segment) []segment {
	if len(segs) == 0 {
		return nil
	}
	sorted := append([]segment(nil), segs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	clusters := []segment{sorted[0]}
	for _, s := range sorted[1:] {
		cur := &clusters[len(clusters)-1]
		if s.Start <= cur.End+mergeGap {
			cur.End = max(cur.End, s.End)
			cur.Text = strings.TrimSpace(cur.Text + " " + s.Text)
			continue
		}
		clusters = append(clusters, s)
	}
	return clusters
}
