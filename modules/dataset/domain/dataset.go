// Package domain holds the external dataset model: profiles of timed
// segments attached to a plan, and the gateway that uploads them.
package domain

import (
	"context"
	"encoding/json"

	"github.com/go-faster/jx"
)

type ProfileType string

const (
	ProfileDiscrete ProfileType = "discrete"
	ProfileReal     ProfileType = "real"
)

// ProfileSegment lasts Duration microseconds after the previous segment (or
// the dataset start). A nil Dynamics is a gap.
type ProfileSegment struct {
	Duration int64           `json:"duration"`
	Dynamics json.RawMessage `json:"dynamics,omitempty"`
}

// Profile is one named time series. Schema is the value schema the dynamics
// conform to, kept verbatim.
type Profile struct {
	Name     string
	Type     ProfileType
	Schema   json.RawMessage
	Segments []ProfileSegment
}

// ProfileSet is encoded as a JSON object keyed by profile name. Profiles
// keep the order they were read in.
type ProfileSet []Profile

// Shell returns the profiles with the same type and schema but no segments.
func (ps ProfileSet) Shell() ProfileSet {
	out := make(ProfileSet, 0, len(ps))
	for _, p := range ps {
		out = append(out, Profile{Name: p.Name, Type: p.Type, Schema: p.Schema, Segments: []ProfileSegment{}})
	}
	return out
}

// SegmentCount is the total number of segments across profiles.
func (ps ProfileSet) SegmentCount() int {
	n := 0
	for _, p := range ps {
		n += len(p.Segments)
	}
	return n
}

func (ps ProfileSet) Encode(e *jx.Encoder) {
	e.ObjStart()
	for _, p := range ps {
		e.FieldStart(p.Name)
		p.Header(e)
		for _, s := range p.Segments {
			s.Encode(e)
		}
		e.ArrEnd()
		e.ObjEnd()
	}
	e.ObjEnd()
}

func (ps ProfileSet) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	ps.Encode(&e)
	return e.Bytes(), nil
}

// Header writes the profile object up to and including the opening bracket
// of its segment list.
func (p Profile) Header(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("type")
	e.Str(string(p.Type))
	e.FieldStart("schema")
	if len(p.Schema) == 0 {
		e.Null()
	} else {
		e.Raw(p.Schema)
	}
	e.FieldStart("segments")
	e.ArrStart()
}

func (s ProfileSegment) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("duration")
	e.Int64(s.Duration)
	if len(s.Dynamics) > 0 {
		e.FieldStart("dynamics")
		e.Raw(s.Dynamics)
	}
	e.ObjEnd()
}

// DatasetUpload is a parsed dataset file. Start is in ordinal-day form.
type DatasetUpload struct {
	Start    string
	Profiles ProfileSet
}

type AddDataset struct {
	PlanID              int
	SimulationDatasetID *int
	DatasetStart        string
	Profiles            ProfileSet
}

// Gateway is the upstream dataset API. Every call forwards the caller
// identity carried by ctx.
type Gateway interface {
	AddExternalDataset(ctx context.Context, dataset AddDataset) (int, error)
	ExtendExternalDataset(ctx context.Context, datasetID int, profiles ProfileSet) (int, error)
	DeleteExternalDataset(ctx context.Context, datasetID int) error
}
