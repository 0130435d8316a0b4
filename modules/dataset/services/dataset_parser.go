package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-faster/jx"

	"github.com/NASA-AMMOS/aerie-gateway/modules/dataset/domain"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/doytime"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/fileparser"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/serrors"
)

const (
	CodeUnsupportedFile    = "DATASET_UNSUPPORTED_FILE"
	CodeDatasetParseFailed = "DATASET_PARSE_FAILED"
)

var (
	realSchema    = json.RawMessage(`{"type":"real"}`)
	booleanSchema = json.RawMessage(`{"type":"boolean"}`)
	stringSchema  = json.RawMessage(`{"type":"string"}`)
)

// DatasetParser turns an uploaded .json, .csv or .txt file into profiles.
type DatasetParser struct {
	csv fileparser.CSVOptions
}

func NewDatasetParser(csv fileparser.CSVOptions) *DatasetParser {
	return &DatasetParser{csv: csv}
}

// Parse picks the format from the extension of name.
func (p *DatasetParser) Parse(name string, file []byte) (*domain.DatasetUpload, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return p.parseJSON(file)
	case ".csv", ".txt":
		return p.parseCSV(file)
	default:
		return nil, serrors.New(serrors.KindInput, CodeUnsupportedFile,
			fmt.Sprintf("unsupported dataset file %q: expected .json, .csv or .txt", name))
	}
}

type jsonDataset struct {
	DatasetStart string          `json:"datasetStart"`
	ProfileSet   json.RawMessage `json:"profileSet"`
}

type jsonProfile struct {
	Type     domain.ProfileType      `json:"type"`
	Schema   json.RawMessage         `json:"schema"`
	Segments []domain.ProfileSegment `json:"segments"`
}

func (p *DatasetParser) parseJSON(file []byte) (*domain.DatasetUpload, error) {
	var doc jsonDataset
	if _, err := fileparser.DecodeJSON(file, &doc); err != nil {
		return nil, serrors.Input(CodeDatasetParseFailed, err, "cannot parse dataset file")
	}
	start, ok := doytime.ToDOY(doc.DatasetStart, p.csv.Precision)
	if !ok {
		return nil, serrors.New(serrors.KindInput, CodeDatasetParseFailed,
			fmt.Sprintf("invalid datasetStart %q", doc.DatasetStart))
	}
	if len(doc.ProfileSet) == 0 {
		return nil, serrors.New(serrors.KindInput, CodeDatasetParseFailed, "dataset file has no profileSet")
	}
	members, err := fileparser.ObjectMembers(doc.ProfileSet)
	if err != nil {
		return nil, serrors.Input(CodeDatasetParseFailed, err, "invalid profileSet")
	}

	profiles := make(domain.ProfileSet, 0, len(members))
	for _, m := range members {
		var jp jsonProfile
		if err := json.Unmarshal(m.Value, &jp); err != nil {
			return nil, serrors.Input(CodeDatasetParseFailed, err, fmt.Sprintf("invalid profile %q", m.Key))
		}
		if jp.Type != domain.ProfileDiscrete && jp.Type != domain.ProfileReal {
			return nil, serrors.New(serrors.KindInput, CodeDatasetParseFailed,
				fmt.Sprintf("profile %q has unknown type %q", m.Key, jp.Type))
		}
		for i := range jp.Segments {
			if jp.Segments[i].Duration < 0 {
				return nil, serrors.New(serrors.KindInput, CodeDatasetParseFailed,
					fmt.Sprintf("profile %q segment %d has a negative duration", m.Key, i))
			}
			if string(jp.Segments[i].Dynamics) == "null" {
				jp.Segments[i].Dynamics = nil
			}
		}
		if jp.Segments == nil {
			jp.Segments = []domain.ProfileSegment{}
		}
		profiles = append(profiles, domain.Profile{
			Name:     m.Key,
			Type:     jp.Type,
			Schema:   jp.Schema,
			Segments: jp.Segments,
		})
	}
	return &domain.DatasetUpload{Start: start, Profiles: profiles}, nil
}

func (p *DatasetParser) parseCSV(file []byte) (*domain.DatasetUpload, error) {
	series, err := fileparser.ParseCSV(bytes.NewReader(file), p.csv)
	if err != nil {
		return nil, serrors.Input(CodeDatasetParseFailed, err, "cannot parse dataset file")
	}
	profiles := make(domain.ProfileSet, 0, len(series.Columns))
	for _, col := range series.Columns {
		profiles = append(profiles, columnProfile(col))
	}
	return &domain.DatasetUpload{Start: series.Start, Profiles: profiles}, nil
}

type valueKind int

const (
	kindReal valueKind = iota
	kindBoolean
	kindString
)

// columnKind types a column from its non-empty cells: all numeric is real,
// all true/false is boolean, anything else is a string. A column without
// values is a string.
func columnKind(samples []fileparser.Sample) valueKind {
	numeric, boolean, seen := true, true, false
	for _, s := range samples {
		if s.Value == nil {
			continue
		}
		seen = true
		if _, ok := parseReal(*s.Value); !ok {
			numeric = false
		}
		if !isBoolWord(*s.Value) {
			boolean = false
		}
	}
	switch {
	case !seen:
		return kindString
	case numeric:
		return kindReal
	case boolean:
		return kindBoolean
	default:
		return kindString
	}
}

func isBoolWord(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
}

func parseReal(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func columnProfile(col fileparser.Column) domain.Profile {
	kind := columnKind(col.Samples)
	profile := domain.Profile{
		Name:     col.Name,
		Type:     domain.ProfileDiscrete,
		Schema:   stringSchema,
		Segments: make([]domain.ProfileSegment, 0, len(col.Samples)),
	}
	switch kind {
	case kindReal:
		profile.Type = domain.ProfileReal
		profile.Schema = realSchema
	case kindBoolean:
		profile.Schema = booleanSchema
	}

	for _, s := range col.Samples {
		seg := domain.ProfileSegment{Duration: s.DurationMicros}
		if s.Value != nil {
			seg.Dynamics = dynamics(kind, *s.Value)
		}
		profile.Segments = append(profile.Segments, seg)
	}
	return profile
}

func dynamics(kind valueKind, value string) json.RawMessage {
	var e jx.Encoder
	switch kind {
	case kindReal:
		v, _ := parseReal(value)
		e.ObjStart()
		e.FieldStart("initial")
		e.Float64(v)
		e.FieldStart("rate")
		e.Int(0)
		e.ObjEnd()
	case kindBoolean:
		e.Bool(strings.EqualFold(value, "true"))
	default:
		e.Str(value)
	}
	return json.RawMessage(e.Bytes())
}
