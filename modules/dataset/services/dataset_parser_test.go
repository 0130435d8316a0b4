package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NASA-AMMOS/aerie-gateway/modules/dataset/domain"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/fileparser"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/serrors"
)

func TestDatasetParser_CSV(t *testing.T) {
	t.Parallel()

	in := "time_utc,alpha,beta,mode\n" +
		"2024-01-01T00:00:00,1.5,true,idle\n" +
		"2024-01-01T00:01:00,,FALSE,\n" +
		"2024-01-01T00:03:00,3,true,busy\n"

	upload, err := NewDatasetParser(fileparser.CSVOptions{}).Parse("data.CSV", []byte(in))
	require.NoError(t, err)
	assert.Equal(t, "2024-001T00:00:00", upload.Start)
	require.Len(t, upload.Profiles, 3)

	alpha := upload.Profiles[0]
	assert.Equal(t, "alpha", alpha.Name)
	assert.Equal(t, domain.ProfileReal, alpha.Type)
	assert.JSONEq(t, `{"type":"real"}`, string(alpha.Schema))
	require.Len(t, alpha.Segments, 2)
	assert.Equal(t, int64(60_000_000), alpha.Segments[0].Duration)
	assert.JSONEq(t, `{"initial":1.5,"rate":0}`, string(alpha.Segments[0].Dynamics))
	assert.Nil(t, alpha.Segments[1].Dynamics, "empty cell is a gap")

	beta := upload.Profiles[1]
	assert.Equal(t, domain.ProfileDiscrete, beta.Type)
	assert.JSONEq(t, `{"type":"boolean"}`, string(beta.Schema))
	assert.Equal(t, "true", string(beta.Segments[0].Dynamics))
	assert.Equal(t, "false", string(beta.Segments[1].Dynamics))

	mode := upload.Profiles[2]
	assert.JSONEq(t, `{"type":"string"}`, string(mode.Schema))
	assert.Equal(t, `"idle"`, string(mode.Segments[0].Dynamics))
}

func TestDatasetParser_TXTUsesConfiguredDelimiter(t *testing.T) {
	t.Parallel()

	in := "Time;value\n2024-010T00:00:00;1\n2024-010T00:00:02;2\n"
	upload, err := NewDatasetParser(fileparser.CSVOptions{
		Delimiter:  ';',
		TimeColumn: "time",
		Match:      fileparser.MatchContains,
	}).Parse("data.txt", []byte(in))
	require.NoError(t, err)
	require.Len(t, upload.Profiles, 1)
	assert.Equal(t, int64(2_000_000), upload.Profiles[0].Segments[0].Duration)
}

func TestDatasetParser_JSONKeepsProfileOrder(t *testing.T) {
	t.Parallel()

	in := `{
	  "datasetStart": "2024-02-01T00:00:00",
	  "profileSet": {
	    "zeta": {"type": "discrete", "schema": {"type": "string"}, "segments": [
	      {"duration": 10, "dynamics": "a"},
	      {"duration": 20, "dynamics": null}
	    ]},
	    "alpha": {"type": "real", "schema": {"type": "real"}, "segments": []}
	  }
	}`
	upload, err := NewDatasetParser(fileparser.CSVOptions{}).Parse("set.json", []byte(in))
	require.NoError(t, err)
	assert.Equal(t, "2024-032T00:00:00", upload.Start)
	require.Len(t, upload.Profiles, 2)
	assert.Equal(t, "zeta", upload.Profiles[0].Name)
	assert.Equal(t, "alpha", upload.Profiles[1].Name)
	assert.Nil(t, upload.Profiles[0].Segments[1].Dynamics)
	assert.Equal(t, int64(20), upload.Profiles[0].Segments[1].Duration)
}

func TestDatasetParser_InputErrors(t *testing.T) {
	t.Parallel()

	parser := NewDatasetParser(fileparser.CSVOptions{})
	cases := map[string]struct {
		name string
		body string
		code string
	}{
		"extension":        {"data.xlsx", "time_utc,a\n", CodeUnsupportedFile},
		"no extension":     {"data", "time_utc,a\n", CodeUnsupportedFile},
		"no time column":   {"data.csv", "when,a\n2024-001T00:00:00,1\n", CodeDatasetParseFailed},
		"bad start":        {"set.json", `{"datasetStart":"soon","profileSet":{}}`, CodeDatasetParseFailed},
		"no profile set":   {"set.json", `{"datasetStart":"2024-001T00:00:00"}`, CodeDatasetParseFailed},
		"unknown type":     {"set.json", `{"datasetStart":"2024-001T00:00:00","profileSet":{"a":{"type":"x","segments":[]}}}`, CodeDatasetParseFailed},
		"negative segment": {"set.json", `{"datasetStart":"2024-001T00:00:00","profileSet":{"a":{"type":"real","segments":[{"duration":-1}]}}}`, CodeDatasetParseFailed},
		"not json":         {"set.json", "time_utc,a\n", CodeDatasetParseFailed},
	}
	for name, tc := range cases {
		_, err := parser.Parse(tc.name, []byte(tc.body))
		require.Error(t, err, name)
		assert.Equal(t, serrors.KindInput, serrors.KindOf(err), name)
		assert.Equal(t, tc.code, serrors.CodeOf(err), name)
	}
}
