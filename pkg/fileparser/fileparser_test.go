package fileparser

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON_Object(t *testing.T) {
	t.Parallel()

	var out struct {
		Name       string `json:"name"`
		Activities []struct {
			ID int `json:"id"`
		} `json:"activities"`
	}
	complete, err := DecodeJSON([]byte(`{"name":"p","activities":[{"id":1},{"id":2}]}`), &out)
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, "p", out.Name)
	require.Len(t, out.Activities, 2)
	assert.Equal(t, 2, out.Activities[1].ID)
}

func TestDecodeJSON_KeepsMembersBeforeMalformedTail(t *testing.T) {
	t.Parallel()

	var out map[string]any
	complete, err := DecodeJSON([]byte(`{"a":1,"b":[true],"c":{"broken": }`), &out)
	require.NoError(t, err)
	assert.False(t, complete)
	assert.Equal(t, map[string]any{"a": float64(1), "b": []any{true}}, out)
}

func TestDecodeJSON_Array(t *testing.T) {
	t.Parallel()

	var out []int
	complete, err := DecodeJSON([]byte("\xEF\xBB\xBF  [1, 2, 3]"), &out)
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, []int{1, 2, 3}, out)
}

func TestDecodeJSON_NoValue(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   ", "42", `"text"`, "name,value"} {
		_, err := DecodeJSON([]byte(in), &map[string]any{})
		assert.ErrorIs(t, err, ErrNoJSONValue, in)
	}
}

func TestReadDocument_Kind(t *testing.T) {
	t.Parallel()

	doc, err := ReadDocument([]byte(`{"x":1}`))
	require.NoError(t, err)
	assert.Equal(t, jx.Object, doc.Kind)
	assert.JSONEq(t, `{"x":1}`, string(doc.Bytes()))
}

func TestObjectMembers_PreservesOrder(t *testing.T) {
	t.Parallel()

	members, err := ObjectMembers([]byte(`{"zeta":1,"alpha":2,"mid":3}`))
	require.NoError(t, err)
	keys := make([]string, 0, len(members))
	for _, m := range members {
		keys = append(keys, m.Key)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)

	_, err = ObjectMembers([]byte(`[1]`))
	assert.ErrorIs(t, err, ErrNotAnObject)
}

func TestParseCSV(t *testing.T) {
	t.Parallel()

	in := "time_utc,alpha,beta\n" +
		"2024-01-01T00:00:00,1.5,on\n" +
		"2024-01-01T00:01:00,,off\n" +
		"2024-01-01T00:03:00,3,on\n"

	series, err := ParseCSV(strings.NewReader(in), CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, "2024-001T00:00:00", series.Start)
	require.Len(t, series.Columns, 2)

	alpha := series.Columns[0]
	assert.Equal(t, "alpha", alpha.Name)
	require.Len(t, alpha.Samples, 2)
	assert.Equal(t, int64(60_000_000), alpha.Samples[0].DurationMicros)
	require.NotNil(t, alpha.Samples[0].Value)
	assert.Equal(t, "1.5", *alpha.Samples[0].Value)
	assert.Nil(t, alpha.Samples[1].Value, "empty cell omits the value")
	assert.Equal(t, int64(120_000_000), alpha.Samples[1].DurationMicros)

	beta := series.Columns[1]
	assert.Equal(t, "beta", beta.Name)
	require.Len(t, beta.Samples, 2)
	assert.Equal(t, "off", *beta.Samples[1].Value)
}

func TestParseCSV_TimeColumnAnywhere(t *testing.T) {
	t.Parallel()

	in := "value;Sample Time UTC\n" +
		"7;2024-010T00:00:00\n" +
		"8;2024-010T00:00:01.5\n"

	series, err := ParseCSV(strings.NewReader(in), CSVOptions{
		Delimiter:  ';',
		TimeColumn: "time",
		Match:      MatchContains,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-010T00:00:00", series.Start)
	require.Len(t, series.Columns, 1)
	assert.Equal(t, int64(1_500_000), series.Columns[0].Samples[0].DurationMicros)
}

func TestParseCSV_Errors(t *testing.T) {
	t.Parallel()

	_, err := ParseCSV(strings.NewReader("when,alpha\n2024-001T00:00:00,1\n"), CSVOptions{})
	assert.True(t, errors.Is(err, ErrMissingTimeColumn))

	_, err = ParseCSV(strings.NewReader(""), CSVOptions{})
	assert.ErrorIs(t, err, ErrMissingHeader)

	_, err = ParseCSV(strings.NewReader("time_utc,alpha\n"), CSVOptions{})
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = ParseCSV(strings.NewReader("time_utc,alpha\nyesterday,1\n"), CSVOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid time")

	_, err = ParseCSV(strings.NewReader("time_utc,alpha\n2024-001T00:00:00,1,2\n"), CSVOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 cells")
}

func TestParseCSV_SingleRowHasNoSegments(t *testing.T) {
	t.Parallel()

	series, err := ParseCSV(strings.NewReader("time_utc,alpha\n2024-001T00:00:00,1\n"), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, series.Columns, 1)
	assert.Empty(t, series.Columns[0].Samples)
}
