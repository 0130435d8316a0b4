package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NASA-AMMOS/aerie-gateway/modules"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/configuration"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/hasura"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/serrors"
)

type scriptedExecutor struct {
	responses map[string]string
	ops       []string
	identity  hasura.Identity
	url       string
}

func (e *scriptedExecutor) Execute(ctx context.Context, op hasura.Operation, _ any, out any) error {
	e.ops = append(e.ops, op.Name)
	e.identity = hasura.IdentityFrom(ctx)
	data, ok := e.responses[op.Name]
	if !ok {
		return &hasura.ResponseError{Operation: op.Name, StatusCode: http.StatusBadRequest}
	}
	return json.Unmarshal([]byte(data), out)
}

func testConf() *configuration.Configuration {
	conf := &configuration.Configuration{}
	conf.GraphQL.URL = "http://hasura.test/v1/graphql"
	conf.Dataset.ChunkBudgetBytes = 1024
	conf.Dataset.CSVDelimiter = ","
	conf.Dataset.TimeColumn = "time_utc"
	conf.Dataset.TimeColumnMatch = "exact"
	conf.Dataset.TimePrecision = 6
	return conf
}

func run(t *testing.T, exec *scriptedExecutor, args ...string) (string, error) {
	t.Helper()
	opts := &rootOptions{
		conf: testConf(),
		newExecutor: func(_ *configuration.Configuration, url string) modules.Executor {
			exec.url = url
			return exec
		},
	}
	cmd := newRootCmd(opts)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportCmd(t *testing.T) {
	exec := &scriptedExecutor{responses: map[string]string{
		"CreatePlan":               `{"createPlan":{"id":42}}`,
		"UpdateSimulation":         `{"update_simulation":{"returning":[{"id":1}]}}`,
		"CreateActivityDirectives": `{"insert_activity_directive":{"returning":[{"id":10,"type":"A"}]}}`,
	}}
	file := writeTemp(t, "plan.json", `{"activities":[{"id":1,"type":"A"}]}`)

	out, err := run(t, exec, "import",
		"--file", file, "--name", "p", "--model-id", "1",
		"--start-time", "2024-001T00:00:00", "--duration", "24:00:00",
		"--token", "Bearer abc", "--role", "viewer", "--gql-url", "http://other/graphql")
	require.NoError(t, err)

	var plan struct {
		ID int `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, 42, plan.ID)
	assert.Equal(t, "http://other/graphql", exec.url)
	assert.Equal(t, hasura.Identity{Authorization: "Bearer abc", Role: "viewer"}, exec.identity)
	assert.Equal(t, []string{"CreatePlan", "UpdateSimulation", "CreateActivityDirectives"}, exec.ops)
}

func TestImportCmd_UsageErrors(t *testing.T) {
	file := writeTemp(t, "plan.json", `{"activities":[]}`)
	base := []string{"import", "--file", file, "--name", "p", "--start-time", "t", "--duration", "d"}

	_, err := run(t, &scriptedExecutor{}, append(base, "--model-id", "0")...)
	assert.Equal(t, exitUsage, exitCode(err))

	_, err = run(t, &scriptedExecutor{}, append(base, "--model-id", "1", "--tags", "nope")...)
	assert.Equal(t, exitUsage, exitCode(err))

	_, err = run(t, &scriptedExecutor{}, "import", "--file", filepath.Join(t.TempDir(), "missing.json"),
		"--name", "p", "--model-id", "1", "--start-time", "t", "--duration", "d")
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestImportCmd_ParseFailureIsInputError(t *testing.T) {
	exec := &scriptedExecutor{}
	file := writeTemp(t, "plan.json", `not json`)

	_, err := run(t, exec, "import", "--file", file, "--name", "p", "--model-id", "1",
		"--start-time", "t", "--duration", "d")
	require.Error(t, err)
	assert.Equal(t, exitInput, exitCode(err))
	assert.Empty(t, exec.ops)
}

func TestUploadDatasetCmd(t *testing.T) {
	exec := &scriptedExecutor{responses: map[string]string{
		"AddExternalDataset":    `{"addExternalDataset":{"datasetId":9}}`,
		"ExtendExternalDataset": `{"extendExternalDataset":{"datasetId":9}}`,
	}}
	file := writeTemp(t, "power.csv", "time_utc,watts\n2024-001T00:00:00,5\n2024-001T00:00:10,6\n")

	out, err := run(t, exec, "upload-dataset", "--file", file, "--plan-id", "4")
	require.NoError(t, err)
	assert.JSONEq(t, `{"datasetId":9}`, out)
	assert.Equal(t, "http://hasura.test/v1/graphql", exec.url)
	assert.Equal(t, []string{"AddExternalDataset", "ExtendExternalDataset"}, exec.ops)
}

func TestUploadDatasetCmd_ExtendFailure(t *testing.T) {
	exec := &scriptedExecutor{responses: map[string]string{
		"AddExternalDataset":    `{"addExternalDataset":{"datasetId":9}}`,
		"DeleteExternalDataset": `{"deleteExternalDataset":{"affected_rows":1}}`,
	}}
	file := writeTemp(t, "power.csv", "time_utc,watts\n2024-001T00:00:00,5\n2024-001T00:00:10,6\n")

	_, err := run(t, exec, "upload-dataset", "--file", file, "--plan-id", "4")
	require.Error(t, err)
	assert.Equal(t, exitUpstream, exitCode(err))
	assert.Equal(t, "DeleteExternalDataset", exec.ops[len(exec.ops)-1])
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{errors.New("boom"), exitInternal},
		{withCode(exitUsage, errors.New("bad flag")), exitUsage},
		{errors.Wrap(serrors.New(serrors.KindInput, "X", "bad file"), "import"), exitInput},
		{serrors.New(serrors.KindUpstream, "X", "rejected"), exitUpstream},
		{serrors.New(serrors.KindCountMismatch, "X", "short"), exitCountMismatch},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, exitCode(tc.err), "%v", tc.err)
	}
}
