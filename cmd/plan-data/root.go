package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/NASA-AMMOS/aerie-gateway/modules"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/composables"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/configuration"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/hasura"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/logging"
)

type rootOptions struct {
	gqlURL   string
	token    string
	role     string
	userID   string
	logLevel string

	conf        *configuration.Configuration
	newExecutor func(conf *configuration.Configuration, url string) modules.Executor
}

func defaultExecutor(conf *configuration.Configuration, url string) modules.Executor {
	return hasura.NewClient(hasura.ClientOptions{Endpoint: url, Timeout: conf.GraphQL.Timeout})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "plan-data",
		Short:         "Import plans and upload external datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.conf != nil {
				return nil
			}
			conf, err := configuration.Load(".env", ".env.local")
			if err != nil {
				return withCode(exitUsage, errors.Wrap(err, "load configuration"))
			}
			opts.conf = conf
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.gqlURL, "gql-url", "", "GraphQL endpoint (default: GQL_API_URL)")
	cmd.PersistentFlags().StringVar(&opts.token, "token", "", "Authorization header value forwarded upstream")
	cmd.PersistentFlags().StringVar(&opts.role, "role", "", "x-hasura-role forwarded upstream")
	cmd.PersistentFlags().StringVar(&opts.userID, "user-id", "", "x-hasura-user-id forwarded upstream")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	cmd.AddCommand(newImportCmd(opts))
	cmd.AddCommand(newUploadDatasetCmd(opts))
	return cmd
}

// commandContext returns ctx carrying the forwarded identity and a stderr logger.
func (o *rootOptions) commandContext(ctx context.Context, stderr io.Writer) context.Context {
	level, err := logrus.ParseLevel(o.logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger := logging.ConsoleLogger(level)
	logger.SetOutput(stderr)
	ctx = composables.WithLogger(ctx, logrus.NewEntry(logger))
	return hasura.WithIdentity(ctx, hasura.Identity{
		Authorization: o.token,
		Role:          o.role,
		UserID:        o.userID,
	})
}

func (o *rootOptions) executor() modules.Executor {
	url := o.gqlURL
	if url == "" {
		url = o.conf.GraphQL.URL
	}
	newExecutor := o.newExecutor
	if newExecutor == nil {
		newExecutor = defaultExecutor
	}
	return newExecutor(o.conf, url)
}

func readFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, withCode(exitUsage, errors.Wrapf(err, "read %s", path))
	}
	return b, nil
}

func writeJSONLine(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return withCode(exitInternal, errors.Wrap(err, "json encode"))
	}
	return nil
}

func Execute() {
	opts := &rootOptions{}
	err := newRootCmd(opts).Execute()
	if opts.conf != nil {
		opts.conf.Unload()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitCode(err))
	}
}
