package composables

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/NASA-AMMOS/aerie-gateway/pkg/constants"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/shared"
)

// TryUseLogger returns the request logger stored by the logging middleware.
// Outside HTTP requests (the CLI, tests) it falls back to the standard
// logrus logger.
func TryUseLogger(ctx context.Context) *logrus.Entry {
	if logger, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry); ok {
		return logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

func UseQuery[T comparable](v T, r *http.Request) (T, error) {
	return v, shared.Decoder.Decode(v, r.URL.Query())
}

// UseForm decodes url-encoded or multipart fields into v. Multipart bodies
// must already be parsed with ParseMultipartForm.
func UseForm[T comparable](v T, r *http.Request) (T, error) {
	if r.MultipartForm == nil {
		if err := r.ParseForm(); err != nil {
			return v, err
		}
	}
	return v, shared.Decoder.Decode(v, r.Form)
}
