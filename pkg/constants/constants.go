package constants

import (
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	LoggerKey   ContextKey = "logger"
	PoolKey     ContextKey = "pool"
	TxKey       ContextKey = "tx"
	IdentityKey ContextKey = "identity"
)

var Validate = validator.New(validator.WithRequiredStructEnabled())
