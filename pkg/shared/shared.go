package shared

import (
	"github.com/go-playground/form"
)

// Decoder maps url.Values (query strings and multipart fields) onto structs
// tagged with `form:"..."`.
var Decoder = form.NewDecoder()
