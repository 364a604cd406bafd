package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/jx"
)

// maxBodyBytes bounds request bodies; every API request here is a small
// JSON object.
const maxBodyBytes = 64 << 10

// decodeBody decodes the request body as a single JSON object, dispatching
// each field to f.
func decodeBody(r *http.Request, f func(d *jx.Decoder, key string) error) error {
	d := jx.Decode(io.LimitReader(r.Body, maxBodyBytes), 512)
	return d.Obj(f)
}
