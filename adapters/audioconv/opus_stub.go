//go:build !opus

package audioconv

import (
	"errors"
	"io"
)

var errOpusUnsupported = errors.New("ogg/opus decoding requires the opus build tag")

func decodeOggOpus(r io.ReadSeeker) (*pcm, error) {
	return nil, errOpusUnsupported
}
