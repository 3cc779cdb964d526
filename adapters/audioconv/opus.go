//go:build opus

package audioconv

import (
	"errors"
	"io"

	popus "github.com/pekim/opus"
)

const opusSampleRate = 48000

// decodeOggOpus needs libopusfile and the opus build tag.
func decodeOggOpus(r io.ReadSeeker) (*pcm, error) {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	defer dec.Destroy()

	ch := dec.ChannelCount()
	if ch <= 0 {
		ch = 1
	}

	var (
		samples []float32
		buf     = make([]int16, opusSampleRate*ch/2)
	)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			samples = append(samples, int16SliceToFloat32(buf[:n*ch])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	if len(samples) == 0 {
		return nil, errors.New("empty ogg/opus stream")
	}
	return &pcm{samples: downmixInterleaved(samples, ch), sampleRate: opusSampleRate}, nil
}
