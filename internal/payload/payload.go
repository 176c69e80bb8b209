// Package payload turns user text into frame payload bytes.
//
// Every character of the text is a single digit in the chosen radix and
// becomes one byte holding that digit's value, so "1f" in radix 16 is the two
// bytes 0x01 0x0f. This is deliberately not a number parser.
package payload

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/XaydBayeck/ipw/internal/core"
)

const (
	MinRadix = 2
	MaxRadix = 36
)

// Decode converts text to one byte per character.
func Decode(text string, radix int) ([]byte, error) {
	if radix < MinRadix || radix > MaxRadix {
		return nil, errors.Wrapf(core.ErrInvalidPayload, "radix %d outside %d..%d", radix, MinRadix, MaxRadix)
	}

	out := make([]byte, 0, len(text))
	for i, c := range text {
		d, err := strconv.ParseUint(string(c), radix, 8)
		if err != nil {
			return nil, errors.Wrapf(core.ErrInvalidPayload, "character %q at %d is not a radix-%d digit", c, i, radix)
		}
		out = append(out, byte(d))
	}
	return out, nil
}

// Load reads the payload text from path. A single trailing line ending is
// not part of the payload.
func Load(path string, radix int) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read payload file")
	}
	text := strings.TrimSuffix(string(b), "\n")
	text = strings.TrimSuffix(text, "\r")
	return Decode(text, radix)
}
