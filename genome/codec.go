package genome

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/pthm-cable/sprout/morph"
)

// Wire prefixes. The payload after the prefix is unpadded base64url.
const (
	PrefixDeflate = "z1." // raw deflate of the JSON document
	PrefixJSON    = "j1." // the JSON document itself
)

// maxInflated bounds the decompressed payload of a single genome.
const maxInflated = 1 << 20

// Decode failures. Decode wraps exactly one of these.
var (
	ErrPrefix  = errors.New("genome: unrecognized prefix")
	ErrPayload = errors.New("genome: malformed payload")
	ErrVersion = errors.New("genome: unsupported version")
	ErrSeed    = errors.New("genome: invalid seed")
)

var b64 = base64.RawURLEncoding

// Encode renders the canonical form of g as text. Both the deflated and the
// plain form are built and the shorter one is returned.
func Encode(g Genome) (string, error) {
	data, err := json.Marshal(Canonical(g))
	if err != nil {
		return "", fmt.Errorf("marshaling genome: %w", err)
	}
	plain := encodeJSON(data)
	packed, err := encodeDeflate(data)
	if err != nil {
		return "", err
	}
	if len(packed) < len(plain) {
		return packed, nil
	}
	return plain, nil
}

func encodeJSON(data []byte) string {
	return PrefixJSON + b64.EncodeToString(data)
}

func encodeDeflate(data []byte) (string, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("creating deflate writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return "", fmt.Errorf("compressing genome: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("compressing genome: %w", err)
	}
	return PrefixDeflate + b64.EncodeToString(buf.Bytes()), nil
}

// wire mirrors Genome with a loosely typed seed so that out-of-range and
// fractional seeds are reported as ErrSeed rather than a parse error.
type wire struct {
	Version int        `json:"v"`
	Seed    *float64   `json:"seed"`
	Plan    morph.Plan `json:"plan"`
	Palette []string   `json:"palette"`
	Modules []Gene     `json:"modules"`
}

// Decode parses a genome string. It fails closed: any error leaves nothing
// half-decoded, and the error wraps one of the Err sentinels.
func Decode(s string) (Genome, error) {
	s = strings.TrimSpace(s)
	var data []byte
	switch {
	case strings.HasPrefix(s, PrefixDeflate):
		raw, err := b64.DecodeString(s[len(PrefixDeflate):])
		if err != nil {
			return Genome{}, fmt.Errorf("%w: base64: %v", ErrPayload, err)
		}
		r := flate.NewReader(bytes.NewReader(raw))
		data, err = io.ReadAll(io.LimitReader(r, maxInflated+1))
		r.Close()
		if err != nil {
			return Genome{}, fmt.Errorf("%w: inflate: %v", ErrPayload, err)
		}
		if len(data) > maxInflated {
			return Genome{}, fmt.Errorf("%w: payload exceeds %d bytes", ErrPayload, maxInflated)
		}
	case strings.HasPrefix(s, PrefixJSON):
		raw, err := b64.DecodeString(s[len(PrefixJSON):])
		if err != nil {
			return Genome{}, fmt.Errorf("%w: base64: %v", ErrPayload, err)
		}
		data = raw
	default:
		return Genome{}, ErrPrefix
	}

	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return Genome{}, fmt.Errorf("%w: json: %v", ErrPayload, err)
	}
	if w.Version != Version {
		return Genome{}, fmt.Errorf("%w: %d", ErrVersion, w.Version)
	}
	seed, err := wireSeed(w.Seed)
	if err != nil {
		return Genome{}, err
	}
	return Canonical(Genome{
		Version: w.Version,
		Seed:    seed,
		Plan:    w.Plan,
		Palette: w.Palette,
		Modules: w.Modules,
	}), nil
}

func wireSeed(v *float64) (uint32, error) {
	switch {
	case v == nil:
		return 0, fmt.Errorf("%w: missing", ErrSeed)
	case math.IsNaN(*v) || math.IsInf(*v, 0):
		return 0, fmt.Errorf("%w: not finite", ErrSeed)
	case *v != math.Trunc(*v):
		return 0, fmt.Errorf("%w: %v is not an integer", ErrSeed, *v)
	case *v < 0 || *v > math.MaxUint32:
		return 0, fmt.Errorf("%w: %v out of range", ErrSeed, *v)
	}
	return uint32(*v), nil
}
