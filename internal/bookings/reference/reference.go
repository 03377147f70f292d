// Package reference generates human readable booking references of the form
// BK-<8 base36 chars of unix millis>-<6 random base36 chars>.
package reference

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	Prefix = "BK-"

	timeLen   = 8
	randomLen = 6
	alphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var (
	Pattern = regexp.MustCompile(`^BK-[0-9A-Z]{8}-[0-9A-Z]{6}$`)

	alphabetSize = big.NewInt(int64(len(alphabet)))
)

type Generator func() string

// New returns a reference for the current time.
func New() string {
	return At(time.Now())
}

// At returns a reference whose time component encodes t.
func At(t time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(t.UnixMilli(), 36))
	if len(ts) < timeLen {
		ts = strings.Repeat("0", timeLen-len(ts)) + ts
	} else if len(ts) > timeLen {
		ts = ts[len(ts)-timeLen:]
	}

	var b strings.Builder
	b.Grow(len(Prefix) + timeLen + 1 + randomLen)
	b.WriteString(Prefix)
	b.WriteString(ts)
	b.WriteByte('-')
	b.WriteString(randomSuffix())
	return b.String()
}

func Valid(ref string) bool {
	return Pattern.MatchString(ref)
}

func randomSuffix() string {
	out := make([]byte, randomLen)
	for i := range out {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out)
}
