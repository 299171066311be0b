package generator

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

const (
	MACPrefix    = "52:54:00"
	BridgePrefix = "virbr"
	// MaxBridgeSuffix keeps generated bridge names within IFNAMSIZ.
	MaxBridgeSuffix = 0xffffffff
)

// Generator produces identifiers for values the operator left unspecified.
// Generated values are not checked against existing resources.
type Generator interface {
	MAC() string
	UUID() string
	BridgeName() string
}

type Random struct{}

func (Random) MAC() string {
	return fmt.Sprintf("%s:%02x:%02x:%02x", MACPrefix, rand.IntN(256), rand.IntN(256), rand.IntN(256))
}

// UUID panics when the system entropy source is unavailable.
func (Random) UUID() string {
	return uuid.NewString()
}

func (Random) BridgeName() string {
	return fmt.Sprintf("%s%d", BridgePrefix, rand.Int64N(MaxBridgeSuffix))
}

func New() Random {
	return Random{}
}
