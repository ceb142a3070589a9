package ident

import (
	"crypto/rand"
	"math/big"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const idLength = 12

// Префиксы идентификаторов по видам сущностей.
const (
	PrefixOrganization = "ORG"
	PrefixWebsite      = "WEB"
	PrefixOrder        = "ORD"
	PrefixOrderItem    = "ITM"
	PrefixFulfillment  = "FUL"
	PrefixTracking     = "TRK"
	PrefixEvent        = "EVT"
)

type Rand interface {
	Intn(n int) int
}

// Allocator выдаёт алфавитно-цифровые идентификаторы фиксированной длины
// с префиксом вида сущности (EVT..., FUL..., ORD...).
type Allocator struct {
	r Rand
}

func New(r Rand) *Allocator {
	if r == nil {
		r = secureRand{}
	}
	return &Allocator{r: r}
}

func (a *Allocator) Allocate(prefix string) string {
	b := make([]byte, idLength)
	for i := range b {
		b[i] = alphabet[a.r.Intn(len(alphabet))]
	}
	return prefix + string(b[len(prefix):])
}

type secureRand struct{}

func (secureRand) Intn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}
	return int(v.Int64())
}
