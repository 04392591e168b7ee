package dal

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID returns a prefixed id of the form prefix_<unix ms>_<random hex>.
func NewID(prefix string) string {
	b := make([]byte, 4)
	rand.Read(b)
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(b))
}

// NewMatchID returns a fresh match id. Match ids are never reused.
func NewMatchID() string {
	return uuid.NewString()
}
