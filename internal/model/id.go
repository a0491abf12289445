package model

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ID prefixes per entity type.
const (
	PrefixMaterial = "mat"
	PrefixClient   = "cli"
	PrefixPreset   = "opt"
	PrefixTag      = "tag"
	PrefixQuote    = "qt"
	PrefixView     = "vw"
	PrefixPart     = "pt"
)

var lastMillis atomic.Int64

// NewID returns "{prefix}_{time}_{random}". The time component never goes
// backwards within a process.
func NewID(prefix string) string {
	now := time.Now().UnixMilli()
	for {
		prev := lastMillis.Load()
		if now < prev {
			now = prev
		}
		if lastMillis.CompareAndSwap(prev, now) {
			break
		}
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return prefix + "_" + strconv.FormatInt(now, 36) + "_" + random
}
