package objectkey

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generator defines the interface for object key generation strategies.
type Generator interface {
	// GenerateKey creates a storage key for an owner's upload. Keys must be
	// collision-free across owners and across uploads from the same owner.
	GenerateKey(ownerID uuid.UUID, fileName string, now time.Time) string
}

// OwnerTimeGenerator derives keys from the owner identity, a nanosecond
// timestamp and the original file extension:
//
//	<owner-uuid>/<unix-nanos><ext>
//
// The owner prefix rules out cross-owner collisions; the nanosecond clock
// rules out collisions between uploads from the same owner.
type OwnerTimeGenerator struct{}

func NewOwnerTimeGenerator() *OwnerTimeGenerator {
	return &OwnerTimeGenerator{}
}

func (g *OwnerTimeGenerator) GenerateKey(ownerID uuid.UUID, fileName string, now time.Time) string {
	return fmt.Sprintf("%s/%d%s", ownerID, now.UTC().UnixNano(), extensionOf(fileName))
}

// ShardedOwnerTimeGenerator adds a two-character shard directory derived from
// the owner id, keeping per-directory fanout bounded on filesystem backends:
//
//	<shard>/<owner-uuid>/<unix-nanos><ext>
type ShardedOwnerTimeGenerator struct {
	ShardLength int
}

func NewShardedOwnerTimeGenerator() *ShardedOwnerTimeGenerator {
	return &ShardedOwnerTimeGenerator{ShardLength: 2}
}

func (g *ShardedOwnerTimeGenerator) GenerateKey(ownerID uuid.UUID, fileName string, now time.Time) string {
	owner := strings.ReplaceAll(ownerID.String(), "-", "")
	shardLen := g.ShardLength
	if shardLen <= 0 || shardLen > len(owner) {
		shardLen = 2
	}
	return fmt.Sprintf("%s/%s/%d%s", owner[:shardLen], ownerID, now.UTC().UnixNano(), extensionOf(fileName))
}

// CustomFuncGenerator allows users to provide their own key generation function.
type CustomFuncGenerator struct {
	GenerateFunc func(ownerID uuid.UUID, fileName string, now time.Time) string
}

func NewCustomFuncGenerator(fn func(ownerID uuid.UUID, fileName string, now time.Time) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{GenerateFunc: fn}
}

func (g *CustomFuncGenerator) GenerateKey(ownerID uuid.UUID, fileName string, now time.Time) string {
	return g.GenerateFunc(ownerID, fileName, now)
}

// extensionOf returns a sanitized, lowercased extension including the dot,
// or an empty string when the filename has none.
func extensionOf(fileName string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.TrimSpace(fileName))))
	if ext == "." {
		return ""
	}
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return replacer.Replace(ext)
}

// NewRecommendedGenerator returns the default generator for new installations.
func NewRecommendedGenerator() Generator {
	return NewOwnerTimeGenerator()
}
