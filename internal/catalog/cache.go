package catalog

import (
	"encoding/binary"
	"strconv"

	"github.com/coocood/freecache"
)

const (
	defaultCacheSize = 2 * 1024 * 1024 // bytes
	nameKeyPrefix    = "ex-name||"
	idKeyPrefix      = "ex-id||"
)

// nameCache keeps exercise name <-> id pairs. The catalog is immutable once imported,
// so entries never expire and only positive lookups are stored.
type nameCache struct {
	cache *freecache.Cache
}

func newNameCache(size int) *nameCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	return &nameCache{
		cache: freecache.NewCache(size),
	}
}

func (c *nameCache) idByName(name string) (int, bool) {
	val, err := c.cache.Get([]byte(nameKeyPrefix + name))
	if err != nil || len(val) != 8 {
		return 0, false
	}
	return int(binary.BigEndian.Uint64(val)), true
}

func (c *nameCache) nameByID(id int) (string, bool) {
	val, err := c.cache.Get([]byte(idKeyPrefix + strconv.Itoa(id)))
	if err != nil {
		return "", false
	}
	return string(val), true
}

func (c *nameCache) put(id int, name string) {
	idBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(idBytes, uint64(id))
	// cache set errors only happen for oversized entries, a miss is fine then
	_ = c.cache.Set([]byte(nameKeyPrefix+name), idBytes, 0)
	_ = c.cache.Set([]byte(idKeyPrefix+strconv.Itoa(id)), []byte(name), 0)
}

func (c *nameCache) entries() int64 {
	return c.cache.EntryCount()
}
