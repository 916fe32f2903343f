package family

import "time"

// Cache holds assembled aggregates by family id.
//
// Generation returns a stamp that moves forward on every Delete or Clear. Set
// drops the aggregate when its family was invalidated after gen was taken, so
// a read that overlaps a write never caches the pre-write state.
type Cache interface {
	Get(familyID int64) (*Aggregate, bool)
	Generation() uint64
	Set(familyID int64, gen uint64, aggregate *Aggregate, ttl time.Duration)
	Delete(familyID int64)
	Clear()
}

type noopCache struct{}

func (noopCache) Get(int64) (*Aggregate, bool) {
	return nil, false
}

func (noopCache) Generation() uint64 { return 0 }

func (noopCache) Set(int64, uint64, *Aggregate, time.Duration) {}

func (noopCache) Delete(int64) {}

func (noopCache) Clear() {}
