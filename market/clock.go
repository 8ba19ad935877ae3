package market

import (
	"encoding/binary"
	"sync"
	"time"
)

const clockStorePropertyKey = "MARKET:CLOCK:MONOTONIC"

// Clock issues strictly increasing timestamps backed by the store, so the
// timed transfer and event keys never move backwards across restarts.
type Clock struct {
	sync.Mutex
	store Store
	now   time.Time
}

func NewClock(store Store) (*Clock, error) {
	ts := time.Now()
	bs, err := store.ReadProperty([]byte(clockStorePropertyKey))
	if err != nil {
		return nil, err
	}
	if len(bs) == 8 {
		old := time.Unix(0, int64(binary.BigEndian.Uint64(bs)))
		if old.After(ts) {
			ts = old
		}
	}
	clock := new(Clock)
	clock.store = store
	clock.now = ts
	return clock, nil
}

func (c *Clock) Now() time.Time {
	c.Lock()
	defer c.Unlock()

	for {
		now := time.Now()
		if now.After(c.now) {
			c.now = now
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	val := make([]byte, 8)
	binary.BigEndian.PutUint64(val, uint64(c.now.UnixNano()))
	for {
		err := c.store.WriteProperty([]byte(clockStorePropertyKey), val)
		if err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	return c.now
}
