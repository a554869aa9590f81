package cache

import (
	"time"

	"github.com/bwmarrin/snowflake"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	"go.uber.org/fx"
)

const defaultMeterTTL = 10 * time.Minute

// CaptureResolverCache stores meter lookups for the reading-capture hot
// path. Field devices submit in bursts against the same meters, so the
// lookup is cached briefly rather than hitting the store every time.
type CaptureResolverCache interface {
	GetMeter(id snowflake.ID) (*meterdomain.Meter, bool)
	SetMeter(id snowflake.ID, meter *meterdomain.Meter)
	InvalidateMeter(id snowflake.ID)
}

type captureResolverCache struct {
	meters   Cache[snowflake.ID, *meterdomain.Meter]
	meterTTL time.Duration
}

func NewCaptureResolverCache() CaptureResolverCache {
	return &captureResolverCache{
		meters:   NewTTLCache[snowflake.ID, *meterdomain.Meter](),
		meterTTL: defaultMeterTTL,
	}
}

func (c *captureResolverCache) GetMeter(id snowflake.ID) (*meterdomain.Meter, bool) {
	return c.meters.Get(id)
}

func (c *captureResolverCache) SetMeter(id snowflake.ID, meter *meterdomain.Meter) {
	c.meters.Set(id, meter, c.meterTTL)
}

func (c *captureResolverCache) InvalidateMeter(id snowflake.ID) {
	c.meters.Delete(id)
}

var Module = fx.Module("cache",
	fx.Provide(NewCaptureResolverCache),
)
