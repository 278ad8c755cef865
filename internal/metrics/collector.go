package metrics

import (
	"context"
	"time"

	"pitboss/pkg/domain"
	"pitboss/pkg/logger"
)

// Sampler produces one batch of gauge readings. The collector polls every
// registered sampler on its tick.
type Sampler interface {
	Sample(ctx context.Context) (map[string]float64, error)
}

// SamplerFunc adapts a plain function to the Sampler interface.
type SamplerFunc func(ctx context.Context) (map[string]float64, error)

func (f SamplerFunc) Sample(ctx context.Context) (map[string]float64, error) {
	return f(ctx)
}

// Collector periodically samples gauges and persists them through the
// metrics service.
type Collector struct {
	service  *Service
	samplers map[string]Sampler
	interval time.Duration
	logger   logger.Logger
	stop     chan struct{}
}

func NewCollector(service *Service, interval time.Duration, log logger.Logger) *Collector {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Collector{
		service:  service,
		samplers: make(map[string]Sampler),
		interval: interval,
		logger:   log,
		stop:     make(chan struct{}),
	}
}

// RegisterSampler adds a named sampler. Call before Start.
func (c *Collector) RegisterSampler(source string, s Sampler) {
	c.samplers[source] = s
}

func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stop:
				ticker.Stop()
				return
			}
		}
	}()
	c.logger.Info("Metrics collector started", map[string]interface{}{
		"interval": c.interval.String(),
		"samplers": len(c.samplers),
	})
}

func (c *Collector) Stop() {
	close(c.stop)
}

func (c *Collector) collect() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for source, sampler := range c.samplers {
		readings, err := sampler.Sample(ctx)
		if err != nil {
			c.logger.Error("Metrics sampler failed", map[string]interface{}{
				"source": source,
				"error":  err.Error(),
			})
			continue
		}

		for name, value := range readings {
			err := c.service.Record(ctx, name, value, domain.Metadata{"source": source})
			if err != nil {
				c.logger.Error("Failed to record metric", map[string]interface{}{
					"metric": name,
					"error":  err.Error(),
				})
			}
		}
	}
}
