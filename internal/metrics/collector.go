package metrics

import (
	"time"

	"reelshelf/internal/logging"
)

// StatsProvider supplies catalog counts for the gauges.
type StatsProvider interface {
	CollectStats() (Stats, error)
}

// StatsProviderFunc adapts a function to StatsProvider.
type StatsProviderFunc func() (Stats, error)

// CollectStats calls f.
func (f StatsProviderFunc) CollectStats() (Stats, error) {
	return f()
}

// Stats holds catalog counts.
type Stats struct {
	Movies            int
	MediaFiles        int
	PosterImages      int
	PlaceholderImages int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats, err := c.statsProvider.CollectStats()
	if err != nil {
		logging.Warn("Metrics collection failed: %v", err)
		return
	}

	CatalogMovies.Set(float64(stats.Movies))
	CatalogMediaFiles.Set(float64(stats.MediaFiles))
	CatalogImages.WithLabelValues("ffmpeg").Set(float64(stats.PosterImages - stats.PlaceholderImages))
	CatalogImages.WithLabelValues("placeholder").Set(float64(stats.PlaceholderImages))

	logging.Debug("Metrics collected: movies=%d, files=%d, posters=%d (placeholders=%d)",
		stats.Movies, stats.MediaFiles, stats.PosterImages, stats.PlaceholderImages)
}
