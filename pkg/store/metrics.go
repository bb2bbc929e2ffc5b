package store

import (
	"io/fs"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var opsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "forum_store_ops_total",
	Help: "Store operations by kind.",
}, []string{"op"})

func incOp(op string) {
	opsTotal.WithLabelValues(op).Inc()
}

func init() {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "forum_store_disk_bytes",
		Help: "Best-effort on-disk size of the store directory.",
	}, func() float64 {
		return float64(DiskUsage())
	})
}

// DiskUsage returns the best-effort total size in bytes of the store
// directory, zero when the store is not open.
func DiskUsage() uint64 {
	if db == nil || dbPath == "" {
		return 0
	}
	var total uint64
	_ = filepath.WalkDir(dbPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			total += uint64(fi.Size())
		}
		return nil
	})
	return total
}
