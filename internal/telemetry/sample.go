package telemetry

import (
	"encoding/json"
	"math"
	"time"
)

const bytesPerGB = 1024 * 1024 * 1024

// Performance is the shared state document of the system performance
// sensors. Field names match the sensor slugs.
type Performance struct {
	CPULoad              float64  `json:"cpu_load"`
	CPUFrequency         *float64 `json:"cpu_frequency"`
	MemoryTotal          float64  `json:"memory_total"`
	MemoryFree           float64  `json:"memory_free"`
	MemoryFreePercentage float64  `json:"memory_free_percentage"`
	DiskTotal            float64  `json:"disk_total"`
	DiskFree             float64  `json:"disk_free"`
	DiskFreePercentage   float64  `json:"disk_free_percentage"`
}

// Sample is one performance reading and when it was taken.
type Sample struct {
	Performance
	At time.Time
}

// JSON returns the state payload published on the performance topic.
func (p Performance) JSON() ([]byte, error) {
	return json.Marshal(p)
}

// Fields returns the numeric fields keyed by JSON name. A missing CPU
// frequency is left out.
func (p Performance) Fields() map[string]float64 {
	f := map[string]float64{
		"cpu_load":               p.CPULoad,
		"memory_total":           p.MemoryTotal,
		"memory_free":            p.MemoryFree,
		"memory_free_percentage": p.MemoryFreePercentage,
		"disk_total":             p.DiskTotal,
		"disk_free":              p.DiskFree,
		"disk_free_percentage":   p.DiskFreePercentage,
	}
	if p.CPUFrequency != nil {
		f["cpu_frequency"] = *p.CPUFrequency
	}
	return f
}

// newPerformance converts raw byte counts to GB and rounds every value to
// two decimals.
func newPerformance(cpuLoad float64, freqMHz *float64, memTotal, memAvail, diskTotal, diskFree uint64) Performance {
	p := Performance{
		CPULoad:              round2(cpuLoad),
		MemoryTotal:          round2(float64(memTotal) / bytesPerGB),
		MemoryFree:           round2(float64(memAvail) / bytesPerGB),
		MemoryFreePercentage: round2(percent(memAvail, memTotal)),
		DiskTotal:            round2(float64(diskTotal) / bytesPerGB),
		DiskFree:             round2(float64(diskFree) / bytesPerGB),
		DiskFreePercentage:   round2(percent(diskFree, diskTotal)),
	}
	if freqMHz != nil {
		ghz := round2(*freqMHz / 1000)
		p.CPUFrequency = &ghz
	}
	return p
}

func percent(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
