package instrument

import (
	"fmt"
	"io"
	"runtime"

	"github.com/gekko3d/particles"
	"github.com/gekko3d/particles/gpu"
)

var _ particles.PopulationRecorder = (*MemorySampler)(nil)

// MemorySampler appends one line of process bytes and one line of device
// bytes per growth boundary.
type MemorySampler struct {
	cpuOut   io.Writer
	gpuOut   io.Writer
	reporter gpu.MemoryReporter
	logger   particles.Logger

	cpuBytes func() uint64
}

// NewMemorySampler writes to cpuOut and gpuOut. A nil reporter records zero
// device bytes.
func NewMemorySampler(cpuOut, gpuOut io.Writer, reporter gpu.MemoryReporter, logger particles.Logger) *MemorySampler {
	if cpuOut == nil {
		cpuOut = io.Discard
	}
	if gpuOut == nil {
		gpuOut = io.Discard
	}
	if logger == nil {
		logger = particles.NewNopLogger()
	}
	return &MemorySampler{
		cpuOut:   cpuOut,
		gpuOut:   gpuOut,
		reporter: reporter,
		logger:   logger,
		cpuBytes: processBytes,
	}
}

func (m *MemorySampler) RecordPopulation(population int) {
	cpu := m.cpuBytes()
	var dev uint64
	if m.reporter != nil {
		dev = m.reporter.AllocatedBytes()
	}

	if _, err := fmt.Fprintln(m.cpuOut, cpu); err != nil {
		m.logger.Warnf("write cpu memory sample: %v", err)
	}
	if _, err := fmt.Fprintln(m.gpuOut, dev); err != nil {
		m.logger.Warnf("write gpu memory sample: %v", err)
	}
	m.logger.Debugf("population %d: cpu %d B, gpu %d B", population, cpu, dev)
}

func processBytes() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.Sys
}
