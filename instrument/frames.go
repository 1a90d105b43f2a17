// Package instrument records frame rates, memory use and phase timings of
// a particle run.
package instrument

import (
	"fmt"
	"io"
	"os"

	"github.com/gekko3d/particles"
	"github.com/google/uuid"
)

const DefaultSamples = 12

var _ particles.SampleTracker = (*FrameSampler)(nil)

// FrameSampler averages frame rates over one-second windows and groups the
// averages into buckets, one per population size. It stops accepting frames
// once the configured number of buckets has been closed.
type FrameSampler struct {
	out    io.Writer
	logger particles.Logger
	runID  string

	samples    int
	current    int
	population int
	elapsed    float32

	thisSecond []float32
	thisSample []float32
	buckets    [][]float32
}

func NewFrameSampler(out io.Writer, samples int, logger particles.Logger) *FrameSampler {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = particles.NewNopLogger()
	}
	if samples <= 0 {
		samples = DefaultSamples
	}
	return &FrameSampler{
		out:     out,
		logger:  logger,
		runID:   uuid.NewString(),
		samples: samples,
	}
}

// Update records one frame and reports whether sampling is still running.
// Zero deltas are counted as time but carry no frame rate.
func (s *FrameSampler) Update(deltaTime float32) bool {
	if s.Done() {
		return false
	}

	s.elapsed += deltaTime
	if deltaTime > 0 {
		s.thisSecond = append(s.thisSecond, 1/deltaTime)
	}
	if s.elapsed < 1 {
		return true
	}
	s.elapsed -= 1

	avg := mean(s.thisSecond)
	s.thisSecond = s.thisSecond[:0]
	if len(s.thisSample) > 0 {
		fmt.Fprint(s.out, " ")
	}
	s.thisSample = append(s.thisSample, avg)
	fmt.Fprintf(s.out, "%.2f", avg)
	return true
}

// BeginSample closes the current bucket and opens the next one.
func (s *FrameSampler) BeginSample(population int) {
	s.logger.Infof("run %s bucket %d (population %d): mean %.1f fps over %d s",
		s.runID, s.current, s.population, mean(s.thisSample), len(s.thisSample))

	s.buckets = append(s.buckets, s.thisSample)
	s.thisSample = nil
	s.population = population
	s.current++
	fmt.Fprintln(s.out)
}

func (s *FrameSampler) Done() bool { return s.current >= s.samples }

// Buckets returns the per-second averages of every closed bucket.
func (s *FrameSampler) Buckets() [][]float32 { return s.buckets }

func (s *FrameSampler) Current() []float32 { return s.thisSample }

func (s *FrameSampler) RunID() string { return s.runID }

func mean(values []float32) float32 {
	if len(values) == 0 {
		return 0
	}
	var sum float32
	for _, v := range values {
		sum += v
	}
	return sum / float32(len(values))
}

// CreateLog truncates or creates the log at path. An empty path discards
// everything written.
func CreateLog(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{io.Discard}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create log %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
