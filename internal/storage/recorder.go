package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Sampler reads property values by path.
type Sampler interface {
	Float(path string) (float64, bool)
}

// Recorder writes a row of sampled properties every n executed steps. It is
// driven from the simulation goroutine.
type Recorder struct {
	store   *Store
	meta    RunMetadata
	sampler Sampler
	every   int

	file  *os.File
	w     *csv.Writer
	steps int
	err   error
}

// NewRecorder starts a run. meta.Columns lists the properties to sample.
func (s *Store) NewRecorder(meta RunMetadata, sampler Sampler, every int) (*Recorder, error) {
	if every < 1 {
		every = 1
	}
	meta.ID = fmt.Sprintf("%s_%d_%s", meta.Aircraft, time.Now().Unix(), uuid.NewString()[:8])
	meta.Timestamp = time.Now()

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}

	f, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"time"}, meta.Columns...)); err != nil {
		f.Close()
		return nil, err
	}

	r := &Recorder{store: s, meta: meta, sampler: sampler, every: every, file: f, w: w}
	if err := s.writeMetadata(meta); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Recorder) ID() string { return r.meta.ID }

// OnStep samples on every n-th step.
func (r *Recorder) OnStep(simTime float64) {
	if r.err != nil {
		return
	}
	r.steps++
	if (r.steps-1)%r.every != 0 {
		return
	}

	row := make([]string, 0, len(r.meta.Columns)+1)
	row = append(row, strconv.FormatFloat(simTime, 'f', 6, 64))
	for _, c := range r.meta.Columns {
		v, _ := r.sampler.Float(c)
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	if err := r.w.Write(row); err != nil {
		r.err = err
		return
	}
	r.meta.Samples++
	r.meta.SimTime = simTime
}

// Close flushes the samples and finalizes the metadata.
func (r *Recorder) Close() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil && r.err == nil {
		r.err = err
	}
	if err := r.file.Close(); err != nil && r.err == nil {
		r.err = err
	}
	if err := r.store.writeMetadata(r.meta); err != nil && r.err == nil {
		r.err = err
	}
	return r.err
}
