package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/san-kum/ascent/internal/dynamo"
	"github.com/san-kum/ascent/internal/recorder"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

type Store struct {
	baseDir string
	logger  kitlog.Logger
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, logger: kitlog.NewNopLogger(), now: time.Now}
}

func (s *Store) SetLogger(l kitlog.Logger) { s.logger = l }

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	System     string             `json:"system"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Modular    bool               `json:"modular"`
	Adaptive   bool               `json:"adaptive"`
	Steps      int                `json:"steps"`
	Accepted   int                `json:"accepted,omitempty"`
	Rejected   int                `json:"rejected,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes metadata.json and states.csv into a fresh run directory and
// returns the run ID. ID, Timestamp, Steps and the adaptive counters are
// filled from the result.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	now := s.now()
	meta.ID = fmt.Sprintf("%s_%d", meta.System, now.UnixNano())
	meta.Timestamp = now
	meta.Steps = result.StepsTaken
	meta.Accepted = result.Stats.Accepted
	meta.Rejected = result.Stats.Rejected
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := s.writeStates(filepath.Join(runDir, statesFile), result); err != nil {
		return "", err
	}

	level.Debug(s.logger).Log("msg", "run saved", "id", meta.ID, "rows", len(result.States))
	return meta.ID, nil
}

func (s *Store) writeStates(path string, result *dynamo.Result) error {
	rec := recorder.New()
	rec.Titles = []string{"time"}
	if len(result.States) > 0 {
		for i := range result.States[0] {
			rec.Titles = append(rec.Titles, fmt.Sprintf("x%d", i))
		}
	}
	for i, x := range result.States {
		rec.Push(result.Times[i])
		if err := rec.Add(x...); err != nil {
			return err
		}
	}
	return rec.SaveCSV(path)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			level.Warn(s.logger).Log("msg", "skipping run", "dir", entry.Name(), "err", err)
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([][]float64, 0, len(records)-1)

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		times = append(times, t)

		state := make([]float64, 0, len(record)-1)
		for _, field := range record[1:] {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				continue
			}
			state = append(state, val)
		}
		states = append(states, state)
	}

	return states, times, nil
}

type ExportData struct {
	System     string                `json:"system"`
	Integrator string                `json:"integrator"`
	Dt         float64               `json:"dt"`
	Duration   float64               `json:"duration"`
	Steps      int                   `json:"steps"`
	Times      []float64             `json:"times"`
	States     [][]float64           `json:"states"`
	Metrics    map[string]float64    `json:"metrics"`
	Stats      *dynamo.AdaptiveStats `json:"stats,omitempty"`
}

func NewExport(system, integrator string, dt, duration float64, result *dynamo.Result) ExportData {
	data := ExportData{
		System:     system,
		Integrator: integrator,
		Dt:         dt,
		Duration:   duration,
		Steps:      result.StepsTaken,
		Times:      result.Times,
		States:     make([][]float64, len(result.States)),
		Metrics:    result.Metrics,
	}
	for i, s := range result.States {
		data.States[i] = s
	}
	if result.Stats.Accepted > 0 {
		stats := result.Stats
		data.Stats = &stats
	}
	return data
}

func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSON(file, data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func ExportJSONStdout(data ExportData) error {
	return WriteJSON(os.Stdout, data)
}
