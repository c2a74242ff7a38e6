package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/pendulab/internal/trials"
)

var ErrEmptySession = errors.New("storage: session has no trials")

var trialHeader = []string{"number", "oscillations", "total_time", "period", "length_cm"}

// Archive keeps finished sessions on disk, one directory per session.
type Archive struct {
	baseDir string
}

func New(baseDir string) *Archive {
	return &Archive{baseDir: baseDir}
}

func (a *Archive) Init() error {
	return os.MkdirAll(a.baseDir, 0755)
}

func (a *Archive) Dir() string { return a.baseDir }

type SessionMetadata struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Profile   string    `json:"profile"`
	LengthCm  int       `json:"length_cm"`
	Count     int       `json:"count"`
	Average   float64   `json:"average"`
	Source    string    `json:"source"`
}

// Save writes metadata.json and trials.csv for the session in log. The
// session id of the log names the directory, so saving twice overwrites.
func (a *Archive) Save(profile string, log *trials.Log, result trials.Result) (string, error) {
	rows := log.Trials()
	if len(rows) == 0 {
		return "", ErrEmptySession
	}

	id := log.Session()
	dir := filepath.Join(a.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	meta := SessionMetadata{
		ID:        id,
		Timestamp: time.Now(),
		Profile:   profile,
		LengthCm:  rows[len(rows)-1].LengthCm,
		Count:     result.Count,
		Average:   result.Average,
		Source:    string(result.Source),
	}
	if err := writeJSON(filepath.Join(dir, "metadata.json"), meta); err != nil {
		return "", err
	}

	if err := writeTrials(filepath.Join(dir, "trials.csv"), rows); err != nil {
		return "", err
	}
	return id, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTrials(path string, rows []trials.Trial) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(trialHeader); err != nil {
		return err
	}
	for _, t := range rows {
		row := []string{
			strconv.Itoa(t.Number),
			strconv.FormatFloat(t.Oscillations, 'f', -1, 64),
			strconv.FormatFloat(t.TotalTime, 'f', 6, 64),
			strconv.FormatFloat(t.Period, 'f', 6, 64),
			strconv.Itoa(t.LengthCm),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable session, newest first.
func (a *Archive) List() ([]SessionMetadata, error) {
	entries, err := os.ReadDir(a.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SessionMetadata{}, nil
		}
		return nil, err
	}

	sessions := make([]SessionMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := a.Load(entry.Name())
		if err != nil {
			continue
		}
		sessions = append(sessions, *meta)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.After(sessions[j].Timestamp)
	})
	return sessions, nil
}

func (a *Archive) Load(id string) (*SessionMetadata, error) {
	data, err := os.ReadFile(filepath.Join(a.baseDir, id, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta SessionMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTrials reads trials.csv back. Rows that fail to parse are skipped.
func (a *Archive) LoadTrials(id string) ([]trials.Trial, error) {
	f, err := os.Open(filepath.Join(a.baseDir, id, "trials.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []trials.Trial{}, nil
	}

	out := make([]trials.Trial, 0, len(records)-1)
	for _, rec := range records[1:] {
		t, err := parseTrial(rec)
		if err != nil {
			continue
		}
		t.SessionID = id
		out = append(out, t)
	}
	return out, nil
}

func parseTrial(rec []string) (trials.Trial, error) {
	if len(rec) < len(trialHeader) {
		return trials.Trial{}, fmt.Errorf("storage: short row %v", rec)
	}
	number, err := strconv.Atoi(rec[0])
	if err != nil {
		return trials.Trial{}, err
	}
	var vals [3]float64
	for i := range vals {
		if vals[i], err = strconv.ParseFloat(rec[i+1], 64); err != nil {
			return trials.Trial{}, err
		}
	}
	length, err := strconv.Atoi(rec[4])
	if err != nil {
		return trials.Trial{}, err
	}
	return trials.Trial{
		Number:       number,
		Oscillations: vals[0],
		TotalTime:    vals[1],
		Period:       vals[2],
		LengthCm:     length,
	}, nil
}
