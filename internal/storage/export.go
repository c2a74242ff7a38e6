package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/pendulab/internal/trials"
)

type ExportData struct {
	Session SessionMetadata `json:"session"`
	Trials  []trials.Trial  `json:"trials"`
	Series  []trials.Point  `json:"series"`
}

// Export reads an archived session in full.
func (a *Archive) Export(id string) (*ExportData, error) {
	meta, err := a.Load(id)
	if err != nil {
		return nil, err
	}
	rows, err := a.LoadTrials(id)
	if err != nil {
		return nil, err
	}
	return &ExportData{Session: *meta, Trials: rows, Series: trials.SeriesOf(rows)}, nil
}

func ExportJSON(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}

func WriteJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
