package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/san-kum/pendulab/internal/storage"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 64 << 10

var errEmptyBody = errors.New("request body is empty")

// Each field is read from the first key present.
var (
	oscillationKeys = []string{"n", "oscillations"}
	totalTimeKeys   = []string{"t", "totalTime"}
	periodKeys      = []string{"T", "period"}
)

// decodeRecord accepts both the short {n, t, T} body and the long
// {number, oscillations, totalTime, period} one. Values may be JSON
// numbers or numeric strings. A missing period is derived from t / n.
func decodeRecord(r *http.Request) (storage.Record, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return storage.Record{}, errEmptyBody
		}
		return storage.Record{}, fmt.Errorf("invalid json: %w", err)
	}

	n, ok, err := lookup(body, oscillationKeys)
	if err != nil {
		return storage.Record{}, err
	}
	if !ok {
		return storage.Record{}, fmt.Errorf("missing field %q", oscillationKeys[0])
	}
	if !n.IsPositive() {
		return storage.Record{}, fmt.Errorf("field %q must be positive", oscillationKeys[0])
	}

	t, ok, err := lookup(body, totalTimeKeys)
	if err != nil {
		return storage.Record{}, err
	}
	if !ok {
		return storage.Record{}, fmt.Errorf("missing field %q", totalTimeKeys[0])
	}
	if t.IsNegative() {
		return storage.Record{}, fmt.Errorf("field %q must not be negative", totalTimeKeys[0])
	}

	period, ok, err := lookup(body, periodKeys)
	if err != nil {
		return storage.Record{}, err
	}
	if !ok {
		period = t.Div(n)
	}

	return storage.Record{
		N:      n.InexactFloat64(),
		T:      t.InexactFloat64(),
		Period: period.InexactFloat64(),
	}, nil
}

func lookup(body map[string]any, keys []string) (decimal.Decimal, bool, error) {
	for _, k := range keys {
		v, present := body[k]
		if !present || v == nil {
			continue
		}
		d, err := toDecimal(v)
		if err != nil {
			return decimal.Decimal{}, false, fmt.Errorf("field %q: %w", k, err)
		}
		return d, true, nil
	}
	return decimal.Decimal{}, false, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case json.Number:
		return decimal.NewFromString(x.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(x))
	}
	return decimal.Decimal{}, fmt.Errorf("not a number: %v", v)
}
