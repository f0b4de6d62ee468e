// Package timeseries loads price and irradiance series from CSV files into
// a scheduling horizon. Validation of the series itself is delegated to
// core/model.
package timeseries

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/pvbess/core/model"
)

// LoadCSV reads a horizon from the file at path. The file must carry a
// header naming at least the timestamp, price_mwh and irradiance columns,
// in any order. Timestamps are RFC 3339; the interval is inferred from the
// first two rows and checked for uniformity by the horizon constructor.
func LoadCSV(path string) (*model.Horizon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open horizon file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses horizon rows from r.
func ReadCSV(r io.Reader) (*model.Horizon, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	tsCol, ok := cols["timestamp"]
	if !ok {
		return nil, fmt.Errorf("%w: missing timestamp column", model.ErrInvalidInput)
	}
	priceCol, ok := cols["price_mwh"]
	if !ok {
		if priceCol, ok = cols["price"]; !ok {
			return nil, fmt.Errorf("%w: missing price_mwh column", model.ErrInvalidInput)
		}
	}
	irrCol, ok := cols["irradiance"]
	if !ok {
		return nil, fmt.Errorf("%w: missing irradiance column", model.ErrInvalidInput)
	}

	var periods []model.Period
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		ts, err := time.Parse(time.RFC3339, rec[tsCol])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: bad timestamp %q", model.ErrInvalidInput, line, rec[tsCol])
		}
		price, err := strconv.ParseFloat(rec[priceCol], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: bad price %q", model.ErrInvalidInput, line, rec[priceCol])
		}
		irr, err := strconv.ParseFloat(rec[irrCol], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: bad irradiance %q", model.ErrInvalidInput, line, rec[irrCol])
		}
		periods = append(periods, model.Period{Timestamp: ts, PriceMWh: price, Irradiance: irr})
	}
	if len(periods) < 2 {
		return nil, fmt.Errorf("%w: at least two rows required to infer the interval", model.ErrInvalidInput)
	}
	return model.NewHorizon(periods, periods[1].Timestamp.Sub(periods[0].Timestamp))
}
