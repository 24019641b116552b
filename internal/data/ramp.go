package data

import (
	"io"
	"sort"
	"time"

	"intraday-welfare/internal/capacity"
	"intraday-welfare/internal/model"
)

const (
	rampTimeLayout   = "02.01.2006 15:04"
	colRampTime      = "VALUE_TIME"
	colRampUpscale   = "Upscale Potential [MWh]"
	colRampDownscale = "Donwnscale Potential"
	colRampMaxGen    = "Max. von Generation [MWh]"
	colRampMinGen    = "Min. von Generation [MWh]"
)

// ReadRampPotential loads the plant's ramp potential and resamples it to
// capacity.RampResolution.
func ReadRampPotential(path string) ([]model.RampRow, error) {
	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseRampPotential(f, path)
}

func ParseRampPotential(r io.Reader, name string) ([]model.RampRow, error) {
	t, err := readTable(r, name, ';', colRampTime, colRampUpscale, colRampDownscale)
	if err != nil {
		return nil, err
	}
	rows := make([]model.RampRow, 0, len(t.rows))
	for i := range t.rows {
		var row model.RampRow
		if row.Time, err = t.time(i, colRampTime, rampTimeLayout); err != nil {
			return nil, err
		}
		if row.Upscale, err = t.nonNegative(i, colRampUpscale, false); err != nil {
			return nil, err
		}
		if row.Downscale, err = t.nonNegative(i, colRampDownscale, false); err != nil {
			return nil, err
		}
		if t.has(colRampMaxGen) && t.get(i, colRampMaxGen) != "" {
			if row.MaxGeneration, err = t.float(i, colRampMaxGen, false); err != nil {
				return nil, err
			}
		}
		if t.has(colRampMinGen) && t.get(i, colRampMinGen) != "" {
			if row.MinGeneration, err = t.float(i, colRampMinGen, false); err != nil {
				return nil, err
			}
		}
		rows = append(rows, row)
	}
	return Resample(rows, capacity.RampResolution), nil
}

// Resample forward-fills samples onto a regular grid of step from the first to
// the last sample time. A later sample at the same instant replaces an earlier one.
func Resample(rows []model.RampRow, step time.Duration) []model.RampRow {
	if len(rows) == 0 {
		return nil
	}
	sorted := make([]model.RampRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	first := sorted[0].Time.Truncate(step)
	last := sorted[len(sorted)-1].Time

	var out []model.RampRow
	j := 0
	cur := sorted[0]
	for ts := first; !ts.After(last); ts = ts.Add(step) {
		for j < len(sorted) && !sorted[j].Time.After(ts) {
			cur = sorted[j]
			j++
		}
		row := cur
		row.Time = ts
		out = append(out, row)
	}
	return out
}
