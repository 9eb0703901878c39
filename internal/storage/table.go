package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/vesselsim/internal/dynamo"
	"github.com/san-kum/vesselsim/internal/physics"
	"github.com/san-kum/vesselsim/internal/schedule"
	"github.com/san-kum/vesselsim/internal/sim"
)

// Column order of the data table. There is no header row.
const (
	ColTime = iota
	ColInletFlow
	ColOutletFlow
	ColFeedTemp
	ColFeedConc
	ColVolume
	ColConcentration
	ColTemperature
	NumColumns
)

var ColumnNames = [NumColumns]string{
	"time", "inlet_flow", "outlet_flow", "feed_temperature",
	"feed_concentration", "volume", "concentration", "temperature",
}

var ErrMalformedTable = errors.New("storage: malformed data table")

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'e', 18, 64)
}

// Rows flattens a result into table rows, one per grid index.
func Rows(res *sim.Result) ([][]float64, error) {
	n := res.Len()
	if len(res.Times) != n || res.Schedule == nil || res.Schedule.Len() != n {
		return nil, fmt.Errorf("%w: result has %d states, %d times", dynamo.ErrDimensionMismatch, n, len(res.Times))
	}

	rows := make([][]float64, n)
	for i, x := range res.States {
		u := res.Schedule.At(i)
		rows[i] = []float64{
			res.Times[i],
			u[physics.InletFlow],
			u[physics.OutletFlow],
			u[physics.FeedTemperature],
			u[physics.FeedConcentration],
			x[physics.Volume],
			x[physics.Concentration],
			x[physics.Temperature],
		}
	}
	return rows, nil
}

// WriteTable writes res as comma separated %.18e values.
func WriteTable(w io.Writer, res *sim.Result) error {
	rows, err := Rows(res)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	record := make([]string, NumColumns)
	for _, row := range rows {
		for j, v := range row {
			record[j] = formatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadTable(r io.Reader) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = NumColumns
	cr.ReuseRecord = true

	rows := make([][]float64, 0)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
		}

		row := make([]float64, NumColumns)
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %s: %v", ErrMalformedTable, len(rows), ColumnNames[j], err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ResultFromRows rebuilds a result from table rows. Metrics are not stored
// in the table and come back empty.
func ResultFromRows(rows [][]float64) (*sim.Result, error) {
	n := len(rows)
	times := make([]float64, n)
	states := make([]dynamo.State, n)
	q := make([]float64, n)
	qf := make([]float64, n)
	caf := make([]float64, n)
	tf := make([]float64, n)

	for i, row := range rows {
		if len(row) != NumColumns {
			return nil, fmt.Errorf("%w: row %d has %d columns", ErrMalformedTable, i, len(row))
		}
		times[i] = row[ColTime]
		qf[i] = row[ColInletFlow]
		q[i] = row[ColOutletFlow]
		tf[i] = row[ColFeedTemp]
		caf[i] = row[ColFeedConc]
		states[i] = physics.NewState(row[ColVolume], row[ColConcentration], row[ColTemperature])
	}

	sched, err := schedule.FromSeries(q, qf, caf, tf)
	if err != nil {
		return nil, err
	}

	return &sim.Result{
		Times:    times,
		States:   states,
		Schedule: sched,
		Metrics:  make(map[string]float64),
	}, nil
}
