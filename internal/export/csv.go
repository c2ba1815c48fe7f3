package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/san-kum/softbody/internal/dynamo"
)

// WritePositionsCSV writes one row per frame: step, time, then x,y for
// every particle.
func WritePositionsCSV(w io.Writer, frames []dynamo.Frame) error {
	cw := csv.NewWriter(w)

	n := 0
	if len(frames) > 0 {
		n = len(frames[0].Particles)
	}
	header := []string{"step", "time"}
	for i := 0; i < n; i++ {
		header = append(header, "x"+strconv.Itoa(i), "y"+strconv.Itoa(i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, f := range frames {
		row := make([]string, 0, 2+2*len(f.Particles))
		row = append(row, strconv.Itoa(f.Step), strconv.FormatFloat(f.Time, 'g', -1, 64))
		for _, p := range f.Particles {
			row = append(row, strconv.FormatFloat(p.Pos.X, 'g', -1, 64), strconv.FormatFloat(p.Pos.Y, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
