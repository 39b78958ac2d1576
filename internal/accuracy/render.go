package accuracy

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteTable renders the confusion matrix (rows predicted, columns
// reference) followed by per-class and overall accuracies.
func (r *Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	classes := r.Matrix.Classes()

	fmt.Fprint(tw, "predicted \\ reference\t")
	for _, c := range classes {
		fmt.Fprintf(tw, "%d\t", c)
	}
	fmt.Fprint(tw, "total\t\n")
	for _, p := range classes {
		fmt.Fprintf(tw, "%d\t", p)
		for _, ref := range classes {
			fmt.Fprintf(tw, "%d\t", r.Matrix.Count(p, ref))
		}
		fmt.Fprintf(tw, "%d\t\n", r.Matrix.RowSum(p))
	}
	fmt.Fprint(tw, "total\t")
	for _, c := range classes {
		fmt.Fprintf(tw, "%d\t", r.Matrix.ColumnSum(c))
	}
	fmt.Fprintf(tw, "%d\t\n", r.Matrix.Total())
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "class\tname\tproducer\tuser\n")
	for _, c := range classes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c, c, r.Producer[c], r.User[c])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\noverall accuracy: %s\nkappa: %s\nvalidation pixels: %d (skipped %d)\n",
		r.Overall, r.Kappa, r.Matrix.Total(), r.Skipped)
	return err
}

type classJSON struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Producer Value  `json:"producer"`
	User     Value  `json:"user"`
	RowSum   int    `json:"predicted"`
	ColSum   int    `json:"reference"`
}

type cellJSON struct {
	Predicted int `json:"predicted"`
	Reference int `json:"reference"`
	Count     int `json:"count"`
}

type reportJSON struct {
	Overall Value       `json:"overall"`
	Kappa   Value       `json:"kappa"`
	Total   int         `json:"total"`
	Skipped int         `json:"skipped"`
	Classes []classJSON `json:"classes"`
	Matrix  []cellJSON  `json:"matrix"`
}

// MarshalJSON encodes the report with class-keyed entries and only the
// non-zero matrix cells.
func (r *Report) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		Overall: r.Overall,
		Kappa:   r.Kappa,
		Total:   r.Matrix.Total(),
		Skipped: r.Skipped,
		Classes: []classJSON{},
		Matrix:  []cellJSON{},
	}
	classes := r.Matrix.Classes()
	for _, c := range classes {
		out.Classes = append(out.Classes, classJSON{
			ID:       int(c),
			Name:     c.String(),
			Producer: r.Producer[c],
			User:     r.User[c],
			RowSum:   r.Matrix.RowSum(c),
			ColSum:   r.Matrix.ColumnSum(c),
		})
	}
	for _, p := range classes {
		for _, ref := range classes {
			if n := r.Matrix.Count(p, ref); n > 0 {
				out.Matrix = append(out.Matrix, cellJSON{Predicted: int(p), Reference: int(ref), Count: n})
			}
		}
	}
	return json.Marshal(out)
}
