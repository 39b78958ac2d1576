package accuracy

import (
	"encoding/json"
	"fmt"
	"strconv"

	"lcclass/internal/landcover"
)

// Value is an accuracy that may be undefined when its denominator is zero.
type Value struct {
	V       float64
	Defined bool
}

func ratio(num, den int) Value {
	if den == 0 {
		return Value{}
	}
	return Value{V: float64(num) / float64(den), Defined: true}
}

func (v Value) String() string {
	if !v.Defined {
		return "n/a"
	}
	return strconv.FormatFloat(v.V, 'f', 4, 64)
}

// MarshalJSON renders undefined values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

// UnmarshalJSON accepts a number or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	if err := json.Unmarshal(data, &v.V); err != nil {
		return err
	}
	v.Defined = true
	return nil
}

// Report is the result of an accuracy assessment.
type Report struct {
	Matrix   *ConfusionMatrix
	Overall  Value
	Kappa    Value
	Producer map[landcover.Class]Value
	User     map[landcover.Class]Value
	// Skipped counts pairs left out because either label was NoData.
	Skipped int
}

// Evaluate builds the confusion matrix from aligned predicted and reference
// labels and derives the accuracies:
//
//	overall     = trace / total
//	producer[c] = M[c,c] / columnSum(c)   (reference-conditioned)
//	user[c]     = M[c,c] / rowSum(c)      (prediction-conditioned)
//
// Zero denominators yield undefined values, never an error. Classes in
// include always get producer/user entries.
func Evaluate(predicted, reference []landcover.Class, include ...landcover.Class) (*Report, error) {
	if len(predicted) != len(reference) {
		return nil, &landcover.DataError{Reason: fmt.Sprintf("%d predictions for %d reference labels", len(predicted), len(reference))}
	}

	m := NewConfusionMatrix(include...)
	skipped := 0
	for i := range predicted {
		if !m.Add(predicted[i], reference[i]) {
			skipped++
		}
	}
	return FromMatrix(m, skipped), nil
}

// FromMatrix derives a report from an existing matrix.
func FromMatrix(m *ConfusionMatrix, skipped int) *Report {
	rep := &Report{
		Matrix:   m,
		Overall:  ratio(m.Trace(), m.Total()),
		Kappa:    kappa(m),
		Producer: map[landcover.Class]Value{},
		User:     map[landcover.Class]Value{},
		Skipped:  skipped,
	}
	for _, c := range m.Classes() {
		diag := m.Count(c, c)
		rep.Producer[c] = ratio(diag, m.ColumnSum(c))
		rep.User[c] = ratio(diag, m.RowSum(c))
	}
	return rep
}

// kappa is Cohen's kappa, undefined for an empty matrix or when chance
// agreement is 1.
func kappa(m *ConfusionMatrix) Value {
	n := float64(m.Total())
	if n == 0 {
		return Value{}
	}
	po := float64(m.Trace()) / n
	pe := 0.0
	for _, c := range m.Classes() {
		pe += float64(m.RowSum(c)) * float64(m.ColumnSum(c)) / (n * n)
	}
	if pe >= 1 {
		return Value{}
	}
	return Value{V: (po - pe) / (1 - pe), Defined: true}
}
