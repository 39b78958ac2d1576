package signature

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// WriteCSV writes Table() as CSV.
func (s Signatures) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(s.Table()); err != nil {
		return fmt.Errorf("failed to write signatures: %w", err)
	}
	return nil
}

// SaveCSV writes the signature table to path.
func (s Signatures) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create signature table: %w", err)
	}
	if err := s.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
