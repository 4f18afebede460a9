package notifier

import (
	"bufio"
	"fmt"
	"io"

	"StockStream/internal/model"
)

// CSVWriter streams formatted records to an output. In arrival mode every
// record is written and flushed as soon as it is received. In ordered mode
// records are held until Flush and then written in the order of Symbols.
type CSVWriter struct {
	Format  Formatter
	Ordered bool
	Symbols []string

	w       *bufio.Writer
	pending map[string][]model.ResultRecord
	header  bool
	rows    int
}

// NewCSVWriter creates a writer over out.
func NewCSVWriter(out io.Writer, f Formatter, ordered bool, symbols []string) *CSVWriter {
	return &CSVWriter{
		Format:  f,
		Ordered: ordered,
		Symbols: symbols,
		w:       bufio.NewWriter(out),
		pending: make(map[string][]model.ResultRecord),
	}
}

// WriteHeader writes the column line once.
func (c *CSVWriter) WriteHeader() error {
	if c.header {
		return nil
	}
	c.header = true
	if _, err := fmt.Fprintln(c.w, c.Format.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return c.w.Flush()
}

// Write handles one record.
func (c *CSVWriter) Write(rec model.ResultRecord) error {
	if c.Ordered {
		c.pending[rec.Symbol] = append(c.pending[rec.Symbol], rec)
		return nil
	}
	if err := c.writeRow(rec); err != nil {
		return err
	}
	return c.w.Flush()
}

// Flush writes buffered records, symbol by symbol in input order. Records for
// symbols not in Symbols follow at the end.
func (c *CSVWriter) Flush() error {
	for _, sym := range c.Symbols {
		for _, rec := range c.pending[sym] {
			if err := c.writeRow(rec); err != nil {
				return err
			}
		}
		delete(c.pending, sym)
	}
	for sym, recs := range c.pending {
		for _, rec := range recs {
			if err := c.writeRow(rec); err != nil {
				return err
			}
		}
		delete(c.pending, sym)
	}
	return c.w.Flush()
}

// Rows returns how many rows have been written so far.
func (c *CSVWriter) Rows() int { return c.rows }

func (c *CSVWriter) writeRow(rec model.ResultRecord) error {
	if _, err := fmt.Fprintln(c.w, c.Format.Row(rec)); err != nil {
		return fmt.Errorf("write %s: %w", rec.Symbol, err)
	}
	c.rows++
	return nil
}
