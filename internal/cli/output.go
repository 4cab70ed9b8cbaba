package cli

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// OutputFormatter renders command results as JSON or text.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the JSON envelope of every command result.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  string      `json:"error,omitempty"` // error message
}

func newFormatter(opts *RootOptions, w io.Writer) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: w}
}

// Success writes data, using text to render it in text mode
func (f *OutputFormatter) Success(data interface{}, text func(w io.Writer)) error {
	if f.Format == "json" {
		return f.writeJSON(CLIResponse{Status: "ok", Data: data})
	}
	text(f.Writer)
	return nil
}

// Failure returns err, writing the JSON error envelope first in json mode.
// In text mode the caller reports err on stderr.
func (f *OutputFormatter) Failure(err error) error {
	if f.Format == "json" {
		if werr := f.writeJSON(CLIResponse{Status: "error", Error: err.Error()}); werr != nil {
			return werr
		}
	}
	return err
}

func (f *OutputFormatter) writeJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(f.Writer, string(data))
	return err
}
