package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/restvars/packages/script"
)

// JSONOutput wraps every JSON document written by JSONFormatter.
type JSONOutput struct {
	Kind string `json:"kind"`
	Time string `json:"time"`
	Data any    `json:"data,omitempty"`
	// Error is set for kind "error".
	Error string `json:"error,omitempty"`
}

// JSONFormatter writes one indented JSON document per result. In watch mode
// the output is a stream of documents.
type JSONFormatter struct {
	writer io.Writer
	now    func() time.Time
	err    error
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

// JSONWithClock sets the time stamped on every document.
func JSONWithClock(now func() time.Time) JSONOption {
	return func(f *JSONFormatter) {
		f.now = now
	}
}

func (f *JSONFormatter) write(out JSONOutput) {
	if f.err != nil {
		return
	}
	out.Time = f.now().Format(time.RFC3339)
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	f.err = encoder.Encode(out)
}

func (f *JSONFormatter) FormatResolution(r *Resolution) {
	f.write(JSONOutput{Kind: "resolution", Data: r})
}

func (f *JSONFormatter) FormatExtraction(e *Extraction) {
	f.write(JSONOutput{Kind: "extraction", Data: e})
}

func (f *JSONFormatter) FormatMappings(mappings []script.TokenMapping) {
	if mappings == nil {
		mappings = []script.TokenMapping{}
	}
	f.write(JSONOutput{Kind: "mappings", Data: mappings})
}

func (f *JSONFormatter) FormatTokens(tokens []TokenView) {
	if tokens == nil {
		tokens = []TokenView{}
	}
	f.write(JSONOutput{Kind: "tokens", Data: tokens})
}

func (f *JSONFormatter) FormatError(err error) {
	f.write(JSONOutput{Kind: "error", Error: err.Error()})
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Err returns the first write error.
func (f *JSONFormatter) Err() error {
	return f.err
}
