package sink

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dbferry/dbferry/pkg/statement"
)

// fileSink is the shared open/flush/close half of the file writers.
type fileSink struct {
	f   *os.File
	buf *bufio.Writer
}

func newFileSink(path string) (*fileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &fileSink{f: f, buf: bufio.NewWriter(f)}, nil
}

func (s *fileSink) Flush() error {
	return s.buf.Flush()
}

func (s *fileSink) Close() error {
	return s.f.Close()
}

// csvWriter emits the header row exactly once, before the first data
// row. Cells containing comma, quote, CR or LF are quoted with
// quote-doubling; line endings are LF.
type csvWriter struct {
	*fileSink
	w           *csv.Writer
	columns     []string
	wroteHeader bool
}

func NewCSV(path string, columns []string) (Writer, error) {
	fs, err := newFileSink(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(fs.buf)
	w.UseCRLF = false
	return &csvWriter{fileSink: fs, w: w, columns: columns}, nil
}

func (c *csvWriter) WriteRow(_ context.Context, row []any) error {
	if !c.wroteHeader {
		if err := c.w.Write(c.columns); err != nil {
			return err
		}
		c.wroteHeader = true
	}
	cells := make([]string, len(c.columns))
	for i := range c.columns {
		if i < len(row) {
			cells[i] = cellText(row[i])
		}
	}
	return c.w.Write(cells)
}

func (c *csvWriter) Flush() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return err
	}
	return c.fileSink.Flush()
}

// cellText renders a value for CSV. NULL becomes an empty cell.
func cellText(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(v)
	}
}

// jsonlWriter emits one compact JSON object per row per line, keyed by
// column name. Missing values become JSON null.
type jsonlWriter struct {
	*fileSink
	columns []string
	enc     *json.Encoder
}

func NewJSONL(path string, columns []string) (Writer, error) {
	fs, err := newFileSink(path)
	if err != nil {
		return nil, err
	}
	return &jsonlWriter{fileSink: fs, columns: columns, enc: json.NewEncoder(fs.buf)}, nil
}

func (j *jsonlWriter) WriteRow(_ context.Context, row []any) error {
	obj := make(map[string]any, len(j.columns))
	for i, col := range j.columns {
		if i < len(row) {
			obj[col] = jsonValue(row[i])
		} else {
			obj[col] = nil
		}
	}
	// Encode appends the newline, one object per line.
	return j.enc.Encode(obj)
}

// jsonValue keeps driver byte slices readable: they marshal to base64 by
// default, which is not what a JSONL consumer expects from text columns.
func jsonValue(v any) any {
	switch v := v.(type) {
	case []byte:
		return string(v)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	default:
		return v
	}
}

// sqlWriter emits one INSERT/UPSERT statement per row, `;`-terminated.
// With truncate set, a TRUNCATE statement leads the script so running it
// replaces the target table's rows.
type sqlWriter struct {
	*fileSink
	builder *statement.Builder
}

func NewSQL(path string, builder *statement.Builder, truncate bool) (Writer, error) {
	fs, err := newFileSink(path)
	if err != nil {
		return nil, err
	}
	w := &sqlWriter{fileSink: fs, builder: builder}
	if truncate {
		if _, err := fs.buf.WriteString(builder.Truncate() + ";\n"); err != nil {
			_ = fs.Close()
			return nil, err
		}
	}
	return w, nil
}

func (s *sqlWriter) WriteRow(_ context.Context, row []any) error {
	if _, err := s.buf.WriteString(s.builder.InsertRow(row)); err != nil {
		return err
	}
	_, err := s.buf.WriteString(";\n")
	return err
}
