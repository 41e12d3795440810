// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package catalog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/recommendit/core"
	textunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Column names required in the catalog header.
const (
	ColumnProduct     = "Product"
	ColumnDescription = "Description"
	ColumnJobLevels   = "Job Levels"
	ColumnDuration    = "Assessment Length (minutes)"
	ColumnCategory    = "Category"
	ColumnKeywords    = "Keywords"
)

// RequiredColumns lists the header columns every catalog source must carry.
var RequiredColumns = []string{
	ColumnProduct,
	ColumnDescription,
	ColumnJobLevels,
	ColumnDuration,
	ColumnCategory,
	ColumnKeywords,
}

// Catalog is an immutable, validated table of catalog items.
type Catalog struct {
	items   []core.CatalogItem
	skipped int
	dropped int
}

// Option configures catalog loading.
type Option func(*options)

type options struct {
	delimiter rune
	logger    *slog.Logger
}

// WithDelimiter sets the field delimiter. Default is a comma.
func WithDelimiter(delim rune) Option {
	return func(o *options) {
		o.delimiter = delim
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// New creates a catalog from items that are already parsed.
// Items failing validation are dropped, keywords are filled from the category
// and search text is derived. IDs are reassigned in order.
func New(items []core.CatalogItem) *Catalog {
	c := &Catalog{items: make([]core.CatalogItem, 0, len(items))}
	for _, item := range items {
		if core.ValidateItem(&item) != nil {
			c.dropped++
			continue
		}
		c.add(item)
	}
	return c
}

// Load reads a catalog from a delimited file.
func Load(path string, opts ...Option) (*Catalog, error) {
	o := applyOptions(opts)

	f, err := os.Open(path)
	if err != nil {
		o.logger.Error("catalog loading failed", "path", path, "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrLoad, err)
	}
	defer f.Close()

	c, err := read(f, o)
	if err != nil {
		o.logger.Error("catalog loading failed", "path", path, "err", err)
		return nil, err
	}

	o.logger.Info("catalog loaded", "path", path, "items", c.Len(), "skipped", c.skipped, "dropped", c.dropped)
	return c, nil
}

// Read reads a catalog from delimited text.
func Read(r io.Reader, opts ...Option) (*Catalog, error) {
	o := applyOptions(opts)

	c, err := read(r, o)
	if err != nil {
		o.logger.Error("catalog loading failed", "err", err)
		return nil, err
	}
	return c, nil
}

func applyOptions(opts []Option) *options {
	o := &options{
		delimiter: ',',
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "catalog")
	return o
}

func read(r io.Reader, o *options) (*Catalog, error) {
	// Spreadsheet exports often prepend a UTF-8 byte order mark
	decoded := transform.NewReader(r, textunicode.BOMOverride(textunicode.UTF8.NewDecoder()))
	rr := newRecordReader(decoded, o.delimiter)

	header, _, err := rr.read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: source has no header row", core.ErrLoad)
		}
		return nil, fmt.Errorf("%w: reading header: %w", core.ErrLoad, err)
	}

	columns, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	c := &Catalog{}
	for {
		fields, line, err := rr.read()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, errUnterminatedQuote) {
			c.skipped++
			o.logger.Warn("skipping malformed row", "line", line, "err", err)
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", core.ErrLoad, line, err)
		}

		if len(fields) > len(header) {
			c.skipped++
			o.logger.Warn("skipping malformed row", "line", line,
				"expected", len(header), "saw", len(fields))
			continue
		}

		item := columns.item(fields)
		if err := core.ValidateItem(&item); err != nil {
			c.dropped++
			o.logger.Debug("dropping row", "line", line, "err", err)
			continue
		}
		if raw := columns.field(fields, ColumnDuration); raw != "" && item.DurationMinutes == 0 {
			if _, perr := strconv.ParseFloat(raw, 64); perr != nil {
				o.logger.Warn("unparseable assessment length", "line", line, "value", raw)
			}
		}
		c.add(item)
	}

	return c, nil
}

// columnIndex maps required column names to field positions.
type columnIndex map[string]int

func indexColumns(header []string) (columnIndex, error) {
	columns := make(columnIndex, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}

	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, fmt.Errorf("%w: missing required columns: %s", core.ErrSchema, strings.Join(missing, ", "))
	}
	return columns, nil
}

// field returns the trimmed value of a column. Short rows read as blank.
func (ci columnIndex) field(fields []string, name string) string {
	i := ci[name]
	if i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func (ci columnIndex) item(fields []string) core.CatalogItem {
	duration, _ := strconv.ParseFloat(ci.field(fields, ColumnDuration), 64)
	return core.CatalogItem{
		ProductName:     ci.field(fields, ColumnProduct),
		Description:     ci.field(fields, ColumnDescription),
		JobLevels:       ci.field(fields, ColumnJobLevels),
		DurationMinutes: duration,
		Category:        ci.field(fields, ColumnCategory),
		Keywords:        ci.field(fields, ColumnKeywords),
	}
}

// add normalizes item and appends it with the next ordinal ID.
func (c *Catalog) add(item core.CatalogItem) {
	if strings.TrimSpace(item.Keywords) == "" {
		item.Keywords = strings.ToLower(item.Category)
	}
	item.ID = len(c.items)
	item.SearchText = core.BuildSearchText(&item)
	c.items = append(c.items, item)
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Items returns a copy of all items in catalog order.
func (c *Catalog) Items() []core.CatalogItem {
	return slices.Clone(c.items)
}

// Item returns the item with the given ID.
func (c *Catalog) Item(id int) (core.CatalogItem, bool) {
	if id < 0 || id >= len(c.items) {
		return core.CatalogItem{}, false
	}
	return c.items[id], true
}

// SearchTexts returns the embedding input of every item in catalog order.
func (c *Catalog) SearchTexts() []string {
	texts := make([]string, len(c.items))
	for i := range c.items {
		texts[i] = c.items[i].SearchText
	}
	return texts
}

// Categories returns the distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	var out []string
	seen := make(map[string]bool)
	for _, item := range c.items {
		if item.Category == "" || seen[item.Category] {
			continue
		}
		seen[item.Category] = true
		out = append(out, item.Category)
	}
	return out
}

// JobLevels returns the distinct comma-separated job level labels in first-seen order.
func (c *Catalog) JobLevels() []string {
	var out []string
	seen := make(map[string]bool)
	for _, item := range c.items {
		for _, level := range strings.Split(item.JobLevels, ",") {
			level = strings.TrimSpace(level)
			if level == "" || seen[level] {
				continue
			}
			seen[level] = true
			out = append(out, level)
		}
	}
	return out
}

// Skipped returns the number of malformed rows skipped during load.
func (c *Catalog) Skipped() int {
	return c.skipped
}

// Dropped returns the number of rows dropped for a missing product or description.
func (c *Catalog) Dropped() int {
	return c.dropped
}
