// Package render writes profiles for people and programs.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/chop-dbhi/data-profiler/profile"
)

// Table writes one row per column, profiler and output field. Columns
// without applicable profilers get a single row.
func Table(w io.Writer, p *profile.Profile) error {
	if _, err := fmt.Fprintf(w, "Records: %d\n", p.RecordCount); err != nil {
		return err
	}

	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Column", "Type", "Count", "Profiler", "Field", "Value"})
	tbl.SetBorder(true)
	tbl.SetAutoWrapText(false)

	for _, n := range p.Names() {
		c := p.Columns[n]
		count := strconv.FormatInt(c.Count, 10)

		if len(c.Profiles) == 0 {
			tbl.Append([]string{c.Name, c.Type.String(), count, "", "", ""})
			continue
		}

		for _, pn := range profilerNames(c) {
			for _, e := range c.Profiles[pn] {
				tbl.Append([]string{c.Name, c.Type.String(), count, pn, e.Name, e.Value.String()})
			}
		}
	}

	tbl.Render()

	return nil
}

// JSON writes the profile as indented JSON. Undefined statistics are
// encoded as null.
func JSON(w io.Writer, p *profile.Profile) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

func profilerNames(c *profile.Column) []string {
	names := make([]string, 0, len(c.Profiles))
	for n := range c.Profiles {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}
