package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/s0up4200/discovergy/discovergy"
)

// printer renders command results as a text tree/table or as JSON
type printer struct {
	w      io.Writer
	format string
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// treeBranch returns the branch glyph and child indent for item i of n
func treeBranch(i, n int) (prefix, indent string) {
	if i == n-1 {
		return "╰", "    "
	}
	return "├", "│   "
}

// Meters prints meter records
func (p *printer) Meters(meters []discovergy.Meter) error {
	if p.format == "json" {
		return p.json(meters)
	}

	if len(meters) == 0 {
		_, err := fmt.Fprintln(p.w, "No meters found")
		return err
	}

	var sb strings.Builder
	sb.WriteString("\nMeter")
	if len(meters) != 1 {
		sb.WriteString("s")
	}
	fmt.Fprintf(&sb, " (%d):\n\n", len(meters))

	for i, m := range meters {
		prefix, indent := treeBranch(i, len(meters))
		fmt.Fprintf(&sb, "%s── %s\n", prefix, m.ID())

		fmt.Fprintf(&sb, "%sType: %s", indent, m.Type())
		if mt := m.Field("measurementType"); mt != "" {
			fmt.Fprintf(&sb, " (%s)", mt)
		}
		sb.WriteString("\n")

		if serial := m.SerialNumber(); serial != "" {
			fmt.Fprintf(&sb, "%sSerial: %s\n", indent, serial)
		}
		if addr := formatLocation(m); addr != "" {
			fmt.Fprintf(&sb, "%sLocation: %s\n", indent, addr)
		}

		first, last := m.MeasurementSpan()
		if !first.IsZero() || !last.IsZero() {
			fmt.Fprintf(&sb, "%sMeasured: %s to %s\n", indent, formatTime(first), formatTime(last))
		}

		if i != len(meters)-1 {
			sb.WriteString("│\n")
		}
	}
	sb.WriteString("\n")

	_, err := io.WriteString(p.w, sb.String())
	return err
}

func formatLocation(m discovergy.Meter) string {
	street := strings.TrimSpace(m.LocationField("street") + " " + m.LocationField("streetNumber"))
	city := strings.TrimSpace(m.LocationField("zip") + " " + m.LocationField("city"))

	var parts []string
	for _, p := range []string{street, city, m.LocationField("country")} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

// FieldNames prints the field names of a meter, one per line
func (p *printer) FieldNames(fields []string) error {
	if p.format == "json" {
		return p.json(fields)
	}
	for _, f := range fields {
		if _, err := fmt.Fprintln(p.w, f); err != nil {
			return err
		}
	}
	return nil
}

// Readings prints readings as a table with one column per value field
func (p *printer) Readings(readings []discovergy.Reading) error {
	if p.format == "json" {
		return p.json(readings)
	}
	if len(readings) == 0 {
		_, err := fmt.Fprintln(p.w, "No readings found")
		return err
	}

	columns := make(map[string]struct{})
	for _, r := range readings {
		for k := range r.Values() {
			columns[k] = struct{}{}
		}
	}
	fields := slices.Sorted(maps.Keys(columns))

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "TIME\t%s\n", strings.ToUpper(strings.Join(fields, "\t")))
	for _, r := range readings {
		ts, _ := r.Time()
		row := make([]string, 0, len(fields)+1)
		row = append(row, formatTime(ts))
		for _, f := range fields {
			row = append(row, formatValue(r.Values()[f]))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// Disaggregation prints one row per timestamp and device, oldest first
func (p *printer) Disaggregation(d discovergy.Disaggregation) error {
	if p.format == "json" {
		return p.json(d)
	}
	if len(d) == 0 {
		_, err := fmt.Fprintln(p.w, "No disaggregation data found")
		return err
	}

	stamps := slices.SortedFunc(maps.Keys(d), func(a, b string) int {
		if len(a) != len(b) {
			return len(a) - len(b)
		}
		return strings.Compare(a, b)
	})

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tDEVICE\tENERGY (µWh)")
	for _, stamp := range stamps {
		label := stamp
		if ms, err := json.Number(stamp).Int64(); err == nil {
			label = formatTime(time.UnixMilli(ms))
		}
		devices := d[stamp]
		for _, device := range slices.Sorted(maps.Keys(devices)) {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", label, device, formatValue(devices[device]))
		}
	}
	return tw.Flush()
}

// Activities prints one row per activity
func (p *printer) Activities(activities []discovergy.Activity) error {
	if p.format == "json" {
		return p.json(activities)
	}
	if len(activities) == 0 {
		_, err := fmt.Fprintln(p.w, "No activities found")
		return err
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tSTART\tEND")
	for _, a := range activities {
		start, _ := a.Start()
		end, _ := a.End()
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.DeviceName(), formatTime(start), formatTime(end))
	}
	return tw.Flush()
}

// Snapshot prints the last reading of each meter
func (p *printer) Snapshot(entries []snapshotEntry) error {
	if p.format == "json" {
		return p.json(entries)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(p.w, "No meters found")
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nSnapshot (%d meters):\n\n", len(entries))
	for i, e := range entries {
		prefix, indent := treeBranch(i, len(entries))
		fmt.Fprintf(&sb, "%s── %s (%s)\n", prefix, e.MeterID, e.Type)

		switch {
		case e.Error != "":
			fmt.Fprintf(&sb, "%sError: %s\n", indent, e.Error)
		case len(e.Reading) == 0:
			fmt.Fprintf(&sb, "%sNo reading\n", indent)
		default:
			ts, _ := e.Reading.Time()
			fmt.Fprintf(&sb, "%sTime: %s\n", indent, formatTime(ts))
			values := e.Reading.Values()
			for _, k := range slices.Sorted(maps.Keys(values)) {
				fmt.Fprintf(&sb, "%s%s: %s\n", indent, k, formatValue(values[k]))
			}
		}

		if i != len(entries)-1 {
			sb.WriteString("│\n")
		}
	}
	sb.WriteString("\n")

	_, err := io.WriteString(p.w, sb.String())
	return err
}

func formatValue(v any) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(v)
}
