package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/usestring/storeadvisor/internal/ingest"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validFormat(f string) bool {
	return f == formatText || f == formatJSON || f == formatYAML
}

// render writes the batch outcomes to w in the given format.
func render(w io.Writer, format string, outcomes []ingest.Outcome) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	case formatYAML:
		return writeYAML(w, outcomes)
	default:
		for i, o := range outcomes {
			if i > 0 {
				fmt.Fprintln(w)
			}
			if err := writeText(w, o); err != nil {
				return err
			}
		}
		return nil
	}
}

// writeYAML goes through JSON so ordered objects and json.Number values keep
// their key order and numeric type.
func writeYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	blockStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}

// blockStyle clears the flow and quoting styles JSON input leaves on nodes.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func writeText(w io.Writer, o ingest.Outcome) error {
	if o.Err != nil {
		_, err := fmt.Fprintf(w, "%s: error: %s\n", o.Filename, ingest.Wrap(o.Err))
		return err
	}
	rep := o.Report
	res := rep.Result

	fmt.Fprintf(w, "%s: %s\n", rep.Filename, res.Database)
	fmt.Fprintf(w, "  reason:   %s\n", res.Reason)
	fmt.Fprintf(w, "  records:  %d (sampled %d, depth %d)\n", rep.Records, res.SampleSize, res.NestingDepth)

	if res.Fields != nil && res.Fields.Len() > 0 {
		fmt.Fprintln(w, "  fields:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for pair := res.Fields.Oldest(); pair != nil; pair = pair.Next() {
			ratio := "-"
			if res.KeyConsistency != nil {
				if r, ok := res.KeyConsistency.Get(pair.Key); ok {
					ratio = fmt.Sprintf("%.3g", r)
				}
			}
			fmt.Fprintf(tw, "    %s\t%s\t%s\n", pair.Key, pair.Value, ratio)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if res.CreateTableSQL != "" {
		fmt.Fprintln(w, "  ddl:")
		for _, line := range strings.Split(strings.TrimRight(res.CreateTableSQL, "\n"), "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	if rep.Profile != nil {
		fmt.Fprintf(w, "  profile:  %d documents, uniform=%t, %d fields\n", rep.Profile.Documents, rep.Profile.Uniform, len(rep.Profile.Fields))
	}
	if v := rep.Validation; v != nil {
		if !v.OK() {
			fmt.Fprintf(w, "  invalid:  %d of %d records\n", v.Invalid, v.Checked)
		}
		for _, gap := range v.KeyGaps {
			fmt.Fprintf(w, "  optional: %s (in %d of %d records)\n", gap.Key, gap.Present, v.Checked)
		}
	}
	if rep.StoreResult != "" {
		fmt.Fprintf(w, "  stored:   %s\n", rep.StoreResult)
	}
	_, err := fmt.Fprintf(w, "  summary:  %s\n", res.Summary)
	return err
}
