package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"go-pkresolve/service"
)

// encode writes v as JSON or YAML. It reports false for the text format so
// the caller can print its own layout.
func (a *app) encode(w io.Writer, v any) (bool, error) {
	switch a.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

// printResult writes a query result. The text layout is one tab separated
// line per item, the first field naming the item kind.
func (a *app) printResult(w io.Writer, res *service.Result) error {
	if done, err := a.encode(w, res); done {
		return err
	}

	for _, p := range res.Packages {
		fmt.Fprintf(w, "package\t%s\t%s\t%s\n", p.Info, p.ID, p.Summary)
	}
	for _, d := range res.PackageDetails {
		fmt.Fprintf(w, "details\t%s\t%s\t%s\t%s\t%s\t%d\n",
			d.ID, d.License, d.Group, d.Description, d.Homepage, d.Size)
	}
	for _, f := range res.FileLists {
		fmt.Fprintf(w, "files\t%s\t%s\n", f.ID, strings.Join(f.Files, ";"))
	}
	for _, u := range res.UpdateDetails {
		fmt.Fprintf(w, "updatedetail\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			u.ID, u.Updates, u.Obsoletes, u.VendorURL, u.BugzillaURL, u.CVEURL,
			u.Restart, u.UpdateText, u.Changelog, u.State)
	}
	for _, r := range res.Repos {
		fmt.Fprintf(w, "repo-detail\t%s\t%s\t%t\n", r.ID, r.Description, r.Enabled)
	}
	for _, m := range res.Messages {
		fmt.Fprintf(w, "message\t%s\t%s\n", m.Kind, m.Text)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "error\t%s\t%s\n", e.Code, e.Message)
	}
	return nil
}
