package main

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/cookware/cargo-cook/internal/style"
	"github.com/cookware/cargo-cook/module/cook/pipeline"
	"github.com/cookware/cargo-cook/util/common"
	"github.com/cookware/cargo-cook/util/common/printer"
)

// printSummary lists the produced archives and the deploy outcomes.
func printSummary(w io.Writer, s *pipeline.Summary) error {
	archives := printer.Table{
		Title:   "Archives",
		Headers: []string{"Container", "Archive", "Size", "Hashes"},
	}
	for _, a := range s.Archives {
		var hashes []string
		for _, sidecar := range a.Sidecars {
			hashes = append(hashes, strings.TrimPrefix(filepath.Ext(sidecar), "."))
		}
		archives.Append(a.Container, a.Path, common.GetSize(a.Size), strings.Join(hashes, ", "))
	}
	if err := printer.Print(w, archives); err != nil {
		return err
	}

	deployments := printer.Table{
		Title:   "Deployments",
		Headers: []string{"Target", "Status", "Error"},
	}
	for _, o := range s.Deployments {
		if o.OK() {
			deployments.Append(o.Target, style.SuccessIcon())
			continue
		}
		deployments.Append(o.Target, style.ErrorIcon(), o.Err.Error())
	}
	return printer.Print(w, deployments)
}
