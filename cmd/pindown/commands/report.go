package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pindown/pindown/internal/core/domain"
)

// reportChanges prints the outcome of a lock run.
func reportChanges(w io.Writer, changes []domain.Change, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if changes == nil {
			changes = []domain.Change{}
		}
		return enc.Encode(changes)
	}

	if len(changes) == 0 {
		_, err := fmt.Fprintln(w, "lockfile is up to date")
		return err
	}
	for _, change := range changes {
		line := ""
		switch change.Kind {
		case domain.ChangeAdded:
			line = fmt.Sprintf("+ %s (%s) %s", change.InstallID, change.System, describe(change.After))
		case domain.ChangeRemoved:
			line = fmt.Sprintf("- %s (%s)", change.InstallID, change.System)
		case domain.ChangeUpdated:
			line = fmt.Sprintf("~ %s (%s) %s -> %s",
				change.InstallID, change.System, describe(change.Before), describe(change.After))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// describe renders a locked package for the change report. A null
// package is an optional request that resolved to nothing.
func describe(pkg *domain.LockedPackage) string {
	if pkg == nil {
		return "(absent)"
	}
	if pkg.Info.Version == "" {
		return pkg.Info.Pname
	}
	return pkg.Info.Pname + "@" + pkg.Info.Version
}
