package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/schemex"
)

// Run executes the records command.
func (c *RecordsCmd) Run(deps *Dependencies) error {
	filter := schemex.ResultFilter{Offset: c.Offset, Limit: c.Limit}
	if c.Batch != "" {
		filter.Batch = &c.Batch
	}

	results, err := deps.Results.FindResults(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", schemex.ErrorMessage(err))
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(deps.Stderr, "No records found. Use 'schemex run' to extract some.")
		return nil
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetEscapeHTML(false)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}
	return nil
}
