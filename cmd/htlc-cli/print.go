package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
)

var stdout io.Writer = os.Stdout

func printJSON[T any](resp T) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "    "); err != nil {
		return err
	}
	out.WriteString("\n")
	if _, err := stdout.Write(out.Bytes()); err != nil {
		return err
	}
	return nil
}

func printSliceJSON[T any](items []T) error {
	if items == nil {
		items = []T{}
	}

	return printJSON(struct {
		Items    []T `json:"items"`
		NumItems int `json:"num_items"`
	}{
		Items:    items,
		NumItems: len(items),
	})
}
