package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"github.com/RyanBlaney/chirp-sonar/features/extractors"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

type reportWriter func(w io.Writer, fv *extractors.FeatureVector) error

func newReportWriter(format string) (reportWriter, error) {
	switch format {
	case formatText:
		return writeText, nil
	case formatJSON:
		return writeJSON, nil
	case formatYAML:
		return writeYAML, nil
	}
	return nil, common.NewConfigurationError("report",
		fmt.Sprintf("unknown output format %q (want text, json or yaml)", format))
}

// writeText prints one "name: value" line per feature
func writeText(w io.Writer, fv *extractors.FeatureVector) error {
	for _, f := range fv.Features() {
		if _, err := fmt.Fprintf(w, "%s: %s\n", f.Name, strconv.FormatFloat(f.Value, 'g', -1, 64)); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, fv *extractors.FeatureVector) error {
	data, err := json.MarshalIndent(fv, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeYAML(w io.Writer, fv *extractors.FeatureVector) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fv); err != nil {
		return err
	}
	return enc.Close()
}
