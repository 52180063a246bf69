package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// recordPattern splits a trace line's "t<id>=KIND(args)" shape into its
// id and the untouched "KIND(args)" remainder. Cross-edge lines
// ("t<a>[<o>]=t<b>[<p>]") never match the "=X(" suffix and are handled
// separately by convertLine.
var recordPattern = regexp.MustCompile(`^t(\d+)=([A-Z])\((.*)\)$`)

// crossEdgePattern matches "t<a>[<o>]=t<b>[<p>]".
var crossEdgePattern = regexp.MustCompile(`^t(\d+)\[(\d+)\]=t(\d+)\[(\d+)\]$`)

// convertTrace reads spec §4.3 trace lines from r and writes one JSON
// object per line to w (JSON Lines), for downstream tooling that would
// rather gjson.Get/sjson.Set a structured record than parse the line
// grammar itself.
func convertTrace(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		obj, err := convertLine(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if _, err := fmt.Fprintln(w, obj); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func convertLine(line string) (string, error) {
	if m := crossEdgePattern.FindStringSubmatch(line); m != nil {
		return crossEdgeJSON(m)
	}
	if m := recordPattern.FindStringSubmatch(line); m != nil {
		return recordJSON(m)
	}
	return "", fmt.Errorf("unrecognized trace line: %q", line)
}

func crossEdgeJSON(m []string) (string, error) {
	obj := "{}"
	var err error
	obj, err = sjson.Set(obj, "kind", "cross_edge")
	if err != nil {
		return "", err
	}
	for key, val := range map[string]string{
		"dst_id":  m[1],
		"dst_off": m[2],
		"src_id":  m[3],
		"src_off": m[4],
	} {
		n, convErr := strconv.ParseUint(val, 10, 64)
		if convErr != nil {
			return "", convErr
		}
		obj, err = sjson.Set(obj, key, n)
		if err != nil {
			return "", err
		}
	}
	return obj, nil
}

func recordJSON(m []string) (string, error) {
	id, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return "", err
	}
	kindChar, args := m[2], m[3]

	kind, ok := recordKinds[kindChar]
	if !ok {
		return "", fmt.Errorf("unknown record kind %q", kindChar)
	}

	obj := "{}"
	obj, err = sjson.Set(obj, "kind", kind)
	if err != nil {
		return "", err
	}
	obj, err = sjson.Set(obj, "id", id)
	if err != nil {
		return "", err
	}
	obj, err = sjson.SetRaw(obj, "args", argsJSON(args))
	if err != nil {
		return "", err
	}
	return obj, nil
}

var recordKinds = map[string]string{
	"V": "value",
	"A": "binop",
	"O": "object",
	"B": "block",
	"M": "malloc",
	"N": "name",
	"D": "data",
}

// argsJSON turns a record's raw comma-separated argument text into a JSON
// array of strings; callers that need typed fields look them up with
// gjson.Get("args.0") etc. rather than this converter guessing per-kind
// shapes.
func argsJSON(args string) string {
	out := "[]"
	for _, p := range splitTopLevel(args) {
		out, _ = sjson.Set(out, "-1", strings.TrimSpace(p))
	}
	return out
}

// fieldAt extracts the i'th element of a convertLine-produced record's
// args array, the read-side counterpart traceconv's consumers use
// instead of re-parsing the original trace grammar.
func fieldAt(recordJSONLine string, i int) string {
	return gjson.Get(recordJSONLine, fmt.Sprintf("args.%d", i)).String()
}

// runTraceConv reads the trace file at path, converts every line to JSON
// (convertTrace), writes the JSON Lines to jsonOut, and prints a one-line
// colorized summary of each non-cross-edge record to summaryOut using
// fieldAt to pull out its first argument (the field every record kind
// other than cross_edge carries: the operator name for a binop, the byte
// count for a malloc, and so on).
func runTraceConv(path string, jsonOut, summaryOut io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var jsonLines strings.Builder
	if err := convertTrace(f, &jsonLines); err != nil {
		return err
	}

	scanner := bufio.NewScanner(strings.NewReader(jsonLines.String()))
	for scanner.Scan() {
		line := scanner.Text()
		if _, err := fmt.Fprintln(jsonOut, line); err != nil {
			return err
		}

		kind := gjson.Get(line, "kind").String()
		if kind == "cross_edge" {
			continue
		}
		id := gjson.Get(line, "id").String()
		first := fieldAt(line, 0)
		fmt.Fprintf(summaryOut, "%s t%s %s\n", color.Cyan.Sprint(kind), id, first)
	}
	return scanner.Err()
}

// splitTopLevel splits s on commas that are not inside a quoted string,
// since an operator name argument like "add" may itself be a quoted
// literal containing no commas but is parsed defensively anyway.
func splitTopLevel(s string) []string {
	var parts []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case r == ',' && !inQuotes:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 || len(parts) > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}
