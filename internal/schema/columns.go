package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

const enteredMarker = `Date entered "`

// ErrSuccessColumnMissing is returned when a pipeline has stage columns but
// none of them carries its success stage.
var ErrSuccessColumnMissing = errors.New("success stage column missing")

// Column binds one export header to the stage whose entry date it carries.
type Column struct {
	Header string `json:"header"`
	Stage  string `json:"stage"`
}

// ColumnMap is the validated header table of one pipeline variant.
type ColumnMap struct {
	Schema  *Schema
	Columns []Column

	byStage map[string]string
}

// Resolve builds the column table for s from an export header row.
// A stage binds to the first header whose quoted title is exactly the stage
// token plus the variant suffix; headers that only contain the token are used
// when no exact title exists. A variant without any stage column yields an
// empty map.
func Resolve(s *Schema, headers []string) (*ColumnMap, error) {
	cm := &ColumnMap{Schema: s, byStage: make(map[string]string)}
	used := make(map[string]bool)

	// Exact titles are bound first so a loose match cannot steal them.
	for _, find := range []func([]string, string, string, map[string]bool) (string, bool){findExact, findContains} {
		for _, st := range s.Stages {
			if _, done := cm.byStage[st.Name]; done {
				continue
			}
			if header, ok := find(headers, st.Column, s.Suffix, used); ok {
				used[header] = true
				cm.byStage[st.Name] = header
			}
		}
	}
	for _, st := range s.Stages {
		if header, ok := cm.byStage[st.Name]; ok {
			cm.Columns = append(cm.Columns, Column{Header: header, Stage: st.Name})
		}
	}

	if len(cm.Columns) == 0 {
		log.Debug().Str("pipeline", s.Label).Msg("No stage columns found for pipeline")
		return cm, nil
	}
	if _, ok := cm.byStage[s.Success]; !ok {
		return nil, fmt.Errorf("%w: pipeline %q has %d stage columns but none for %q",
			ErrSuccessColumnMissing, s.Label, len(cm.Columns), s.Success)
	}

	log.Debug().Str("pipeline", s.Label).Int("columns", len(cm.Columns)).Msg("Resolved stage columns")
	return cm, nil
}

func findExact(headers []string, token, suffix string, used map[string]bool) (string, bool) {
	for _, h := range headers {
		if used[h] {
			continue
		}
		title, ok := quotedTitle(h)
		if !ok || !strings.HasSuffix(title, suffix) {
			continue
		}
		if strings.TrimSpace(strings.TrimSuffix(title, suffix)) == token {
			return h, true
		}
	}
	return "", false
}

func findContains(headers []string, token, suffix string, used map[string]bool) (string, bool) {
	for _, h := range headers {
		if used[h] {
			continue
		}
		if strings.Contains(h, enteredMarker) && strings.Contains(h, token) && strings.Contains(h, suffix) {
			return h, true
		}
	}
	return "", false
}

// quotedTitle extracts the text between `Date entered "` and the closing quote.
func quotedTitle(header string) (string, bool) {
	i := strings.Index(header, enteredMarker)
	if i < 0 {
		return "", false
	}
	rest := header[i+len(enteredMarker):]
	j := strings.LastIndex(rest, `"`)
	if j < 0 {
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:j]), true
}

// Empty reports whether no stage column was found.
func (cm *ColumnMap) Empty() bool {
	return cm == nil || len(cm.Columns) == 0
}

// Header returns the column carrying a stage's entry date.
func (cm *ColumnMap) Header(stage string) (string, bool) {
	if cm == nil {
		return "", false
	}
	h, ok := cm.byStage[stage]
	return h, ok
}

// ExportHeader is the header HubSpot writes for a stage's entry date.
func (s *Schema) ExportHeader(st Stage) string {
	return enteredMarker + st.Column + " " + s.Suffix + `"`
}
