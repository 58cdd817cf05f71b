// Package scores reads and writes the positional score export.
package scores

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/verte-zerg/drumrate/internal/model"
)

// Positions of the fields inside one export row.
const (
	fieldID = iota
	fieldLevel
	fieldScore
	fieldScoreRank
	fieldGreat
	fieldGood
	fieldBad
	fieldDrumroll
	fieldCombo
	fieldPlayCount
	fieldClearCount
	fieldFullComboCount
	fieldPerfectCount
	fieldUpdatedAt
)

// ParsePastedScores parses a JSON array of rows. Anything that is not a
// well-formed JSON array yields no scores.
func ParsePastedScores(raw string) []model.UserScore {
	doc, ok := parseArray(raw)
	if !ok {
		return nil
	}
	var out []model.UserScore
	doc.ForEach(func(_, row gjson.Result) bool {
		var fields []gjson.Result
		if row.IsArray() {
			fields = row.Array()
		}
		out = append(out, ApplyRainbowCrown(scoreFromResults(fields)))
		return true
	})
	return out
}

// ParseRows converts already decoded rows.
func ParseRows(rows [][]any) []model.UserScore {
	out := make([]model.UserScore, 0, len(rows))
	for _, row := range rows {
		get := func(i int) any {
			if i < len(row) {
				return row[i]
			}
			return nil
		}
		s := model.UserScore{
			ID:             intFromAny(get(fieldID)),
			Level:          model.Tier(intFromAny(get(fieldLevel))),
			Score:          intFromAny(get(fieldScore)),
			ScoreRank:      intFromAny(get(fieldScoreRank)),
			Great:          intFromAny(get(fieldGreat)),
			Good:           intFromAny(get(fieldGood)),
			Bad:            intFromAny(get(fieldBad)),
			Drumroll:       intFromAny(get(fieldDrumroll)),
			Combo:          intFromAny(get(fieldCombo)),
			PlayCount:      intFromAny(get(fieldPlayCount)),
			ClearCount:     intFromAny(get(fieldClearCount)),
			FullComboCount: intFromAny(get(fieldFullComboCount)),
			PerfectCount:   intFromAny(get(fieldPerfectCount)),
			UpdatedAt:      stringFromAny(get(fieldUpdatedAt)),
		}
		out = append(out, ApplyRainbowCrown(s))
	}
	return out
}

// FormatScores writes scores back into the positional export format.
func FormatScores(list []model.UserScore) (string, error) {
	doc := []byte(`{"scores":[]}`)
	for _, s := range list {
		row := []any{
			s.ID, int(s.Level), s.Score, s.ScoreRank, s.Great, s.Good, s.Bad,
			s.Drumroll, s.Combo, s.PlayCount, s.ClearCount, s.FullComboCount,
			s.PerfectCount, s.UpdatedAt,
		}
		var err error
		doc, err = sjson.SetBytes(doc, "scores.-1", row)
		if err != nil {
			return "", fmt.Errorf("failed to encode score %s: %w", s.Key(), err)
		}
	}
	return gjson.GetBytes(doc, "scores").Raw, nil
}

// CountRows returns the number of rows in a raw export without decoding them.
func CountRows(raw string) int {
	doc, ok := parseArray(raw)
	if !ok {
		return 0
	}
	return int(doc.Get("#").Int())
}

func parseArray(raw string) (gjson.Result, bool) {
	raw = strings.TrimSpace(raw)
	if !gjson.Valid(raw) {
		return gjson.Result{}, false
	}
	doc := gjson.Parse(raw)
	return doc, doc.IsArray()
}

func scoreFromResults(fields []gjson.Result) model.UserScore {
	get := func(i int) gjson.Result {
		if i < len(fields) {
			return fields[i]
		}
		return gjson.Result{}
	}
	return model.UserScore{
		ID:             intFromResult(get(fieldID)),
		Level:          model.Tier(intFromResult(get(fieldLevel))),
		Score:          intFromResult(get(fieldScore)),
		ScoreRank:      intFromResult(get(fieldScoreRank)),
		Great:          intFromResult(get(fieldGreat)),
		Good:           intFromResult(get(fieldGood)),
		Bad:            intFromResult(get(fieldBad)),
		Drumroll:       intFromResult(get(fieldDrumroll)),
		Combo:          intFromResult(get(fieldCombo)),
		PlayCount:      intFromResult(get(fieldPlayCount)),
		ClearCount:     intFromResult(get(fieldClearCount)),
		FullComboCount: intFromResult(get(fieldFullComboCount)),
		PerfectCount:   intFromResult(get(fieldPerfectCount)),
		UpdatedAt:      stringFromResult(get(fieldUpdatedAt)),
	}
}

func intFromResult(r gjson.Result) int {
	switch r.Type {
	case gjson.Number:
		return int(r.Num)
	case gjson.String:
		return parseNumeric(r.Str)
	case gjson.True:
		return 1
	default:
		return 0
	}
}

func stringFromResult(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return r.Raw
	default:
		return ""
	}
}

func intFromAny(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint:
		return int(n)
	case uint8:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		return int(n)
	case uint64:
		return int(n)
	case float32:
		return truncFloat(float64(n))
	case float64:
		return truncFloat(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return truncFloat(f)
	case string:
		return parseNumeric(n)
	default:
		return 0
	}
}

func stringFromAny(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func parseNumeric(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return truncFloat(f)
}

func truncFloat(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}
