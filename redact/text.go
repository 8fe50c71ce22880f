package redact

import (
	"math"

	"github.com/tsawler/textstrip/contentstream"
	"github.com/tsawler/textstrip/core"
	"github.com/tsawler/textstrip/graphicsstate"
	"github.com/tsawler/textstrip/model"
)

// rewriteText removes the runs of a text-showing operation selected by
// hit. The text matrix after the replacement equals the one after the
// original, so glyphs shown later do not move.
func rewriteText(op contentstream.Operation, ts *graphicsstate.TextShow, hit func(model.BBox) bool) ([]contentstream.Operation, bool) {
	removed := make(map[int]bool)
	for _, run := range ts.Runs {
		if run.Codes > 0 && hit(run.BBox) {
			removed[run.Element] = true
		}
	}
	if len(removed) == 0 {
		return nil, false
	}

	var total float64
	for _, run := range ts.Runs {
		total += run.Advance
	}

	switch op.Operator {
	case "Tj":
		return shift(ts, total), true
	case "'":
		return append([]contentstream.Operation{{Operator: "T*"}}, shift(ts, total)...), true
	case "\"":
		ops := []contentstream.Operation{
			{Operator: "Tw", Operands: []core.Object{op.Operands[0]}},
			{Operator: "Tc", Operands: []core.Object{op.Operands[1]}},
			{Operator: "T*"},
		}
		return append(ops, shift(ts, total)...), true
	case "TJ":
		return rewriteArray(op.Operands[0].(core.Array), ts, removed), true
	}
	return nil, false
}

// rewriteArray replaces removed strings of a TJ array with the equivalent
// displacement, merging adjacent numbers
func rewriteArray(arr core.Array, ts *graphicsstate.TextShow, removed map[int]bool) []contentstream.Operation {
	advance := make(map[int]float64, len(ts.Runs))
	for _, run := range ts.Runs {
		advance[run.Element] = run.Advance
	}

	var out core.Array
	var pending float64 // displacement in thousandths not yet emitted
	hasPending := false
	keptText := false
	total := 0.0 // text-space advance of everything that is not kept text

	flush := func() {
		if hasPending && pending != 0 {
			out = append(out, contentstream.Number(round(pending)))
		}
		pending, hasPending = 0, false
	}

	for idx, el := range arr {
		switch v := el.(type) {
		case core.String:
			if !removed[idx] {
				flush()
				out = append(out, v)
				keptText = true
				continue
			}
			adv := advance[idx]
			total += adv
			n, ok := thousandths(ts, adv)
			if ok {
				pending += n
				hasPending = true
			}
		case core.Int, core.Real:
			n, _ := core.Number(v)
			pending += n
			hasPending = true
			total += displacement(ts, n)
		}
	}
	flush()

	if !keptText {
		return shift(ts, total)
	}
	return []contentstream.Operation{{Operator: "TJ", Operands: []core.Object{out}}}
}

// shift returns operations moving the text position by adv text-space
// units along the writing direction without painting anything
func shift(ts *graphicsstate.TextShow, adv float64) []contentstream.Operation {
	if adv == 0 {
		return nil
	}
	if n, ok := thousandths(ts, adv); ok {
		return []contentstream.Operation{displacementTJ(n)}
	}

	// a zero font size scales TJ numbers to nothing; displace at size 1
	// and restore the font afterwards
	if ts.FontName == "" {
		return nil
	}
	unit := *ts
	unit.FontSize = 1
	n, ok := thousandths(&unit, adv)
	if !ok {
		return nil
	}
	name := core.Name(ts.FontName)
	return []contentstream.Operation{
		{Operator: "Tf", Operands: []core.Object{name, core.Int(1)}},
		displacementTJ(n),
		{Operator: "Tf", Operands: []core.Object{name, contentstream.Number(ts.FontSize)}},
	}
}

func displacementTJ(n float64) contentstream.Operation {
	return contentstream.Operation{
		Operator: "TJ",
		Operands: []core.Object{core.Array{contentstream.Number(round(n))}},
	}
}

// thousandths converts a text-space advance to the TJ number producing it
func thousandths(ts *graphicsstate.TextShow, adv float64) (float64, bool) {
	if ts.Vertical {
		if ts.FontSize == 0 {
			return 0, false
		}
		return -adv * 1000 / ts.FontSize, true
	}
	if ts.FontSize*ts.Scale == 0 {
		return 0, false
	}
	return -adv * 1000 / (ts.FontSize * ts.Scale), true
}

// displacement is the text-space advance of a TJ number
func displacement(ts *graphicsstate.TextShow, n float64) float64 {
	if ts.Vertical {
		return -n / 1000 * ts.FontSize
	}
	return -n / 1000 * ts.FontSize * ts.Scale
}

func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}
